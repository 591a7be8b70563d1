// Package gifapi provides a client for the GIF composition service.
//
// The service owns every piece of real work: it keeps the session's image
// list, fetches and stores images, records the animation assigned to each
// image and encodes the final GIF. This client only speaks its JSON-over-HTTP
// protocol:
//
//  1. Create a session and keep the returned session ID
//  2. Add images by URL or multipart upload (each returns an image descriptor)
//  3. Remove images and assign animations, one image or all at once
//  4. Request the GIF and download it from the returned reference
//
// Every response signals failure through an "error" string field. Failures
// are returned as *RequestError.
package gifapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is where a locally started composition service listens.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout is the HTTP client timeout for API calls. GIF encoding
	// with many transition frames is slow, so this is generous.
	DefaultTimeout = 2 * time.Minute

	// requestIDHeader carries a per-request UUID for log correlation.
	requestIDHeader = "X-Request-Id"
)

// Endpoint paths.
const (
	pathSession      = "/api/session"
	pathFetchImage   = "/api/fetch-image"
	pathUpload       = "/api/upload"
	pathRemoveImage  = "/api/remove-image"
	pathSetAnimation = "/api/set-animation"
	pathSetAll       = "/api/set-all-animations"
	pathCreateGIF    = "/api/create-gif"
)

// Client talks to the GIF composition service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the service at baseURL. A zero timeout
// means DefaultTimeout. Responses are transparently gunzipped.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// --- API types ---

// Image is the service's descriptor of one stored image.
type Image struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Thumbnail string `json:"thumbnail"`
}

// GIF is the result of a create-GIF request.
type GIF struct {
	URL      string `json:"gif_url"`
	Filename string `json:"filename"`
}

// GIFOptions are the encoding parameters sent with a create-GIF request.
type GIFOptions struct {
	Duration         int // milliseconds per frame
	Loop             int // 0 = loop forever
	TransitionFrames int
}

// apiResponse is the union of every response body the service sends.
type apiResponse struct {
	Error     string `json:"error,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Image     *Image `json:"image,omitempty"`
	GIFURL    string `json:"gif_url,omitempty"`
	Filename  string `json:"filename,omitempty"`
}

// --- Sessions ---

// CreateSession starts a new server-side session and returns its ID.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	resp, err := c.postJSON(ctx, "create session", pathSession, nil)
	if err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", &RequestError{Op: "create session", Message: "response has no session_id"}
	}
	log.Info().Str("sessionId", resp.SessionID).Msg("Session created")
	return resp.SessionID, nil
}

// --- Images ---

// FetchImage asks the service to download the image at imageURL into the session.
func (c *Client) FetchImage(ctx context.Context, sessionID, imageURL string) (*Image, error) {
	body := map[string]string{
		"session_id": sessionID,
		"url":        imageURL,
	}
	resp, err := c.postJSON(ctx, "fetch image", pathFetchImage, body)
	if err != nil {
		return nil, err
	}
	return imageFrom("fetch image", resp)
}

// UploadImage sends one file to the session as a multipart form.
// filename is the name reported to the service, r supplies the contents.
func (c *Client) UploadImage(ctx context.Context, sessionID, filename string, r io.Reader) (*Image, error) {
	var buf bytes.Buffer
	contentType, err := writeUploadForm(&buf, sessionID, filename, r)
	if err != nil {
		return nil, &RequestError{Op: "upload image", Message: "build form", Err: err}
	}
	log.Debug().Str("filename", filename).Int("bytes", buf.Len()).Msg("Uploading image")

	resp, err := c.do(ctx, "upload image", http.MethodPost, pathUpload, contentType, &buf)
	if err != nil {
		return nil, err
	}
	return imageFrom("upload image", resp)
}

// RemoveImage deletes one image from the session.
func (c *Client) RemoveImage(ctx context.Context, sessionID, imageID string) error {
	body := map[string]string{
		"session_id": sessionID,
		"image_id":   imageID,
	}
	_, err := c.postJSON(ctx, "remove image", pathRemoveImage, body)
	return err
}

// --- Animations ---

// SetAnimation assigns an animation effect to one image.
func (c *Client) SetAnimation(ctx context.Context, sessionID, imageID, animation string) error {
	body := map[string]string{
		"session_id":     sessionID,
		"image_id":       imageID,
		"animation_type": animation,
	}
	_, err := c.postJSON(ctx, "set animation", pathSetAnimation, body)
	return err
}

// SetAnimationAll assigns an animation effect to every image in the session.
func (c *Client) SetAnimationAll(ctx context.Context, sessionID, animation string) error {
	body := map[string]string{
		"session_id":     sessionID,
		"animation_type": animation,
	}
	_, err := c.postJSON(ctx, "set animation (all)", pathSetAll, body)
	return err
}

// --- GIF ---

// CreateGIF asks the service to compose the session's images into a GIF.
func (c *Client) CreateGIF(ctx context.Context, sessionID string, opts GIFOptions) (*GIF, error) {
	body := map[string]any{
		"session_id":        sessionID,
		"duration":          opts.Duration,
		"loop":              opts.Loop,
		"transition_frames": opts.TransitionFrames,
	}
	resp, err := c.postJSON(ctx, "create gif", pathCreateGIF, body)
	if err != nil {
		return nil, err
	}
	if resp.GIFURL == "" {
		return nil, &RequestError{Op: "create gif", Message: "response has no gif_url"}
	}
	log.Info().Str("filename", resp.Filename).Msg("GIF created")
	return &GIF{URL: resp.GIFURL, Filename: resp.Filename}, nil
}

// --- Internal helpers ---

func imageFrom(op string, resp *apiResponse) (*Image, error) {
	if resp.Image == nil || resp.Image.ID == "" {
		return nil, &RequestError{Op: op, Message: "response has no image"}
	}
	log.Info().Str("imageId", resp.Image.ID).Str("filename", resp.Image.Filename).Msg("Image added")
	return resp.Image, nil
}

// postJSON sends body (nil for an empty request) as JSON.
func (c *Client) postJSON(ctx context.Context, op, path string, body any) (*apiResponse, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Op: op, Message: "encode request", Err: err}
		}
		r = bytes.NewReader(data)
	}
	return c.do(ctx, op, http.MethodPost, path, "application/json", r)
}

// do performs one request and decodes the JSON envelope. A populated
// "error" field wins over the HTTP status.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader) (*apiResponse, error) {
	startTime := time.Now()
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &RequestError{Op: op, Message: "build request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	log.Debug().Str("method", method).Str("path", path).Str("requestId", requestID).Msg("API request")

	httpResp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Int("statusCode", 0).Dur("duration", duration).Str("requestId", requestID).Err(err).Msg("API response")
		return nil, &RequestError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	log.Debug().Int("statusCode", httpResp.StatusCode).Dur("duration", duration).Str("requestId", requestID).Msg("API response")

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &RequestError{Op: op, StatusCode: httpResp.StatusCode, Message: "read response", Err: err}
	}

	ok := httpResp.StatusCode >= 200 && httpResp.StatusCode <= 299

	var resp apiResponse
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			if !ok {
				// Non-JSON error pages carry no error field.
				return nil, unexpectedStatus(op, httpResp.StatusCode)
			}
			return nil, &RequestError{
				Op:         op,
				StatusCode: httpResp.StatusCode,
				Message:    fmt.Sprintf("parse response (body: %s)", truncate(string(data), 200)),
				Err:        err,
			}
		}
	}

	if resp.Error != "" {
		log.Warn().Str("op", op).Int("statusCode", httpResp.StatusCode).Str("errorMessage", resp.Error).Msg("Service error")
		return nil, &RequestError{Op: op, StatusCode: httpResp.StatusCode, Message: resp.Error}
	}
	if !ok {
		return nil, unexpectedStatus(op, httpResp.StatusCode)
	}
	return &resp, nil
}

func unexpectedStatus(op string, code int) *RequestError {
	return &RequestError{Op: op, StatusCode: code, Message: fmt.Sprintf("unexpected status %d", code)}
}

// resolve turns a reference returned by the service into an absolute URL.
// Relative references are resolved against the base URL.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return ref, nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

// truncate returns the first n characters of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
