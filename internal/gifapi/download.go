package gifapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Download copies the resource at ref into w and returns the number of bytes
// written. ref may be absolute, relative to the service, or a base64 data URL.
func (c *Client) Download(ctx context.Context, ref string, w io.Writer) (int64, error) {
	if strings.HasPrefix(ref, "data:") {
		data, _, err := DecodeDataURL(ref)
		if err != nil {
			return 0, &RequestError{Op: "download", Message: "decode data URL", Err: err}
		}
		n, err := w.Write(data)
		return int64(n), err
	}

	target, err := c.resolve(ref)
	if err != nil {
		return 0, &RequestError{Op: "download", Message: "invalid reference", Err: err}
	}

	startTime := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, &RequestError{Op: "download", Message: "build request", Err: err}
	}
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &RequestError{Op: "download", Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return 0, unexpectedStatus("download", httpResp.StatusCode)
	}

	n, err := io.Copy(w, httpResp.Body)
	if err != nil {
		return n, &RequestError{Op: "download", StatusCode: httpResp.StatusCode, Message: "read body", Err: err}
	}
	log.Debug().Str("url", target).Int64("bytes", n).Dur("duration", time.Since(startTime)).Msg("Download complete")
	return n, nil
}

// Fetch returns the bytes behind ref. It is used for thumbnails, which are
// small enough to hold in memory.
func (c *Client) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.Download(ctx, ref, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeDataURL decodes a "data:<mime>[;base64],<payload>" URL and returns
// the payload and its media type.
func DecodeDataURL(ref string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("data URL has no payload")
	}

	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain"
	}
	if !isBase64 {
		return []byte(payload), mediaType, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64 payload: %w", err)
	}
	return data, mediaType, nil
}
