package composer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fpang/gif-maker/internal/gifapi"
	"github.com/rs/zerolog/log"
)

// GIFParams holds the encoding parameters as the user typed them.
type GIFParams struct {
	Duration         string // frame duration in ms, > 0
	Loop             string // loop count, 0 = forever
	TransitionFrames string // frames generated between images, >= 0
}

// ParamsFrom formats numeric options as GIFParams.
func ParamsFrom(opts gifapi.GIFOptions) GIFParams {
	return GIFParams{
		Duration:         strconv.Itoa(opts.Duration),
		Loop:             strconv.Itoa(opts.Loop),
		TransitionFrames: strconv.Itoa(opts.TransitionFrames),
	}
}

// Parse validates the parameters in order (duration, loop, transition
// frames) and stops at the first failure.
func (p GIFParams) Parse() (gifapi.GIFOptions, error) {
	var opts gifapi.GIFOptions
	var err error

	if opts.Duration, err = parseWhole("Duration", p.Duration); err != nil {
		return opts, err
	}
	if opts.Duration <= 0 {
		return opts, &ValidationError{Message: "Duration must be greater than 0"}
	}

	if opts.Loop, err = parseWhole("Loop count", p.Loop); err != nil {
		return opts, err
	}
	if opts.Loop < 0 {
		return opts, &ValidationError{Message: "Loop count must be 0 or greater"}
	}

	if opts.TransitionFrames, err = parseWhole("Transition frames", p.TransitionFrames); err != nil {
		return opts, err
	}
	if opts.TransitionFrames < 0 {
		return opts, &ValidationError{Message: "Transition frames must be 0 or greater"}
	}
	return opts, nil
}

func parseWhole(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ValidationError{Message: field + " must be a whole number"}
	}
	return n, nil
}

// CreateGIF asks the service to compose the working set into a GIF. Only one
// request may be outstanding: while one is, CreateGIF returns
// ErrGIFInProgress without sending anything.
func (c *Controller) CreateGIF(ctx context.Context, params GIFParams) (GIFResult, error) {
	c.mu.Lock()
	if c.creatingGIF {
		c.mu.Unlock()
		return GIFResult{}, ErrGIFInProgress
	}
	if len(c.entries) == 0 {
		c.mu.Unlock()
		return GIFResult{}, c.reject(&ValidationError{Message: "No images to create GIF"})
	}
	if c.sessionID == "" {
		c.mu.Unlock()
		return GIFResult{}, c.reject(&ValidationError{Message: "No active session"})
	}
	opts, err := params.Parse()
	if err != nil {
		c.mu.Unlock()
		return GIFResult{}, c.reject(err)
	}
	sessionID := c.sessionID
	frames := len(c.entries)
	c.creatingGIF = true
	c.mu.Unlock()

	log.Info().
		Int("images", frames).
		Int("duration", opts.Duration).
		Int("loop", opts.Loop).
		Int("transitionFrames", opts.TransitionFrames).
		Msg("Requesting GIF")

	c.begin()
	gif, err := c.svc.CreateGIF(ctx, sessionID, opts)

	c.mu.Lock()
	c.creatingGIF = false
	if err == nil {
		c.lastGIF = &GIFResult{URL: gif.URL, Filename: gif.Filename}
	}
	c.mu.Unlock()
	c.end()

	if err != nil {
		c.notifyError("Failed to create GIF", err)
		return GIFResult{}, err
	}

	result := GIFResult{URL: gif.URL, Filename: gif.Filename}
	c.notifySuccess(fmt.Sprintf("GIF created: %s", result.Filename))
	return result, nil
}

// LastGIF returns the most recently created GIF, if any.
func (c *Controller) LastGIF() (GIFResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastGIF == nil {
		return GIFResult{}, false
	}
	return *c.lastGIF, true
}

// DownloadGIF copies the GIF behind result into w.
func (c *Controller) DownloadGIF(ctx context.Context, result GIFResult, w io.Writer) (int64, error) {
	c.begin()
	defer c.end()
	return c.svc.Download(ctx, result.URL, w)
}

// SaveGIF downloads result into dir under its service filename and returns
// the written path. A partial file is removed on failure.
func (c *Controller) SaveGIF(ctx context.Context, result GIFResult, dir string) (string, error) {
	name := filepath.Base(result.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "output.gif"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.notifyError("Failed to save GIF", err)
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		c.notifyError("Failed to save GIF", err)
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	n, err := c.DownloadGIF(ctx, result, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		c.notifyError("Failed to save GIF", err)
		return "", err
	}

	log.Info().Str("path", path).Int64("bytes", n).Msg("GIF saved")
	c.notifySuccess(fmt.Sprintf("Saved %s", path))
	return path, nil
}
