package composer

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/gif-maker/internal/gifapi"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// AddURL asks the service to fetch the image at rawURL and appends it to the
// working set. The caller clears its input field when err is nil.
func (c *Controller) AddURL(ctx context.Context, rawURL string) (Entry, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Entry{}, c.reject(&ValidationError{Message: "Please enter a URL"})
	}
	if u, err := url.Parse(rawURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Entry{}, c.reject(&ValidationError{Message: "Invalid URL format"})
	}
	sessionID, err := c.requireSession()
	if err != nil {
		return Entry{}, c.reject(err)
	}

	c.begin()
	img, err := c.svc.FetchImage(ctx, sessionID, rawURL)
	c.end()
	if err != nil {
		c.notifyError("Failed to fetch image", err)
		return Entry{}, err
	}

	entry, err := c.appendImage(img)
	if err != nil {
		c.notifyError("Failed to fetch image", err)
		return Entry{}, err
	}
	c.notifySuccess(fmt.Sprintf("Added %s", entry.Name))
	return entry, nil
}

// FileError names a file whose upload failed.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", filepath.Base(e.Path), e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// UploadSummary is the outcome of one UploadFiles batch. Added is in the
// order responses arrived, which need not match the order of paths.
type UploadSummary struct {
	Added  []Entry
	Failed []FileError
}

// UploadFiles uploads every file concurrently. Each success is appended as
// soon as its response arrives; each failure is reported naming the file.
// When the whole batch has finished, one summary message is shown if at least
// one upload succeeded. An empty path list is a no-op.
func (c *Controller) UploadFiles(ctx context.Context, paths []string) (UploadSummary, error) {
	if len(paths) == 0 {
		return UploadSummary{}, nil
	}
	sessionID, err := c.requireSession()
	if err != nil {
		return UploadSummary{}, c.reject(err)
	}

	c.mu.Lock()
	c.uploads.Total += len(paths)
	c.mu.Unlock()
	log.Info().Int("count", len(paths)).Msg("Starting upload batch")

	results := make(chan uploadResult, len(paths))
	var g errgroup.Group
	for _, path := range paths {
		g.Go(func() error {
			entry, err := c.uploadOne(ctx, sessionID, path)
			results <- uploadResult{path: path, entry: entry, err: err}
			return nil
		})
	}
	g.Wait()
	close(results)

	var summary UploadSummary
	for r := range results {
		if r.err != nil {
			summary.Failed = append(summary.Failed, FileError{Path: r.path, Err: r.err})
			continue
		}
		summary.Added = append(summary.Added, r.entry)
	}

	log.Info().
		Int("succeeded", len(summary.Added)).
		Int("failed", len(summary.Failed)).
		Msg("Upload batch complete")

	if len(summary.Added) > 0 {
		c.notifySuccess(fmt.Sprintf("Uploaded %d image(s)", len(summary.Added)))
	}
	return summary, nil
}

type uploadResult struct {
	path  string
	entry Entry
	err   error
}

// uploadOne sends one file and appends the result. It counts towards the
// batch progress whether it succeeds or fails.
func (c *Controller) uploadOne(ctx context.Context, sessionID, path string) (Entry, error) {
	defer c.uploadFinished()

	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		c.notifyError(fmt.Sprintf("Failed to upload %s", name), err)
		return Entry{}, err
	}
	defer f.Close()

	c.begin()
	img, err := c.svc.UploadImage(ctx, sessionID, name, f)
	c.end()
	if err != nil {
		c.notifyError(fmt.Sprintf("Failed to upload %s", name), err)
		return Entry{}, err
	}

	entry, err := c.appendImage(img)
	if err != nil {
		c.notifyError(fmt.Sprintf("Failed to upload %s", name), err)
		return Entry{}, err
	}
	return entry, nil
}

func (c *Controller) uploadFinished() {
	c.mu.Lock()
	c.uploads.Done++
	if c.uploads.Done >= c.uploads.Total {
		c.uploads = Progress{}
	}
	c.mu.Unlock()
	c.changed()
}

// appendImage adds a service image to the end of the working set. The cursor
// moves to it only if the set was empty.
func (c *Controller) appendImage(img *gifapi.Image) (Entry, error) {
	entry := Entry{
		ID:        img.ID,
		Name:      img.Filename,
		Thumbnail: img.Thumbnail,
		Animation: DefaultAnimation,
	}

	c.mu.Lock()
	if c.indexOfLocked(entry.ID) >= 0 {
		c.mu.Unlock()
		return Entry{}, fmt.Errorf("service returned duplicate image id %s", entry.ID)
	}
	c.entries = append(c.entries, entry)
	if len(c.entries) == 1 {
		c.cursor = 0
	}
	c.mu.Unlock()

	c.changed()
	return entry, nil
}

// RemoveSelected removes the entry under the cursor. Afterwards the cursor is
// clamped to the last entry, or unselected if the set is empty.
func (c *Controller) RemoveSelected(ctx context.Context) error {
	sessionID, err := c.requireSession()
	if err != nil {
		return c.reject(err)
	}
	c.mu.Lock()
	if c.cursor < 0 || c.cursor >= len(c.entries) {
		c.mu.Unlock()
		return c.reject(&ValidationError{Message: "No image selected"})
	}
	target := c.entries[c.cursor]
	c.mu.Unlock()

	c.begin()
	err = c.svc.RemoveImage(ctx, sessionID, target.ID)
	c.end()
	if err != nil {
		c.notifyError("Failed to remove image", err)
		return err
	}

	c.mu.Lock()
	if idx := c.indexOfLocked(target.ID); idx >= 0 {
		c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
		switch {
		case len(c.entries) == 0:
			c.cursor = Unselected
		default:
			// Keep the cursor on the same entry if one before it went away.
			if idx < c.cursor {
				c.cursor--
			}
			c.cursor = min(c.cursor, len(c.entries)-1)
		}
	}
	c.mu.Unlock()

	log.Debug().Str("imageId", target.ID).Msg("Image removed")
	c.changed()
	return nil
}
