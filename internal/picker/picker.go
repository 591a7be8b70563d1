// Package picker opens the platform's native file dialog to choose images
// for upload.
package picker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ImagePatterns are the file patterns offered by the dialog.
var ImagePatterns = []string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.bmp", "*.tiff", "*.webp"}

// Picker chooses files. It returns an empty slice, not an error, when the
// user cancels.
type Picker interface {
	PickImages() ([]string, error)
}

// Native uses zenity's native dialogs.
type Native struct {
	// StartDir is where the dialog opens; the home directory when empty.
	StartDir string
}

// PickImages shows a multi-select dialog filtered to image files.
func (n Native) PickImages() ([]string, error) {
	start := n.StartDir
	if start == "" {
		if home, err := os.UserHomeDir(); err == nil {
			start = home
		}
	}

	selected, err := zenity.SelectFileMultiple(
		zenity.Title("Select images"),
		zenity.Filename(withTrailingSeparator(start)),
		zenity.FileFilters{
			{
				Name:     "Image files",
				Patterns: ImagePatterns,
			},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			log.Debug().Msg("File picker canceled")
			return []string{}, nil
		}
		log.Error().Err(err).Msg("File picker failed")
		return nil, fmt.Errorf("file picker: %w", err)
	}

	log.Info().Int("count", len(selected)).Msg("Files picked via native dialog")
	return selected, nil
}

// Args is a Picker over a fixed list, used when files are named on the
// command line or typed into the UI. Patterns are expanded with
// filepath.Glob; entries that are not images are dropped.
type Args []string

// PickImages expands the patterns and filters to image extensions.
func (a Args) PickImages() ([]string, error) {
	var out []string
	for _, pattern := range a {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if matches == nil {
			// Not a glob or nothing matched: keep it so the upload reports it.
			matches = []string{pattern}
		}
		for _, m := range matches {
			if IsImage(m) {
				out = append(out, m)
			} else {
				log.Warn().Str("path", m).Msg("Skipping non-image file")
			}
		}
	}
	return out, nil
}

// IsImage reports whether path has one of the ImagePatterns extensions.
func IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, p := range ImagePatterns {
		if strings.TrimPrefix(p, "*") == ext {
			return true
		}
	}
	return false
}

func withTrailingSeparator(dir string) string {
	if dir == "" || strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}
