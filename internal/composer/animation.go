package composer

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

// ApplyAnimation assigns animation to the entry under the cursor.
func (c *Controller) ApplyAnimation(ctx context.Context, animation string) error {
	if err := c.checkAnimation(animation); err != nil {
		return c.reject(err)
	}
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
	position := c.cursor + 1
	c.mu.Unlock()

	c.begin()
	err = c.svc.SetAnimation(ctx, sessionID, target.ID, animation)
	c.end()
	if err != nil {
		c.notifyError("Failed to apply animation", err)
		return err
	}

	c.mu.Lock()
	if idx := c.indexOfLocked(target.ID); idx >= 0 {
		c.entries[idx].Animation = animation
	}
	c.mu.Unlock()

	log.Debug().Str("imageId", target.ID).Str("animation", animation).Msg("Animation applied")
	c.changed()
	c.notifySuccess(fmt.Sprintf("Applied '%s' to image %d", animation, position))
	return nil
}

// ApplyAnimationAll assigns animation to every entry, whatever it had before.
func (c *Controller) ApplyAnimationAll(ctx context.Context, animation string) error {
	if err := c.checkAnimation(animation); err != nil {
		return c.reject(err)
	}
	sessionID, err := c.requireSession()
	if err != nil {
		return c.reject(err)
	}
	c.mu.Lock()
	empty := len(c.entries) == 0
	c.mu.Unlock()
	if empty {
		return c.reject(&ValidationError{Message: "No images loaded"})
	}

	c.begin()
	err = c.svc.SetAnimationAll(ctx, sessionID, animation)
	c.end()
	if err != nil {
		c.notifyError("Failed to apply animation", err)
		return err
	}

	c.mu.Lock()
	for i := range c.entries {
		c.entries[i].Animation = animation
	}
	c.mu.Unlock()

	log.Debug().Str("animation", animation).Msg("Animation applied to all images")
	c.changed()
	c.notifySuccess(fmt.Sprintf("Applied '%s' to all images", animation))
	return nil
}

func (c *Controller) checkAnimation(animation string) error {
	if animation == "" {
		return &ValidationError{Message: "No animation selected"}
	}
	if len(c.opts.Animations) > 0 && !slices.Contains(c.opts.Animations, animation) {
		return &ValidationError{Message: fmt.Sprintf("Unknown animation %q", animation)}
	}
	return nil
}
