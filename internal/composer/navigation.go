package composer

import "fmt"

// Select moves the cursor to index i.
func (c *Controller) Select(i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.entries) {
		n := len(c.entries)
		c.mu.Unlock()
		return &ValidationError{Message: fmt.Sprintf("No image at position %d of %d", i+1, n)}
	}
	c.cursor = i
	c.mu.Unlock()
	c.changed()
	return nil
}

// Next advances the cursor, wrapping from the last entry to the first.
// It does nothing with fewer than two entries.
func (c *Controller) Next() {
	c.step(1)
}

// Prev moves the cursor back, wrapping from the first entry to the last.
// It does nothing with fewer than two entries.
func (c *Controller) Prev() {
	c.step(-1)
}

func (c *Controller) step(delta int) {
	c.mu.Lock()
	n := len(c.entries)
	if n <= 1 {
		c.mu.Unlock()
		return
	}
	c.cursor = ((c.cursor+delta)%n + n) % n
	c.mu.Unlock()
	c.changed()
}
