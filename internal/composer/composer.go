// Package composer implements the session controller of the GIF maker.
//
// A Controller mirrors one server-side session: the ordered working set of
// images, a cursor selecting the image being previewed, and a busy flag that
// serialises GIF creation. It does no image work itself. Each operation
// checks its local preconditions, issues exactly one request per image to the
// composition service, and only on success updates the mirror and publishes
// a new Snapshot. A failed operation leaves the mirror untouched.
//
// All methods are safe for concurrent use. The controller's mutex is never
// held across a network call, so a batch of uploads can be in flight while
// the user keeps navigating.
package composer

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/fpang/gif-maker/internal/gifapi"
	"github.com/rs/zerolog/log"
)

// Unselected is the cursor value of an empty working set.
const Unselected = -1

// DefaultAnimation is the animation every new entry starts with.
const DefaultAnimation = "None"

// Service is the subset of the composition service the controller needs.
// *gifapi.Client implements it.
type Service interface {
	CreateSession(ctx context.Context) (string, error)
	FetchImage(ctx context.Context, sessionID, imageURL string) (*gifapi.Image, error)
	UploadImage(ctx context.Context, sessionID, filename string, r io.Reader) (*gifapi.Image, error)
	RemoveImage(ctx context.Context, sessionID, imageID string) error
	SetAnimation(ctx context.Context, sessionID, imageID, animation string) error
	SetAnimationAll(ctx context.Context, sessionID, animation string) error
	CreateGIF(ctx context.Context, sessionID string, opts gifapi.GIFOptions) (*gifapi.GIF, error)
	Download(ctx context.Context, ref string, w io.Writer) (int64, error)
}

// Entry is one image of the working set.
type Entry struct {
	ID        string
	Name      string
	Thumbnail string
	Animation string
}

// GIFResult is the reference to a GIF the service composed.
type GIFResult struct {
	URL      string
	Filename string
}

// Progress counts finished requests of the uploads currently in flight.
type Progress struct {
	Done  int
	Total int
}

// Active reports whether any upload is still outstanding.
func (p Progress) Active() bool {
	return p.Done < p.Total
}

// Snapshot is an immutable copy of the controller state, handed to renderers.
type Snapshot struct {
	SessionID   string
	Entries     []Entry
	Cursor      int
	CreatingGIF bool
	Pending     int // outstanding requests of any kind
	Uploads     Progress
	LastGIF     *GIFResult
}

// Current returns the entry under the cursor.
func (s Snapshot) Current() (Entry, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Entries) {
		return Entry{}, false
	}
	return s.Entries[s.Cursor], true
}

// HasSelection reports whether the cursor references an entry.
func (s Snapshot) HasSelection() bool {
	_, ok := s.Current()
	return ok
}

// Busy reports whether any request is outstanding.
func (s Snapshot) Busy() bool {
	return s.Pending > 0
}

// Options configures a Controller. All fields are optional.
type Options struct {
	// Animations is the selectable vocabulary. When set, animation
	// assignments outside it are rejected locally.
	Animations []string

	// OnChange is called with a fresh snapshot after every state change.
	OnChange func(Snapshot)

	// OnNotify receives the user-facing success and error messages.
	OnNotify func(Notification)
}

// Controller is the session view controller.
type Controller struct {
	svc  Service
	opts Options

	mu          sync.Mutex
	sessionID   string
	entries     []Entry
	cursor      int
	creatingGIF bool
	pending     int
	uploads     Progress
	lastGIF     *GIFResult
}

// New creates a controller with an empty working set and no session.
// Call Start to obtain a session.
func New(svc Service, opts Options) *Controller {
	return &Controller{
		svc:    svc,
		opts:   opts,
		cursor: Unselected,
	}
}

// Animations returns the configured animation vocabulary.
func (c *Controller) Animations() []string {
	return slices.Clone(c.opts.Animations)
}

// Start creates the server-side session. On failure the error is reported
// and the controller stays usable without a session; operations that need
// one are then rejected locally.
func (c *Controller) Start(ctx context.Context) error {
	c.begin()
	id, err := c.svc.CreateSession(ctx)
	c.end()
	if err != nil {
		c.notifyError("Failed to create session", err)
		return err
	}

	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
	log.Info().Str("sessionId", id).Msg("Composer session started")
	c.changed()
	return nil
}

// SessionID returns the current session identifier, empty if none.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		SessionID:   c.sessionID,
		Entries:     slices.Clone(c.entries),
		Cursor:      c.cursor,
		CreatingGIF: c.creatingGIF,
		Pending:     c.pending,
		Uploads:     c.uploads,
	}
	if c.lastGIF != nil {
		g := *c.lastGIF
		s.LastGIF = &g
	}
	return s
}

// changed publishes a snapshot to OnChange. Must not be called with mu held.
func (c *Controller) changed() {
	if c.opts.OnChange == nil {
		return
	}
	c.opts.OnChange(c.Snapshot())
}

// begin and end bracket every request so renderers can show a busy indicator.
func (c *Controller) begin() {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) end() {
	c.mu.Lock()
	c.pending--
	c.mu.Unlock()
	c.changed()
}

// requireSession returns the session ID or a ValidationError.
func (c *Controller) requireSession() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == "" {
		return "", &ValidationError{Message: "No active session"}
	}
	return c.sessionID, nil
}

// indexOfLocked returns the position of the entry with the given ID, or -1.
func (c *Controller) indexOfLocked(id string) int {
	return slices.IndexFunc(c.entries, func(e Entry) bool { return e.ID == id })
}
