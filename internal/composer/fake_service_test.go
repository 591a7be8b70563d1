package composer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fpang/gif-maker/internal/gifapi"
)

// fakeService is an in-memory composition service. Failures are injected
// per path through failPaths; gifGate, when set, holds create-gif requests
// until it is closed; fixedID, when set, is returned for every new image.
type fakeService struct {
	mu        sync.Mutex
	nextID    int
	sessionID string
	images    []string
	calls     map[string]int
	failPaths map[string]string
	gifGate   chan struct{}
	fixedID   string
}

func newFakeService() *fakeService {
	return &fakeService{
		sessionID: "sess-1",
		calls:     make(map[string]int),
		failPaths: make(map[string]string),
	}
}

func (f *fakeService) fail(path, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPaths[path] = message
}

func (f *fakeService) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeService) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	failMsg, shouldFail := f.failPaths[r.URL.Path]
	gate := f.gifGate
	f.mu.Unlock()

	if shouldFail {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": failMsg})
		return
	}

	switch r.URL.Path {
	case "/api/session":
		json.NewEncoder(w).Encode(map[string]string{"session_id": f.sessionID})

	case "/api/fetch-image":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"image": f.addImage(lastSegment(body["url"]))})

	case "/api/upload":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, `{"error": "bad form"}`, http.StatusBadRequest)
			return
		}
		_, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "No file provided"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"image": f.addImage(hdr.Filename)})

	case "/api/remove-image", "/api/set-animation", "/api/set-all-animations":
		json.NewEncoder(w).Encode(map[string]bool{"success": true})

	case "/api/create-gif":
		if gate != nil {
			<-gate
		}
		json.NewEncoder(w).Encode(map[string]string{"gif_url": "/download/out.gif", "filename": "out.gif"})

	case "/download/out.gif":
		w.Write([]byte("GIF89a-bytes"))

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeService) addImage(name string) gifapi.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("img-%d", f.nextID)
	if f.fixedID != "" {
		id = f.fixedID
	}
	f.images = append(f.images, id)
	return gifapi.Image{ID: id, Filename: name, Thumbnail: "/thumbs/" + id + ".png"}
}

func lastSegment(u string) string {
	for i := len(u) - 1; i >= 0; i-- {
		if u[i] == '/' {
			return u[i+1:]
		}
	}
	return u
}

// recorder collects notifications and snapshots published by a controller.
type recorder struct {
	mu            sync.Mutex
	notifications []Notification
	snapshots     int
}

func (r *recorder) options(animations ...string) Options {
	return Options{
		Animations: animations,
		OnChange: func(Snapshot) {
			r.mu.Lock()
			r.snapshots++
			r.mu.Unlock()
		},
		OnNotify: func(n Notification) {
			r.mu.Lock()
			r.notifications = append(r.notifications, n)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notifications) == 0 {
		return Notification{}
	}
	return r.notifications[len(r.notifications)-1]
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

var testAnimations = []string{"None", "Instant", "Fade in", "Slide up", "Slide down", "Slide right", "Slide left", "Grow", "Shrink"}

// newTestController starts a fake service and a controller with a session.
func newTestController(t *testing.T) (*Controller, *fakeService, *recorder) {
	t.Helper()
	fake := newFakeService()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	rec := &recorder{}
	c := New(gifapi.NewClient(server.URL, 5*time.Second), rec.options(testAnimations...))
	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return c, fake, rec
}

// addN appends n images fetched by URL.
func addN(t *testing.T, c *Controller, n int) {
	t.Helper()
	for i := range n {
		if _, err := c.AddURL(t.Context(), fmt.Sprintf("http://x/img%d.png", i)); err != nil {
			t.Fatalf("AddURL() error = %v", err)
		}
	}
}
