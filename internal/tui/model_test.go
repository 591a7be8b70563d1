package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fpang/gif-maker/internal/composer"
	"github.com/fpang/gif-maker/internal/gifapi"
	"github.com/fpang/gif-maker/internal/view"
)

var testAnimations = []string{"None", "Instant", "Fade in", "Slide up", "Slide down", "Slide right", "Slide left", "Grow", "Shrink"}

// newTestServer serves just enough of the composition API for the UI.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	var (
		mu     sync.Mutex
		nextID int
	)
	thumb := testPNG(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-tui"})
	})
	mux.HandleFunc("/api/fetch-image", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		nextID++
		id := fmt.Sprintf("img-%d", nextID)
		mu.Unlock()
		name := body["url"][strings.LastIndex(body["url"], "/")+1:]
		json.NewEncoder(w).Encode(map[string]any{
			"image": map[string]string{"id": id, "filename": name, "thumbnail": "/thumbs/" + id + ".png"},
		})
	})
	for _, path := range []string{"/api/remove-image", "/api/set-animation", "/api/set-all-animations"} {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]bool{"success": true})
		})
	}
	mux.HandleFunc("/thumbs/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(thumb)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// newTestModel returns a model bound to a started controller. Controller
// callbacks are not wired; tests deliver stateChangedMsg themselves.
func newTestModel(t *testing.T) (Model, *composer.Controller) {
	t.Helper()
	server := newTestServer(t)
	client := gifapi.NewClient(server.URL, 5*time.Second)
	ctrl := composer.New(client, composer.Options{Animations: testAnimations})
	if err := ctrl.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	m := New(t.Context(), Config{
		Controller: ctrl,
		Thumbnails: client,
		Params:     composer.GIFParams{Duration: "200", Loop: "0", TransitionFrames: "10"},
		OutputDir:  t.TempDir(),
		Styles:     view.PlainStyles(),
		ArtWidth:   8,
	})
	return m, ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return nm, cmd
}

// exec runs cmd synchronously and feeds its message back into the model.
func exec(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	return update(t, m, cmd())
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func addEntries(t *testing.T, m Model, ctrl *composer.Controller, names ...string) Model {
	t.Helper()
	for _, name := range names {
		if _, err := ctrl.AddURL(t.Context(), "http://example.com/"+name); err != nil {
			t.Fatalf("AddURL(%s) error = %v", name, err)
		}
	}
	m, _ = update(t, m, stateChangedMsg{})
	return m
}

func TestAddURLFlow(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "u")
	if m.mode != modeURL {
		t.Fatalf("mode = %v, want modeURL", m.mode)
	}
	m, _ = press(t, m, "http://example.com/cat.png")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = exec(t, m, cmd)

	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want modeBrowse after success", m.mode)
	}
	if got := m.urlInput.Value(); got != "" {
		t.Errorf("url input = %q, want cleared", got)
	}
	if len(m.snap.Entries) != 1 || m.snap.Entries[0].Name != "cat.png" {
		t.Fatalf("entries = %+v, want [cat.png]", m.snap.Entries)
	}
	if m.snap.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.snap.Cursor)
	}
}

func TestAddURLInvalidKeepsInput(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "u")
	m, _ = press(t, m, "not a url")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = exec(t, m, cmd)

	if m.mode != modeURL {
		t.Errorf("mode = %v, want modeURL after failure", m.mode)
	}
	if got := m.urlInput.Value(); got != "not a url" {
		t.Errorf("url input = %q, want kept", got)
	}
	if len(m.snap.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(m.snap.Entries))
	}
}

func TestURLModeEscape(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "u")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want modeBrowse", m.mode)
	}
}

func TestNavigationKeys(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = addEntries(t, m, ctrl, "a.png", "b.png", "c.png")

	steps := []struct {
		key  tea.KeyMsg
		want int
	}{
		{tea.KeyMsg{Type: tea.KeyRight}, 1},
		{tea.KeyMsg{Type: tea.KeyRight}, 2},
		{tea.KeyMsg{Type: tea.KeyRight}, 0},
		{tea.KeyMsg{Type: tea.KeyLeft}, 2},
		{tea.KeyMsg{Type: tea.KeyUp}, 1},
		{tea.KeyMsg{Type: tea.KeyDown}, 2},
		{tea.KeyMsg{Type: tea.KeyDown}, 2},
	}
	for i, step := range steps {
		m, _ = update(t, m, step.key)
		if m.snap.Cursor != step.want {
			t.Fatalf("step %d (%s): cursor = %d, want %d", i, step.key, m.snap.Cursor, step.want)
		}
	}
}

func TestSelectorFollowsEntryAnimation(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = addEntries(t, m, ctrl, "a.png", "b.png")

	ctrl.Next()
	if err := ctrl.ApplyAnimation(t.Context(), "Grow"); err != nil {
		t.Fatalf("ApplyAnimation() error = %v", err)
	}
	ctrl.Prev()

	m, _ = update(t, m, stateChangedMsg{})
	if got := m.selectedAnimation(); got != "None" {
		t.Errorf("selector on a.png = %q, want None", got)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := m.selectedAnimation(); got != "Grow" {
		t.Errorf("selector on b.png = %q, want Grow", got)
	}
}

func TestApplySelectedAnimation(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = addEntries(t, m, ctrl, "a.png", "b.png")

	m, _ = press(t, m, "a")
	m, _ = press(t, m, "a")
	if got := m.selectedAnimation(); got != "Fade in" {
		t.Fatalf("selector = %q, want Fade in", got)
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = exec(t, m, cmd)

	got := []string{m.snap.Entries[0].Animation, m.snap.Entries[1].Animation}
	if got[0] != "Fade in" || got[1] != "None" {
		t.Errorf("animations = %v, want [Fade in None]", got)
	}

	m, _ = press(t, m, "A")
	m, cmd = press(t, m, "*")
	m, _ = exec(t, m, cmd)
	for _, e := range m.snap.Entries {
		if e.Animation != "Instant" {
			t.Errorf("%s animation = %q, want Instant", e.Name, e.Animation)
		}
	}
}

func TestRemoveKey(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = addEntries(t, m, ctrl, "a.png", "b.png")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})

	m, cmd := press(t, m, "x")
	m, _ = exec(t, m, cmd)

	if len(m.snap.Entries) != 1 || m.snap.Entries[0].Name != "a.png" {
		t.Fatalf("entries = %+v, want [a.png]", m.snap.Entries)
	}
	if m.snap.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.snap.Cursor)
	}
}

func TestDisabledControlsIssueNothing(t *testing.T) {
	m, _ := newTestModel(t)
	for _, k := range []string{"g", "x", "*", "d"} {
		if _, cmd := press(t, m, k); cmd != nil {
			t.Errorf("key %q on empty set returned a command", k)
		}
	}
	if _, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("enter on empty set returned a command")
	}
}

func TestSettingsForm(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "e")
	if m.mode != modeSettings {
		t.Fatalf("mode = %v, want modeSettings", m.mode)
	}
	for range 3 {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m, _ = press(t, m, "50")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = press(t, m, "3")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	want := composer.GIFParams{Duration: "50", Loop: "3", TransitionFrames: "10"}
	if got := m.Params(); got != want {
		t.Errorf("Params() = %+v, want %+v", got, want)
	}
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want modeBrowse", m.mode)
	}
}

func TestNoticeExpiry(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, noticeMsg{Kind: composer.NotifyError, Title: "Error", Message: "first"})
	if cmd == nil {
		t.Fatal("notice returned no expiry command")
	}
	m, _ = update(t, m, noticeMsg{Kind: composer.NotifySuccess, Title: "Success", Message: "second"})
	if !strings.Contains(m.View(), "Success: second") {
		t.Errorf("View() missing latest notice:\n%s", m.View())
	}

	// the first notice's timer must not clear the second
	m, _ = update(t, m, noticeExpiredMsg{seq: 1})
	if m.notice == nil {
		t.Fatal("stale expiry cleared the current notice")
	}
	m, _ = update(t, m, noticeExpiredMsg{seq: 2})
	if m.notice != nil {
		t.Error("notice not cleared after expiry")
	}
}

func TestThumbnailLoads(t *testing.T) {
	m, ctrl := newTestModel(t)
	if _, err := ctrl.AddURL(t.Context(), "http://example.com/a.png"); err != nil {
		t.Fatalf("AddURL() error = %v", err)
	}

	m, cmd := update(t, m, stateChangedMsg{})
	if !m.loading["img-1"] {
		t.Fatal("thumbnail load not started")
	}
	m, _ = exec(t, m, cmd)

	art := m.art["img-1"]
	if art == "" || !strings.Contains(art, "▀") {
		t.Fatalf("art = %q, want half-block rendering", art)
	}
	if m.loading["img-1"] {
		t.Error("loading flag still set")
	}

	// a second refresh reuses the cached art
	if _, cmd := update(t, m, stateChangedMsg{}); cmd != nil {
		t.Error("refresh re-requested a cached thumbnail")
	}
}

func TestViewShowsState(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = addEntries(t, m, ctrl, "a.png", "b.png")

	out := m.View()
	for _, want := range []string{"GIF Maker", "session sess-tui", "> 1. a.png [None]", "1/2", "duration 200ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q:\n%s", want, out)
		}
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	if m.View() != "" {
		t.Error("View() not empty after quit")
	}
}

func TestCtrlCQuitsFromInputModes(t *testing.T) {
	for _, open := range []string{"u", "e"} {
		m, _ := newTestModel(t)
		m, _ = press(t, m, open)
		if m.mode == modeBrowse {
			t.Fatalf("key %q did not open an input mode", open)
		}
		m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil {
			t.Fatalf("ctrl+c after %q returned no command", open)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("ctrl+c after %q did not quit", open)
		}
		if !m.quitting {
			t.Errorf("ctrl+c after %q: quitting not set", open)
		}
	}
}

func TestQTypesIntoURLField(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "u")
	m, _ = press(t, m, "q")
	if m.mode != modeURL || m.urlInput.Value() != "q" {
		t.Errorf("mode = %v, input = %q; want q typed into the URL field", m.mode, m.urlInput.Value())
	}
}
