// Package tui is the interactive terminal front end of the GIF maker. It
// renders composer snapshots with the view package and turns key presses
// into controller operations, each run as a tea.Cmd off the event loop.
package tui

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fpang/gif-maker/internal/composer"
	"github.com/fpang/gif-maker/internal/picker"
	"github.com/fpang/gif-maker/internal/view"
	"github.com/rs/zerolog/log"
)

// NoticeTTL is how long a notification stays on screen.
const NoticeTTL = 4 * time.Second

// ThumbnailSource loads preview images referenced by the service.
// *gifapi.Client implements it.
type ThumbnailSource interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type mode int

const (
	modeBrowse mode = iota
	modeURL
	modeSettings
)

// Settings field order.
const (
	fieldDuration = iota
	fieldLoop
	fieldTransition
	fieldCount
)

// Messages handled by Update.
type stateChangedMsg struct{}

type noticeMsg composer.Notification

type noticeExpiredMsg struct{ seq int }

type urlDoneMsg struct{ err error }

type opDoneMsg struct {
	op  string
	err error
}

type artMsg struct {
	id  string
	art string
	err error
}

// Config wires a Model to its collaborators.
type Config struct {
	Controller *composer.Controller
	Thumbnails ThumbnailSource
	Picker     picker.Picker
	Params     composer.GIFParams
	OutputDir  string
	Styles     view.Styles
	ArtWidth   int
}

// Model is the bubbletea model of the interactive UI.
type Model struct {
	ctx    context.Context
	ctrl   *composer.Controller
	thumbs ThumbnailSource
	picker picker.Picker
	outDir string
	styles view.Styles

	snap       composer.Snapshot
	animations []string
	animIdx    int
	syncedFor  string // entry id the selector was last synced to

	mode      mode
	urlInput  textinput.Model
	settings  [fieldCount]textinput.Model
	focus     int
	spinner   spinner.Model
	notice    *composer.Notification
	noticeSeq int

	artWidth int
	art      map[string]string
	loading  map[string]bool
	width    int
	height   int
	quitting bool
}

// New creates the model. ctx bounds every request the UI issues.
func New(ctx context.Context, cfg Config) Model {
	url := textinput.New()
	url.Placeholder = "https://example.com/image.png"
	url.Prompt = "URL: "
	url.CharLimit = 2048

	var settings [fieldCount]textinput.Model
	labels := [fieldCount]string{"Duration (ms): ", "Loop (0 = forever): ", "Transition frames: "}
	values := [fieldCount]string{cfg.Params.Duration, cfg.Params.Loop, cfg.Params.TransitionFrames}
	for i := range settings {
		ti := textinput.New()
		ti.Prompt = labels[i]
		ti.CharLimit = 8
		ti.SetValue(values[i])
		settings[i] = ti
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	width := cfg.ArtWidth
	if width <= 0 {
		width = view.DefaultArtWidth
	}

	animations := cfg.Controller.Animations()
	if len(animations) == 0 {
		animations = []string{composer.DefaultAnimation}
	}

	return Model{
		ctx:        ctx,
		ctrl:       cfg.Controller,
		thumbs:     cfg.Thumbnails,
		picker:     cfg.Picker,
		outDir:     cfg.OutputDir,
		styles:     cfg.Styles,
		snap:       cfg.Controller.Snapshot(),
		animations: animations,
		urlInput:   url,
		settings:   settings,
		spinner:    sp,
		artWidth:   width,
		art:        make(map[string]string),
		loading:    make(map[string]bool),
	}
}

// Init starts the session and the spinner.
func (m Model) Init() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		// failures are reported through the notification hook
		ctrl.Start(ctx)
		return stateChangedMsg{}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case stateChangedMsg:
		cmd := m.refresh()
		return m, cmd

	case noticeMsg:
		n := composer.Notification(msg)
		m.notice = &n
		m.noticeSeq++
		seq := m.noticeSeq
		return m, tea.Tick(NoticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg{seq: seq} })

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case urlDoneMsg:
		if msg.err == nil {
			m.urlInput.Reset()
			m.urlInput.Blur()
			m.mode = modeBrowse
		}
		cmd := m.refresh()
		return m, cmd

	case opDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, composer.ErrGIFInProgress) {
			log.Debug().Str("op", msg.op).Err(msg.err).Msg("Operation failed")
		}
		cmd := m.refresh()
		return m, cmd

	case artMsg:
		delete(m.loading, msg.id)
		if msg.err != nil {
			log.Warn().Str("imageId", msg.id).Err(msg.err).Msg("Failed to load thumbnail")
			m.art[msg.id] = m.styles.Muted.Render("(no preview)")
			return m, nil
		}
		m.art[msg.id] = msg.art
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// ctrl+c quits from every mode; q only while browsing.
		if key.Matches(msg, keys.Interrupt) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeURL:
			return m.updateURL(msg)
		case modeSettings:
			return m.updateSettings(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	controls := view.Controls(m.snap)
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.AddURL):
		m.mode = modeURL
		cmd := m.urlInput.Focus()
		return m, cmd

	case key.Matches(msg, keys.Open):
		return m, m.openFiles()

	case key.Matches(msg, keys.Prev):
		m.ctrl.Prev()
		cmd := m.refresh()
		return m, cmd

	case key.Matches(msg, keys.Next):
		m.ctrl.Next()
		cmd := m.refresh()
		return m, cmd

	case key.Matches(msg, keys.Up):
		if m.snap.Cursor > 0 {
			m.ctrl.Select(m.snap.Cursor - 1)
		}
		cmd := m.refresh()
		return m, cmd

	case key.Matches(msg, keys.Down):
		if m.snap.HasSelection() && m.snap.Cursor < len(m.snap.Entries)-1 {
			m.ctrl.Select(m.snap.Cursor + 1)
		}
		cmd := m.refresh()
		return m, cmd

	case key.Matches(msg, keys.AnimNext):
		m.animIdx = (m.animIdx + 1) % len(m.animations)
		return m, nil

	case key.Matches(msg, keys.AnimPrev):
		m.animIdx = (m.animIdx - 1 + len(m.animations)) % len(m.animations)
		return m, nil

	case key.Matches(msg, keys.Apply):
		if !controls.ApplySelected {
			return m, nil
		}
		anim := m.selectedAnimation()
		return m, m.run("apply", func(ctx context.Context) error {
			return m.ctrl.ApplyAnimation(ctx, anim)
		})

	case key.Matches(msg, keys.ApplyAll):
		if !controls.ApplyAll {
			return m, nil
		}
		anim := m.selectedAnimation()
		return m, m.run("apply-all", func(ctx context.Context) error {
			return m.ctrl.ApplyAnimationAll(ctx, anim)
		})

	case key.Matches(msg, keys.Remove):
		if !controls.Remove {
			return m, nil
		}
		return m, m.run("remove", m.ctrl.RemoveSelected)

	case key.Matches(msg, keys.Settings):
		m.mode = modeSettings
		m.focus = fieldDuration
		cmd := m.settings[m.focus].Focus()
		return m, cmd

	case key.Matches(msg, keys.CreateGIF):
		if !controls.CreateGIF {
			return m, nil
		}
		params := m.Params()
		return m, m.run("create-gif", func(ctx context.Context) error {
			_, err := m.ctrl.CreateGIF(ctx, params)
			return err
		})

	case key.Matches(msg, keys.Download):
		result, ok := m.ctrl.LastGIF()
		if !ok {
			return m, nil
		}
		dir := m.outDir
		return m, m.run("download", func(ctx context.Context) error {
			_, err := m.ctrl.SaveGIF(ctx, result, dir)
			return err
		})
	}
	return m, nil
}

func (m Model) updateURL(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.urlInput.Blur()
		m.mode = modeBrowse
		return m, nil
	case key.Matches(msg, keys.Submit):
		raw := m.urlInput.Value()
		ctrl, ctx := m.ctrl, m.ctx
		return m, func() tea.Msg {
			_, err := ctrl.AddURL(ctx, raw)
			return urlDoneMsg{err: err}
		}
	}
	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel), key.Matches(msg, keys.Submit):
		m.settings[m.focus].Blur()
		m.mode = modeBrowse
		return m, nil
	case key.Matches(msg, keys.FocusNext):
		cmd := m.moveFocus(1)
		return m, cmd
	case key.Matches(msg, keys.FocusPrev):
		cmd := m.moveFocus(-1)
		return m, cmd
	}
	var cmd tea.Cmd
	m.settings[m.focus], cmd = m.settings[m.focus].Update(msg)
	return m, cmd
}

// moveFocus is called on a copy owned by Update, so mutating m is safe.
func (m *Model) moveFocus(delta int) tea.Cmd {
	m.settings[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	return m.settings[m.focus].Focus()
}

// Params returns the GIF parameters as currently typed in the settings form.
func (m Model) Params() composer.GIFParams {
	return composer.GIFParams{
		Duration:         m.settings[fieldDuration].Value(),
		Loop:             m.settings[fieldLoop].Value(),
		TransitionFrames: m.settings[fieldTransition].Value(),
	}
}

func (m Model) selectedAnimation() string {
	return m.animations[m.animIdx]
}

// refresh pulls the latest snapshot, resyncs the animation selector when the
// cursor moved to a different entry and starts loading its thumbnail.
func (m *Model) refresh() tea.Cmd {
	m.snap = m.ctrl.Snapshot()

	cur, ok := m.snap.Current()
	if !ok {
		m.syncedFor = ""
		return nil
	}
	if cur.ID != m.syncedFor {
		m.syncedFor = cur.ID
		if i := slices.Index(m.animations, cur.Animation); i >= 0 {
			m.animIdx = i
		}
	}
	if _, done := m.art[cur.ID]; done || m.loading[cur.ID] || m.thumbs == nil || cur.Thumbnail == "" {
		return nil
	}
	m.loading[cur.ID] = true
	return m.loadArt(cur)
}

func (m Model) loadArt(e composer.Entry) tea.Cmd {
	thumbs, ctx, width := m.thumbs, m.ctx, m.artWidth
	return func() tea.Msg {
		data, err := thumbs.Fetch(ctx, e.Thumbnail)
		if err != nil {
			return artMsg{id: e.ID, err: err}
		}
		img, err := view.DecodeThumbnail(data)
		if err != nil {
			return artMsg{id: e.ID, err: err}
		}
		return artMsg{id: e.ID, art: view.Art(img, width)}
	}
}

func (m Model) openFiles() tea.Cmd {
	if m.picker == nil {
		return nil
	}
	p, ctrl, ctx := m.picker, m.ctrl, m.ctx
	return func() tea.Msg {
		paths, err := p.PickImages()
		if err != nil {
			return opDoneMsg{op: "open", err: err}
		}
		_, err = ctrl.UploadFiles(ctx, paths)
		return opDoneMsg{op: "upload", err: err}
	}
}

// run executes a controller operation off the event loop. Its outcome is
// surfaced by the controller's notifications; the message only triggers a
// refresh.
func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}
