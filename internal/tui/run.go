package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fpang/gif-maker/internal/composer"
)

// relay forwards controller callbacks into a running program. Callbacks can
// fire inside Update, so Send must not block the caller.
type relay struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *relay) attach(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *relay) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		go p.Send(msg)
	}
}

// Hooks returns controller options whose callbacks drive the program later
// passed to the returned attach function. Snapshots are not forwarded: the model re-reads the
// controller, so out-of-order delivery cannot show stale state.
func Hooks(animations []string) (composer.Options, func(*tea.Program)) {
	r := &relay{}
	opts := composer.Options{
		Animations: animations,
		OnChange:   func(composer.Snapshot) { r.send(stateChangedMsg{}) },
		OnNotify:   func(n composer.Notification) { r.send(noticeMsg(n)) },
	}
	return opts, r.attach
}

// Run starts the interactive UI and blocks until the user quits or ctx is
// cancelled. The controller in cfg must have been built with options from
// Hooks, whose attach function is passed here.
func Run(ctx context.Context, cfg Config, attach func(*tea.Program)) error {
	p := tea.NewProgram(New(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	attach(p)
	_, err := p.Run()
	return err
}
