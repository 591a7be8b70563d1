// Package view renders composer snapshots. Every function here is pure: it
// takes a snapshot and returns what should be on screen, so the terminal UI
// only has to call it after each state change and tests can assert on the
// output without a terminal.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fpang/gif-maker/internal/composer"
)

// ControlState says which actions are currently available.
type ControlState struct {
	CreateGIF     bool
	Remove        bool
	ApplySelected bool
	ApplyAll      bool
	Prev          bool
	Next          bool
}

// Controls derives control enablement from the snapshot.
func Controls(s composer.Snapshot) ControlState {
	nonEmpty := len(s.Entries) > 0
	selected := s.HasSelection()
	multiple := len(s.Entries) > 1
	return ControlState{
		CreateGIF:     nonEmpty && !s.CreatingGIF,
		Remove:        selected,
		ApplySelected: selected,
		ApplyAll:      nonEmpty,
		Prev:          multiple,
		Next:          multiple,
	}
}

// Position is the "i/n" indicator of the preview, "0/0" when empty.
func Position(s composer.Snapshot) string {
	if !s.HasSelection() {
		return fmt.Sprintf("0/%d", len(s.Entries))
	}
	return fmt.Sprintf("%d/%d", s.Cursor+1, len(s.Entries))
}

// Styles are the lipgloss styles used by the renderers.
type Styles struct {
	Title    lipgloss.Style
	Active   lipgloss.Style
	Inactive lipgloss.Style
	Badge    lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Disabled lipgloss.Style
	Key      lipgloss.Style
}

// DefaultStyles returns the colour scheme of the interactive UI.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("57")),
		Inactive: lipgloss.NewStyle(),
		Badge:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Success:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Disabled: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Key:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
	}
}

// PlainStyles renders without any escape codes.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{plain, plain, plain, plain, plain, plain, plain, plain, plain}
}

// List renders the working set, one line per entry in GIF frame order, with
// the active entry highlighted.
func List(s composer.Snapshot, st Styles) string {
	if len(s.Entries) == 0 {
		return st.Muted.Render("No images loaded")
	}
	var b strings.Builder
	for i, e := range s.Entries {
		marker := "  "
		style := st.Inactive
		if i == s.Cursor {
			marker = "> "
			style = st.Active
		}
		line := fmt.Sprintf("%s%d. %s", marker, i+1, e.Name)
		b.WriteString(style.Render(line))
		b.WriteString(" ")
		b.WriteString(st.Badge.Render("[" + e.Animation + "]"))
		if i < len(s.Entries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Preview renders the entry under the cursor: its name, the thumbnail art
// (may be empty while loading), the position indicator and the animation
// currently chosen in the selector.
func Preview(s composer.Snapshot, art, selectedAnimation string, st Styles) string {
	cur, ok := s.Current()
	if !ok {
		return lipgloss.JoinVertical(lipgloss.Left,
			st.Muted.Render("No images loaded"),
			st.Muted.Render(Position(s)),
		)
	}
	if art == "" {
		art = st.Muted.Render("(loading preview)")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		st.Title.Render(cur.Name),
		art,
		fmt.Sprintf("%s  %s %s", st.Muted.Render(Position(s)), st.Muted.Render("animation:"), st.Badge.Render(selectedAnimation)),
	)
}

// Status summarises outstanding work, empty when idle.
func Status(s composer.Snapshot) string {
	var parts []string
	if s.Uploads.Total > 0 {
		parts = append(parts, fmt.Sprintf("uploading %d/%d", s.Uploads.Done, s.Uploads.Total))
	}
	if s.CreatingGIF {
		parts = append(parts, "creating GIF")
	}
	if len(parts) == 0 && s.Busy() {
		parts = append(parts, "working")
	}
	return strings.Join(parts, ", ")
}

// Help renders the key bindings, dimming those whose control is disabled.
func Help(c ControlState, st Styles) string {
	type binding struct {
		key, label string
		enabled    bool
	}
	bindings := []binding{
		{"u", "add url", true},
		{"o", "open files", true},
		{"←/→", "prev/next", c.Prev},
		{"↑/↓", "select", c.Prev},
		{"a/A", "animation", true},
		{"enter", "apply", c.ApplySelected},
		{"*", "apply all", c.ApplyAll},
		{"x", "remove", c.Remove},
		{"e", "settings", true},
		{"g", "create gif", c.CreateGIF},
		{"d", "download", true},
		{"q", "quit", true},
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.enabled {
			parts = append(parts, st.Key.Render(b.key)+" "+st.Muted.Render(b.label))
		} else {
			parts = append(parts, st.Disabled.Render(b.key+" "+b.label))
		}
	}
	return strings.Join(parts, st.Muted.Render(" • "))
}
