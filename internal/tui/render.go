package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fpang/gif-maker/internal/composer"
	"github.com/fpang/gif-maker/internal/view"
)

var (
	panel   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	listCol = lipgloss.NewStyle().Width(36)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.styles

	sections := []string{m.header()}

	art := ""
	if cur, ok := m.snap.Current(); ok {
		art = m.art[cur.ID]
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panel.Render(listCol.Render(view.List(m.snap, st))),
		panel.Render(view.Preview(m.snap, art, m.selectedAnimation(), st)),
	)
	sections = append(sections, body, m.settingsLine())

	switch m.mode {
	case modeURL:
		sections = append(sections, m.urlInput.View())
	case modeSettings:
		for i := range m.settings {
			sections = append(sections, m.settings[i].View())
		}
	}

	if g := m.snap.LastGIF; g != nil {
		sections = append(sections, fmt.Sprintf("%s %s  %s",
			st.Success.Render("GIF ready:"), g.Filename, st.Muted.Render("press d to save to "+m.outDir)))
	}
	if n := m.notice; n != nil {
		sections = append(sections, renderNotice(*n, st))
	}
	sections = append(sections, view.Help(view.Controls(m.snap), st))
	return strings.Join(sections, "\n")
}

func (m Model) header() string {
	st := m.styles
	parts := []string{st.Title.Render("GIF Maker")}
	if m.snap.SessionID != "" {
		parts = append(parts, st.Muted.Render("session "+m.snap.SessionID))
	} else {
		parts = append(parts, st.Error.Render("no session"))
	}
	if status := view.Status(m.snap); status != "" {
		parts = append(parts, m.spinner.View()+" "+status)
	}
	return strings.Join(parts, "  ")
}

func (m Model) settingsLine() string {
	p := m.Params()
	return m.styles.Muted.Render(fmt.Sprintf("duration %sms · loop %s · transition frames %s",
		p.Duration, p.Loop, p.TransitionFrames))
}

func renderNotice(n composer.Notification, st view.Styles) string {
	style := st.Success
	if n.Kind == composer.NotifyError {
		style = st.Error
	}
	return style.Render(n.Title+":") + " " + n.Message
}
