package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/session"
)

// renderHeader renders the top bar: logo, the signed-in identity and the
// credential expiry when known.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("shelf", styles.Logo)}
	if m.version != "" {
		parts = append(parts, bg.Render(m.version, styles.FaintText))
	}

	switch {
	case m.snap.Phase == session.Bootstrapping:
		parts = append(parts, bg.Render("restoring session", styles.WarningText))
	case m.snap.User != nil:
		u := m.snap.User
		parts = append(parts, bg.Render(u.FullName, styles.Text.Bold(true)))
		parts = append(parts, bg.Render(u.Username, styles.MutedText))
		if u.IsAdmin() {
			parts = append(parts, styles.Badge("admin").Render("admin"))
		}
		if !m.snap.ExpiresAt.IsZero() {
			parts = append(parts, bg.Render("until "+m.snap.ExpiresAt.Local().Format("Jan 2 15:04"), styles.FaintText))
		}
	default:
		parts = append(parts, bg.Render("signed out", styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderFooter renders the status line and the key hints for the screen.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	var status string
	switch {
	case m.screen == ScreenLibrary && m.library.pendingDelete != nil:
		status = bg.Render(fmt.Sprintf("Delete %q? y/n", m.library.pendingDelete.Title), styles.WarningText.Bold(true))
	case m.flash != "" && m.flashError:
		status = bg.Render(m.flash, styles.DangerText)
	case m.flash != "":
		status = bg.Render(m.flash, styles.SuccessText)
	}

	hints := bg.Render(m.hints(), styles.FaintText)
	if status == "" {
		return styles.Footer.Width(m.width).Render(hints)
	}
	gap := m.width - lipgloss.Width(status) - lipgloss.Width(hints) - 2
	if gap < 2 {
		return styles.Footer.Width(m.width).Render(status)
	}
	return styles.Footer.Width(m.width).Render(status + bg.Spaces(gap) + hints)
}

func (m Model) hints() string {
	switch m.screen {
	case ScreenLibrary:
		if m.library.searching {
			return "enter search · esc cancel"
		}
		hints := "a add · e edit · d delete · / search · [ ] page · p profile"
		if m.snap.IsAdmin() {
			hints += " · u users"
		}
		return hints + " · o sign out · ? help"
	case ScreenAdmin:
		return "b ban/unban · [ ] page · r reload · esc back"
	case ScreenLogs:
		return "f level · r reload · j/k scroll · esc back"
	default:
		return "ctrl+c quit"
	}
}
