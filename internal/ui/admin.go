package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/bookapi"
)

type adminState struct {
	cursor   int
	toggling bool
}

type usersMsg struct {
	err error
}

type statusChangedMsg struct {
	user *bookapi.User
	err  error
}

func (m Model) loadUsers(page int) tea.Cmd {
	ctx, users := m.ctx, m.users
	return func() tea.Msg {
		return usersMsg{err: users.Load(ctx, page, "")}
	}
}

func (m Model) changeUserPage(n int) tea.Cmd {
	ctx, users := m.ctx, m.users
	return func() tea.Msg {
		return usersMsg{err: users.ChangePage(ctx, n)}
	}
}

func (m Model) handleUsers(msg usersMsg) (tea.Model, tea.Cmd) {
	if reason := reasonOf(msg.err, "Failed to load users"); reason != "" {
		m.setError(reason)
	}
	if n := len(m.users.Snapshot().Items()); m.adminUI.cursor >= n {
		m.adminUI.cursor = max(n-1, 0)
	}
	return m, nil
}

// nextStatus flips an account between active and banned.
func nextStatus(u bookapi.User) bookapi.UserStatus {
	if u.IsActive() {
		return bookapi.StatusBanned
	}
	return bookapi.StatusActive
}

func (m Model) toggleBan(u bookapi.User) tea.Cmd {
	ctx, admin, users := m.ctx, m.admin, m.users
	status := nextStatus(u)
	return func() tea.Msg {
		updated, err := admin.UpdateUserStatus(ctx, u.ID, status)
		if err == nil {
			// The list has no partial update; refetch the page the user is on.
			_ = users.Reload(ctx)
		}
		return statusChangedMsg{user: updated, err: err}
	}
}

func (m Model) handleStatusChanged(msg statusChangedMsg) (tea.Model, tea.Cmd) {
	m.adminUI.toggling = false
	if msg.err != nil {
		m.setError(reasonOf(msg.err, "Failed to update user status"))
		return m, nil
	}
	if msg.user != nil {
		m.setNote(fmt.Sprintf("%s is now %s", msg.user.Username, strings.ToLower(string(msg.user.Status))))
	}
	return m, nil
}

func (m Model) handleAdminKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.users.Snapshot()
	items := snap.Items()

	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Library):
		return m.enter(ScreenLibrary)
	case key.Matches(msg, m.keys.Down):
		if m.adminUI.cursor < len(items)-1 {
			m.adminUI.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.adminUI.cursor > 0 {
			m.adminUI.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.adminUI.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.adminUI.cursor = max(len(items)-1, 0)
	case key.Matches(msg, m.keys.PrevPage):
		if snap.HasPrev() {
			m.adminUI.cursor = 0
			return m, m.changeUserPage(snap.PageIndex - 1)
		}
	case key.Matches(msg, m.keys.NextPage):
		if snap.HasNext() {
			m.adminUI.cursor = 0
			return m, m.changeUserPage(snap.PageIndex + 1)
		}
	case key.Matches(msg, m.keys.Reload):
		m.clearFlash()
		return m, m.loadUsers(snap.PageIndex)
	case key.Matches(msg, m.keys.ToggleBan):
		if m.admin == nil || m.adminUI.toggling || m.adminUI.cursor >= len(items) {
			return m, nil
		}
		target := items[m.adminUI.cursor]
		if m.snap.User != nil && target.ID == m.snap.User.ID {
			m.setError("You cannot change your own account status")
			return m, nil
		}
		m.adminUI.toggling = true
		m.clearFlash()
		return m, m.toggleBan(target)
	case key.Matches(msg, m.keys.Logout):
		return m.signOut()
	}
	return m, nil
}

func (m Model) renderAdmin(height int) string {
	styles := m.theme.Styles()
	snap := m.users.Snapshot()
	items := snap.Items()
	if len(items) == 0 {
		if snap.Loading {
			return styles.MutedText.Render("Loading users...")
		}
		return styles.MutedText.Render("No users")
	}

	width := m.width - 4
	nameW := width * 30 / 100
	userW := width * 35 / 100
	var b strings.Builder
	b.WriteString(styles.FaintText.Render(padRight("NAME", nameW) + padRight("EMAIL", userW) + padRight("ROLE", 8) + padRight("STATUS", 9) + "BOOKS"))
	b.WriteString("\n")

	visible := max(height-3, 1)
	start := 0
	if m.adminUI.cursor >= visible {
		start = m.adminUI.cursor - visible + 1
	}
	for i := start; i < len(items) && i < start+visible; i++ {
		u := items[i]
		status := string(u.Status)
		if status == "" {
			status = string(bookapi.StatusActive)
		}
		role := strings.ToLower(string(u.Role))
		line := padRight(truncate(u.FullName, nameW-1), nameW) +
			padRight(truncate(u.Username, userW-1), userW)
		if i == m.adminUI.cursor {
			line += padRight(role, 8) + padRight(strings.ToLower(status), 9) + fmt.Sprint(u.BooksCount)
			b.WriteString(styles.Selected.Width(width).Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
			b.WriteString(styles.Badge(role).Render(role))
			b.WriteString(" ")
			b.WriteString(styles.Badge(status).Render(strings.ToLower(status)))
			b.WriteString(" ")
			b.WriteString(styles.MutedText.Render(fmt.Sprint(u.BooksCount)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("Page %d of %d · %d users", snap.PageIndex+1, max(snap.Page.TotalPages, 1), snap.Page.TotalElements)))
	return b.String()
}
