package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Field indexes.
const (
	loginUsername = iota
	loginPassword
)

const (
	registerFullName = iota
	registerUsername
	registerPassword
)

type authState struct {
	login    inputForm
	register inputForm
}

func newAuthState() authState {
	return authState{
		login: newInputForm(
			fieldSpec{label: "Email", placeholder: "you@example.com"},
			fieldSpec{label: "Password", secret: true},
		),
		register: newInputForm(
			fieldSpec{label: "Full name"},
			fieldSpec{label: "Email", placeholder: "you@example.com"},
			fieldSpec{label: "Password", placeholder: "at least 6 characters", secret: true},
		),
	}
}

func (a *authState) form(screen Screen) *inputForm {
	if screen == ScreenRegister {
		return &a.register
	}
	return &a.login
}

// reset clears the password fields but keeps what was typed elsewhere, so a
// failed attempt does not retype the email.
func (a *authState) reset(screen Screen) {
	form := a.form(screen)
	form.busy = false
	form.focus = 0
	if screen == ScreenRegister {
		form.setValue(registerPassword, "")
		return
	}
	form.setValue(loginPassword, "")
}

type authDoneMsg struct {
	screen Screen
	err    error
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.auth.form(m.screen)

	switch {
	case key.Matches(msg, m.keys.Switch):
		if form.busy {
			return m, nil
		}
		m.clearFlash()
		if m.screen == ScreenLogin {
			return m.enter(ScreenRegister)
		}
		return m.enter(ScreenLogin)
	case msg.String() == "esc":
		m.clearFlash()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		cmd := form.next()
		return m, cmd
	case key.Matches(msg, m.keys.PrevField):
		cmd := form.prev()
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		if form.submitGroup() < 0 {
			if form.busy {
				return m, nil
			}
			cmd := form.next()
			return m, cmd
		}
		form.busy = true
		m.clearFlash()
		return m, m.submitAuth()
	}
	cmd := form.update(msg)
	return m, cmd
}

func (m Model) submitAuth() tea.Cmd {
	ctx, sess, screen := m.ctx, m.sess, m.screen
	if screen == ScreenRegister {
		f := m.auth.register
		fullName := strings.TrimSpace(f.value(registerFullName))
		username := strings.TrimSpace(f.value(registerUsername))
		password := f.value(registerPassword)
		return func() tea.Msg {
			return authDoneMsg{screen: screen, err: sess.Register(ctx, fullName, username, password)}
		}
	}
	f := m.auth.login
	username := strings.TrimSpace(f.value(loginUsername))
	password := f.value(loginPassword)
	return func() tea.Msg {
		return authDoneMsg{screen: screen, err: sess.Login(ctx, username, password)}
	}
}

func (m Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	form := m.auth.form(msg.screen)
	form.busy = false
	if msg.err != nil {
		fallback := "Login failed"
		if msg.screen == ScreenRegister {
			fallback = "Registration failed"
		}
		m.setError(reasonOf(msg.err, fallback))
		return m, nil
	}
	m.snap = m.sess.Snapshot()
	form.reset()
	name := ""
	if m.snap.User != nil {
		name = m.snap.User.FullName
	}
	model, cmd := m.enter(ScreenLibrary)
	next := model.(Model)
	next.setNote("Welcome " + strings.TrimSpace(name))
	return next, cmd
}

func (m Model) renderAuth() string {
	styles := m.theme.Styles()
	var b strings.Builder
	if m.screen == ScreenRegister {
		b.WriteString(styles.Text.Bold(true).Render("Create an account"))
	} else {
		b.WriteString(styles.Text.Bold(true).Render("Sign in to your library"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.auth.form(m.screen).view(m, nil))
	b.WriteString("\n")
	if m.screen == ScreenRegister {
		b.WriteString(styles.FaintText.Render("enter submit · tab next field · ctrl+r back to sign in"))
	} else {
		b.WriteString(styles.FaintText.Render("enter submit · tab next field · ctrl+r create an account"))
	}
	return b.String()
}
