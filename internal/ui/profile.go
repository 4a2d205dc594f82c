package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/bookapi"
)

// Profile field indexes and the groups they submit with.
const (
	profileFullName = iota
	profileUsername
	profileCurrentPassword
	profileNewPassword
	profileConfirmPassword
	profilePhotoPath
)

const (
	groupProfile = iota
	groupPassword
	groupPhoto
)

var profileHeadings = map[int]string{
	groupProfile:  "Details",
	groupPassword: "Change password",
	groupPhoto:    "Profile photo",
}

type profileState struct {
	form inputForm
}

func newProfileState() profileState {
	return profileState{form: newInputForm(
		fieldSpec{label: "Full name", group: groupProfile},
		fieldSpec{label: "Email", group: groupProfile},
		fieldSpec{label: "Current", secret: true, group: groupPassword},
		fieldSpec{label: "New", placeholder: "at least 6 characters", secret: true, group: groupPassword},
		fieldSpec{label: "Confirm", secret: true, group: groupPassword},
		fieldSpec{label: "Photo file", placeholder: "path to an image", group: groupPhoto},
	)}
}

// prefill loads the signed-in user's details and clears the other groups.
func (p *profileState) prefill(u *bookapi.User) {
	p.form.reset()
	if u == nil {
		return
	}
	p.form.setValue(profileFullName, u.FullName)
	p.form.setValue(profileUsername, u.Username)
}

type profileDoneMsg struct {
	group int
	err   error
}

func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := &m.profile.form
	switch {
	case key.Matches(msg, m.keys.Back):
		if form.busy {
			return m, nil
		}
		return m.enter(ScreenLibrary)
	case key.Matches(msg, m.keys.NextField):
		cmd := form.next()
		return m, cmd
	case key.Matches(msg, m.keys.PrevField):
		cmd := form.prev()
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		group := form.submitGroup()
		if group < 0 {
			if form.busy {
				return m, nil
			}
			cmd := form.next()
			return m, cmd
		}
		cmd, err := m.submitProfile(group)
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		form.busy = true
		m.clearFlash()
		return m, cmd
	}
	cmd := form.update(msg)
	return m, cmd
}

func (m Model) submitProfile(group int) (tea.Cmd, error) {
	ctx, sess, f := m.ctx, m.sess, m.profile.form
	switch group {
	case groupPassword:
		current := f.value(profileCurrentPassword)
		next := f.value(profileNewPassword)
		confirm := f.value(profileConfirmPassword)
		return func() tea.Msg {
			return profileDoneMsg{group: group, err: sess.UpdatePassword(ctx, current, next, confirm)}
		}, nil
	case groupPhoto:
		var photo *bookapi.Attachment
		if path := strings.TrimSpace(f.value(profilePhotoPath)); path != "" {
			a, err := bookapi.OpenAttachment(path)
			if err != nil {
				return nil, err
			}
			photo = a
		}
		return func() tea.Msg {
			return profileDoneMsg{group: group, err: sess.UploadPhoto(ctx, photo)}
		}, nil
	default:
		patch := bookapi.ProfilePatch{
			FullName: strings.TrimSpace(f.value(profileFullName)),
			Username: strings.TrimSpace(f.value(profileUsername)),
		}
		return func() tea.Msg {
			return profileDoneMsg{group: group, err: sess.UpdateProfile(ctx, patch)}
		}, nil
	}
}

func (m Model) handleProfileDone(msg profileDoneMsg) (tea.Model, tea.Cmd) {
	m.profile.form.busy = false
	if msg.err != nil {
		fallback := "Failed to update profile"
		switch msg.group {
		case groupPassword:
			fallback = "Failed to update password"
		case groupPhoto:
			fallback = "Failed to upload photo"
		}
		m.setError(reasonOf(msg.err, fallback))
		return m, nil
	}

	m.snap = m.sess.Snapshot()
	switch msg.group {
	case groupPassword:
		m.profile.form.clearGroup(groupPassword)
		m.setNote("Password updated")
	case groupPhoto:
		m.profile.form.clearGroup(groupPhoto)
		m.setNote("Photo uploaded")
	default:
		m.setNote("Profile updated")
	}
	cmd := m.profile.form.focusGroup(groupProfile)
	return m, cmd
}

func (m Model) renderProfile() string {
	styles := m.theme.Styles()
	var b strings.Builder
	if u := m.snap.User; u != nil {
		b.WriteString(styles.Text.Bold(true).Render(u.FullName))
		b.WriteString("  ")
		b.WriteString(styles.Badge(string(u.Role)).Render(strings.ToLower(string(u.Role))))
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("photo " + truncateMiddle(m.files.ProfilePhoto(*u), m.width-12)))
		b.WriteString("\n\n")
	}
	b.WriteString(m.profile.form.view(m, profileHeadings))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter on the last field of a section submits it · esc back"))
	return b.String()
}
