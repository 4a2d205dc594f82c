package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/editor"
	"github.com/five82/shelf/internal/failure"
	"github.com/five82/shelf/internal/listing"
	"github.com/five82/shelf/internal/nav"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/session"
)

// Screen is the active top-level view.
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLogin
	ScreenRegister
	ScreenLibrary
	ScreenBookForm
	ScreenProfile
	ScreenAdmin
	ScreenLogs
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "Sign in"
	case ScreenRegister:
		return "Register"
	case ScreenLibrary:
		return "Library"
	case ScreenBookForm:
		return "Book"
	case ScreenProfile:
		return "Profile"
	case ScreenAdmin:
		return "Users"
	case ScreenLogs:
		return "Log"
	default:
		return "Loading"
	}
}

// requiresSession reports whether the screen is only reachable while signed in.
func (s Screen) requiresSession() bool {
	switch s {
	case ScreenLoading, ScreenLogin, ScreenRegister, ScreenLogs:
		return false
	}
	return true
}

// AdminService changes account states.
type AdminService interface {
	UpdateUserStatus(ctx context.Context, id int64, status bookapi.UserStatus) (*bookapi.User, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Session   *session.Manager
	Books     *listing.Model[bookapi.Book]
	Users     *listing.Model[bookapi.User]
	Editor    *editor.Flow
	Admin     AdminService
	Files     bookapi.Files
	Router    *nav.Switch
	LogFile   string
	ThemeName string
	PrefsPath string
	Version   string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	sess      *session.Manager
	sub       *session.Subscription
	books     *listing.Model[bookapi.Book]
	users     *listing.Model[bookapi.User]
	editor    *editor.Flow
	admin     AdminService
	files     bookapi.Files
	logFile   string
	prefsPath string
	version   string

	theme    Theme
	keys     keyMap
	screen   Screen
	previous Screen
	width    int
	height   int
	showHelp bool

	snap session.Snapshot

	// Status line shown under the content: either a success note or an error.
	flash      string
	flashError bool

	auth     authState
	library  libraryState
	bookForm bookFormState
	profile  profileState
	adminUI  adminState
	logs     logsState
}

// New creates the root model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}

	m := Model{
		ctx:       ctx,
		sess:      opts.Session,
		books:     opts.Books,
		users:     opts.Users,
		editor:    opts.Editor,
		admin:     opts.Admin,
		files:     opts.Files,
		logFile:   opts.LogFile,
		prefsPath: prefsPath,
		version:   opts.Version,
		theme:     GetTheme(themeName),
		keys:      DefaultKeyMap(),
		screen:    ScreenLoading,
		auth:      newAuthState(),
		bookForm:  newBookFormState(),
		profile:   newProfileState(),
	}
	if m.sess != nil {
		m.sub = m.sess.Subscribe()
		m.snap = m.sess.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen}
	if m.sess != nil {
		cmds = append(cmds, bootstrapCmd(m.ctx, m.sess), waitForSession(m.sub))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case bootstrappedMsg:
		m.snap = session.Snapshot(msg)
		if m.snap.Authenticated() {
			return m.enter(ScreenLibrary)
		}
		return m.enter(ScreenLogin)

	case sessionMsg:
		return m.handleSession(session.Snapshot(msg))

	case navigateMsg:
		return m.enter(screenFor(nav.Route(msg)))

	case authDoneMsg:
		return m.handleAuthDone(msg)

	case booksMsg:
		return m.handleBooks(msg)

	case removedMsg:
		return m.handleRemoved(msg)

	case prefillMsg:
		return m.handlePrefill(msg)

	case bookSavedMsg:
		return m.handleBookSaved(msg)

	case profileDoneMsg:
		return m.handleProfileDone(msg)

	case usersMsg:
		return m.handleUsers(msg)

	case statusChangedMsg:
		return m.handleStatusChanged(msg)

	case logsMsg:
		m.logs.apply(msg)
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	body := m.renderTitledBox(m.boxTitle(), m.renderContent(bodyHeight-2), m.width, bodyHeight, true)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderContent(height int) string {
	switch m.screen {
	case ScreenLogin, ScreenRegister:
		return m.renderAuth()
	case ScreenLibrary:
		return m.renderLibrary(height)
	case ScreenBookForm:
		return m.renderBookForm()
	case ScreenProfile:
		return m.renderProfile()
	case ScreenAdmin:
		return m.renderAdmin(height)
	case ScreenLogs:
		return m.renderLogs(height)
	default:
		return m.theme.Styles().MutedText.Render("Restoring session...")
	}
}

func (m Model) boxTitle() string {
	switch m.screen {
	case ScreenBookForm:
		if m.bookForm.editing() {
			return "Edit book"
		}
		return "Add book"
	case ScreenLibrary:
		if m.library.searching || m.books == nil {
			return "Library"
		}
		if q := m.books.Snapshot().Search; q != "" {
			return fmt.Sprintf("Library  /%s", q)
		}
	}
	return m.screen.String()
}

// handleKey routes key presses: global keys first, then the active screen.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Screens with text inputs take every printable key.
	if !m.capturingText() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.CycleTheme):
			m.theme = GetTheme(NextTheme(m.theme.Name))
			p := prefs.Load(m.prefsPath)
			p.Theme = m.theme.Name
			_ = prefs.Save(m.prefsPath, p)
			return m, nil
		case key.Matches(msg, m.keys.Logs) && m.screen != ScreenLogs:
			m.previous = m.screen
			return m.enter(ScreenLogs)
		}
	}

	switch m.screen {
	case ScreenLogin, ScreenRegister:
		return m.handleAuthKey(msg)
	case ScreenLibrary:
		return m.handleLibraryKey(msg)
	case ScreenBookForm:
		return m.handleBookFormKey(msg)
	case ScreenProfile:
		return m.handleProfileKey(msg)
	case ScreenAdmin:
		return m.handleAdminKey(msg)
	case ScreenLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

// capturingText reports whether printable keys belong to a text input.
func (m Model) capturingText() bool {
	switch m.screen {
	case ScreenLogin, ScreenRegister, ScreenBookForm, ScreenProfile:
		return true
	case ScreenLibrary:
		return m.library.searching
	}
	return false
}

// updateFocusedInput forwards non-key messages, such as cursor blinks, to the
// focused text input.
func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case ScreenLogin, ScreenRegister:
		form := m.auth.form(m.screen)
		cmd = form.update(msg)
	case ScreenBookForm:
		cmd = m.bookForm.form.update(msg)
	case ScreenProfile:
		cmd = m.profile.form.update(msg)
	case ScreenLibrary:
		if m.library.searching {
			m.library.search, cmd = m.library.search.Update(msg)
		}
	}
	return m, cmd
}

// enter switches screens, applying the session guard, and kicks off whatever
// load the target screen needs.
func (m Model) enter(target Screen) (tea.Model, tea.Cmd) {
	if target.requiresSession() && !m.snap.Authenticated() {
		target = ScreenLogin
	}
	denied := false
	if target == ScreenAdmin && !m.snap.IsAdmin() {
		denied = true
		target = ScreenLibrary
	}
	if (target == ScreenLogin || target == ScreenRegister) && m.snap.Authenticated() {
		target = ScreenLibrary
	}

	from := m.screen
	m.screen = target
	m.showHelp = false

	switch target {
	case ScreenLogin, ScreenRegister:
		if from != target {
			m.auth.reset(target)
		}
		if m.snap.Notice != "" && from != ScreenLogin && from != ScreenRegister {
			m.setError(m.snap.Notice)
		}
		cmd := m.auth.form(target).focusCmd()
		return m, cmd
	case ScreenLibrary:
		if from != ScreenLibrary {
			m.clearFlash()
		}
		if denied {
			m.setError("Administrator access required")
		}
		return m, m.loadBooks(m.books.Snapshot().PageIndex, m.books.Snapshot().Search)
	case ScreenBookForm:
		// The form is prepared by whoever opened it.
		cmd := m.bookForm.form.focusCmd()
		return m, cmd
	case ScreenProfile:
		m.profile.prefill(m.snap.User)
		m.clearFlash()
		cmd := m.profile.form.focusCmd()
		return m, cmd
	case ScreenAdmin:
		m.clearFlash()
		if m.users == nil {
			return m, nil
		}
		return m, m.loadUsers(m.users.Snapshot().PageIndex)
	case ScreenLogs:
		return m, readLogsCmd(m.logFile)
	}
	return m, nil
}

// handleSession reacts to session changes made anywhere, including the 401
// handler and the background refresher.
func (m Model) handleSession(snap session.Snapshot) (tea.Model, tea.Cmd) {
	wasSignedIn := m.snap.Authenticated()
	m.snap = snap
	next := waitForSession(m.sub)

	if snap.Phase != session.Ready {
		return m, next
	}
	if wasSignedIn && !snap.Authenticated() && m.screen.requiresSession() {
		model, cmd := m.enter(ScreenLogin)
		return model, tea.Batch(cmd, next)
	}
	return m, next
}

func (m *Model) setError(text string) {
	m.flash = text
	m.flashError = true
}

func (m *Model) setNote(text string) {
	m.flash = text
	m.flashError = false
}

func (m *Model) clearFlash() {
	m.flash = ""
	m.flashError = false
}

// screenFor maps a navigation route to a screen.
func screenFor(r nav.Route) Screen {
	switch r {
	case nav.RouteLogin:
		return ScreenLogin
	case nav.RouteRegister:
		return ScreenRegister
	case nav.RouteBookForm:
		return ScreenBookForm
	case nav.RouteProfile:
		return ScreenProfile
	case nav.RouteAdminUsers:
		return ScreenAdmin
	default:
		return ScreenLibrary
	}
}

// Messages

type bootstrappedMsg session.Snapshot

type sessionMsg session.Snapshot

type navigateMsg nav.Route

// Commands

func bootstrapCmd(ctx context.Context, sess *session.Manager) tea.Cmd {
	return func() tea.Msg {
		return bootstrappedMsg(sess.Bootstrap(ctx))
	}
}

// waitForSession blocks on the subscription; the handler re-arms it after
// every delivery.
func waitForSession(sub *session.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-sub.C
		if !ok {
			return nil
		}
		return sessionMsg(snap)
	}
}

// reasonOf returns err's display text, keeping supersession quiet.
func reasonOf(err error, fallback string) string {
	if err == nil || errors.Is(err, listing.ErrSuperseded) {
		return ""
	}
	return strings.TrimSpace(failure.Reason(err, fallback))
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	if opts.Session == nil || opts.Books == nil || opts.Editor == nil {
		return fmt.Errorf("ui requires a session, a book list and an editor")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	m := New(opts)
	defer func() {
		if m.sub != nil {
			m.sub.Close()
		}
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Router != nil {
		opts.Router.Set(nav.Func(func(r nav.Route) {
			p.Send(navigateMsg(r))
		}))
		defer opts.Router.Set(nil)
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
