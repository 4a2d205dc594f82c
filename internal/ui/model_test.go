package ui

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/listing"
	"github.com/five82/shelf/internal/nav"
	"github.com/five82/shelf/internal/session"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// newTestModel returns a signed-in model on the library screen holding books.
func newTestModel(t *testing.T, removeErr error, books ...bookapi.Book) (Model, *[]int64) {
	t.Helper()
	var removed []int64
	list := listing.New[bookapi.Book](
		func(context.Context, bookapi.ListParams) (bookapi.Page[bookapi.Book], error) {
			return bookapi.Page[bookapi.Book]{Content: books, TotalPages: 1, TotalElements: int64(len(books))}, nil
		},
		listing.WithRemove[bookapi.Book](func(_ context.Context, id int64) error {
			if removeErr != nil {
				return removeErr
			}
			removed = append(removed, id)
			return nil
		}, func(b bookapi.Book) int64 { return b.ID }),
		listing.WithLogger[bookapi.Book](quietLogger()),
		listing.WithReasons[bookapi.Book]("Failed to load books", "Failed to delete book"),
	)
	if err := list.Load(context.Background(), 0, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}

	m := New(Options{Books: list, PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	m.width, m.height = 100, 30
	m.snap = session.Snapshot{Phase: session.Ready, User: &bookapi.User{ID: 1, FullName: "Ada", Role: bookapi.RoleUser}}
	m.screen = ScreenLibrary
	return m, &removed
}

func TestScreenFor(t *testing.T) {
	cases := map[nav.Route]Screen{
		nav.RouteLogin:      ScreenLogin,
		nav.RouteRegister:   ScreenRegister,
		nav.RouteLibrary:    ScreenLibrary,
		nav.RouteBookForm:   ScreenBookForm,
		nav.RouteProfile:    ScreenProfile,
		nav.RouteAdminUsers: ScreenAdmin,
	}
	for route, want := range cases {
		if got := screenFor(route); got != want {
			t.Fatalf("screenFor(%s) = %v, want %v", route, got, want)
		}
	}
}

func TestEnter_Guards(t *testing.T) {
	m, _ := newTestModel(t, nil)

	model, _ := m.enter(ScreenAdmin)
	got := model.(Model)
	if got.screen != ScreenLibrary || !got.flashError {
		t.Fatalf("non-admin entering users: screen=%v flash=%q", got.screen, got.flash)
	}

	m.snap = session.Snapshot{Phase: session.Ready}
	model, _ = m.enter(ScreenProfile)
	if got := model.(Model).screen; got != ScreenLogin {
		t.Fatalf("anonymous entering profile: screen = %v, want login", got)
	}
}

func TestSession_DroppedUserReturnsToLogin(t *testing.T) {
	m, _ := newTestModel(t, nil, bookapi.Book{ID: 1, Title: "Dune"})
	model, _ := m.Update(sessionMsg(session.Snapshot{Phase: session.Ready, Notice: "Session expired, please sign in again"}))
	got := model.(Model)
	if got.screen != ScreenLogin {
		t.Fatalf("screen = %v, want login", got.screen)
	}
	if got.flash != "Session expired, please sign in again" || !got.flashError {
		t.Fatalf("flash = %q (error=%v), want the session notice", got.flash, got.flashError)
	}
}

func TestAuthSwitch_DoesNotRepeatSessionNotice(t *testing.T) {
	m, _ := newTestModel(t, nil)
	model, _ := m.Update(sessionMsg(session.Snapshot{Phase: session.Ready, Notice: "Session expired, please sign in again"}))

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	got := model.(Model)
	if got.screen != ScreenRegister {
		t.Fatalf("screen = %v, want register", got.screen)
	}
	if got.flash != "" {
		t.Fatalf("flash = %q after switching auth screens, want none", got.flash)
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if got := model.(Model); got.screen != ScreenLogin || got.flash != "" {
		t.Fatalf("back on login: screen=%v flash=%q, want login and no flash", got.screen, got.flash)
	}
}

func TestLibrary_DeleteRequiresConfirmation(t *testing.T) {
	m, removed := newTestModel(t, nil,
		bookapi.Book{ID: 1, Title: "Dune"},
		bookapi.Book{ID: 2, Title: "Emma"},
	)

	model, _ := m.Update(runes("j"))
	model, cmd := model.Update(runes("d"))
	if cmd != nil {
		t.Fatalf("delete sent a request before confirmation")
	}
	if p := model.(Model).library.pendingDelete; p == nil || p.ID != 2 {
		t.Fatalf("pendingDelete = %+v, want book 2", p)
	}

	model, cmd = model.Update(runes("n"))
	if cmd != nil || model.(Model).library.pendingDelete != nil {
		t.Fatalf("cancel should clear the prompt without a request")
	}

	model, _ = model.Update(runes("d"))
	model, cmd = model.Update(runes("y"))
	if cmd == nil {
		t.Fatalf("confirm returned no command")
	}
	model, _ = model.Update(cmd())
	got := model.(Model)
	if len(*removed) != 1 || (*removed)[0] != 2 {
		t.Fatalf("removed = %v, want [2]", *removed)
	}
	if items := got.books.Snapshot().Items(); len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("items = %+v, want only book 1", items)
	}
	if got.library.cursor != 0 {
		t.Fatalf("cursor = %d, want clamped to 0", got.library.cursor)
	}
}

func TestLibrary_DeleteFailureShowsReason(t *testing.T) {
	m, _ := newTestModel(t, errors.New("offline"), bookapi.Book{ID: 1, Title: "Dune"})
	model, _ := m.Update(runes("d"))
	_, cmd := model.Update(runes("y"))
	model, _ = model.Update(cmd())
	got := model.(Model)
	if got.flash != "Failed to delete book" || !got.flashError {
		t.Fatalf("flash = %q, want the fixed delete reason", got.flash)
	}
	if len(got.books.Snapshot().Items()) != 1 {
		t.Fatalf("failed delete dropped the book")
	}
}

func TestLibrary_SearchCapturesKeys(t *testing.T) {
	m, _ := newTestModel(t, nil, bookapi.Book{ID: 1, Title: "Dune"})
	model, _ := m.Update(runes("/"))
	if !model.(Model).library.searching {
		t.Fatalf("search did not open")
	}
	// q types into the search box instead of quitting.
	model, _ = model.Update(runes("q"))
	if got := model.(Model).library.search.Value(); got != "q" {
		t.Fatalf("search value = %q, want q", got)
	}
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.(Model).library.searching || cmd == nil {
		t.Fatalf("enter should close search and load")
	}
	model, _ = model.Update(cmd())
	if got := model.(Model).books.Snapshot().Search; got != "q" {
		t.Fatalf("search term = %q, want q", got)
	}
}

func TestBookForm_BusyBlocksResubmit(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.bookForm.startCreate()
	m.screen = ScreenBookForm
	m.bookForm.form.focus = bookContentPath
	m.bookForm.form.busy = true

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("enter while busy produced a command")
	}
}

func TestView_RendersEveryScreen(t *testing.T) {
	m, _ := newTestModel(t, nil, bookapi.Book{ID: 1, Title: "Dune", Author: "Herbert"})
	m.users = listing.New[bookapi.User](func(context.Context, bookapi.ListParams) (bookapi.Page[bookapi.User], error) {
		return bookapi.Page[bookapi.User]{}, nil
	})
	for _, s := range []Screen{ScreenLoading, ScreenLogin, ScreenRegister, ScreenLibrary, ScreenBookForm, ScreenProfile, ScreenAdmin, ScreenLogs} {
		m.screen = s
		if out := m.View(); out == "" {
			t.Fatalf("%v rendered nothing", s)
		}
	}
	m.showHelp = true
	if out := m.View(); out == "" {
		t.Fatalf("help rendered nothing")
	}
}
