package editor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/credential"
	"github.com/five82/shelf/internal/failure"
	"github.com/five82/shelf/internal/nav"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type received struct {
	method string
	path   string
	parts  map[string]string
}

func newServer(t *testing.T, status int, reply any) (*httptest.Server, chan received) {
	t.Helper()
	got := make(chan received, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := received{method: r.Method, path: r.URL.Path, parts: map[string]string{}}
		if mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.HasPrefix(mediaType, "multipart/") {
			mr := multipart.NewReader(r.Body, params["boundary"])
			for {
				part, err := mr.NextPart()
				if err != nil {
					break
				}
				data, _ := io.ReadAll(part)
				rec.parts[part.FormName()] = string(data)
			}
		}
		got <- rec
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newFlow(t *testing.T, srv *httptest.Server, navigator nav.Navigator) *Flow {
	t.Helper()
	client, err := bookapi.NewClient(srv.URL+"/api", credential.NewMemoryStore("T"), bookapi.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewFlow(client, navigator, quietLogger())
}

func partNames(parts map[string]string) []string {
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestCreate_BlankTitleMakesNoRequest(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, bookapi.Book{ID: 1})
	rec := &nav.Recorder{}
	flow := newFlow(t, srv, rec)

	_, err := flow.Create(context.Background(), BookForm{Title: "  \t"})
	if err == nil || err.Error() != "Title is required" {
		t.Fatalf("err = %v", err)
	}
	if failure.KindOf(err) != failure.Validation {
		t.Fatalf("kind = %v", failure.KindOf(err))
	}
	select {
	case r := <-got:
		t.Fatalf("unexpected request %s %s", r.method, r.path)
	default:
	}
	if len(rec.Routes()) != 0 {
		t.Fatalf("navigated on validation failure")
	}
}

func TestCreate_SendsFilesAndNavigates(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, bookapi.Book{ID: 7, Title: "Dune"})
	rec := &nav.Recorder{}
	flow := newFlow(t, srv, rec)

	form := BookForm{
		Title:   "Dune",
		Author:  "Herbert",
		Cover:   bookapi.NewAttachment("cover.png", []byte("\x89PNG\r\n\x1a\nfake")),
		Content: bookapi.NewAttachment("dune.txt", []byte("spice")),
	}
	book, err := flow.Create(context.Background(), form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if book.ID != 7 {
		t.Fatalf("book id = %d, want 7", book.ID)
	}
	r := <-got
	if r.method != http.MethodPost || r.path != "/api/books" {
		t.Fatalf("request = %s %s", r.method, r.path)
	}
	want := []string{"author", "bookFile", "coverImage", "description", "title"}
	if names := partNames(r.parts); strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("parts = %v, want %v", names, want)
	}
	if r.parts["bookFile"] != "spice" {
		t.Fatalf("bookFile = %q", r.parts["bookFile"])
	}
	if routes := rec.Routes(); len(routes) != 1 || routes[0] != nav.RouteLibrary {
		t.Fatalf("routes = %v, want [library]", routes)
	}
}

func TestUpdate_OmitsAbsentAttachments(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, bookapi.Book{ID: 3, Title: "New"})
	flow := newFlow(t, srv, nil)

	if _, err := flow.Update(context.Background(), 3, BookForm{Title: "New", Author: "A", Description: ""}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	r := <-got
	if r.method != http.MethodPut || r.path != "/api/books/3" {
		t.Fatalf("request = %s %s", r.method, r.path)
	}
	if _, ok := r.parts["coverImage"]; ok {
		t.Fatalf("coverImage part sent")
	}
	if _, ok := r.parts["bookFile"]; ok {
		t.Fatalf("bookFile part sent")
	}
	if r.parts["title"] != "New" || r.parts["author"] != "A" {
		t.Fatalf("parts = %v", r.parts)
	}
	if v, ok := r.parts["description"]; !ok || v != "" {
		t.Fatalf("description = %q (present %v), want empty text part", v, ok)
	}
}

func TestUpdate_FailureKeepsFormAndRoute(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden, map[string]string{"message": "You can only edit your own books"})
	rec := &nav.Recorder{}
	flow := newFlow(t, srv, rec)

	form := BookForm{Title: "Keep me", Cover: bookapi.NewAttachment("c.png", []byte("img"))}
	_, err := flow.Update(context.Background(), 9, form)
	if err == nil || err.Error() != "You can only edit your own books" {
		t.Fatalf("err = %v", err)
	}
	if form.Title != "Keep me" || form.Cover == nil {
		t.Fatalf("form mutated: %+v", form)
	}
	if len(rec.Routes()) != 0 {
		t.Fatalf("navigated after failure")
	}
}

func TestUpdate_FallbackReason(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, map[string]string{})
	flow := newFlow(t, srv, nil)
	_, err := flow.Update(context.Background(), 1, BookForm{Title: "x"})
	if err == nil || err.Error() != "Failed to update book" {
		t.Fatalf("err = %v", err)
	}
}

type stubService struct {
	book *bookapi.Book
	err  error
}

func (s stubService) GetBook(context.Context, int64) (*bookapi.Book, error) { return s.book, s.err }

func (s stubService) CreateBook(context.Context, bookapi.BookPayload) (*bookapi.Book, error) {
	return nil, errors.New("unused")
}

func (s stubService) UpdateBook(context.Context, int64, bookapi.BookPayload) (*bookapi.Book, error) {
	return nil, errors.New("unused")
}

func TestPrefill(t *testing.T) {
	flow := NewFlow(stubService{book: &bookapi.Book{ID: 2, Title: "T", Author: "A", ImageURL: "covers/x.jpg"}}, nil, quietLogger())
	form, err := flow.Prefill(context.Background(), 2)
	if err != nil {
		t.Fatalf("Prefill: %v", err)
	}
	if form.Title != "T" || form.Author != "A" || form.CoverRef != "covers/x.jpg" {
		t.Fatalf("form = %+v", form)
	}
	if form.Cover != nil || form.Content != nil {
		t.Fatalf("prefill set attachments")
	}

	flow = NewFlow(stubService{err: &bookapi.APIError{Status: http.StatusNotFound, Message: "Book not found"}}, nil, quietLogger())
	if _, err := flow.Prefill(context.Background(), 2); err == nil || err.Error() != "Failed to load book" {
		t.Fatalf("err = %v", err)
	}
}
