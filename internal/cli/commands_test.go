package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const fakeToken = "tok-1"

// fakeServer is a minimal book server with one user and two books.
type fakeServer struct {
	mu      sync.Mutex
	expired bool
	admin   bool
	deleted []string
	queries []string
	created []string
}

func (f *fakeServer) role() string {
	if f.admin {
		return "ADMIN"
	}
	return "USER"
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/api/auth/login" {
		_, _ = w.Write([]byte(`{"token":"` + fakeToken + `","id":1,"username":"ada@example.com","fullName":"Ada Lovelace","role":"` + f.role() + `"}`))
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+fakeToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.URL.Path == "/api/users/me" && r.Method == http.MethodPut:
		var patch map[string]string
		_ = json.NewDecoder(r.Body).Decode(&patch)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 1, "username": patch["username"], "fullName": patch["fullName"], "role": "USER",
		})
	case r.URL.Path == "/api/users/me":
		_, _ = w.Write([]byte(`{"id":1,"username":"ada@example.com","fullName":"Ada Lovelace","role":"` + f.role() + `","status":"ACTIVE"}`))
	case r.URL.Path == "/api/admin/users" && r.Method == http.MethodPost:
		q := r.URL.Query()
		f.created = append(f.created, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 2, "username": q.Get("username"), "fullName": q.Get("fullName"), "role": q.Get("role"), "status": "ACTIVE",
		})
	case r.URL.Path == "/api/books" && r.Method == http.MethodGet:
		if f.expired {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.queries = append(f.queries, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"content":[{"id":5,"title":"Dune","author":"Herbert"},{"id":6,"title":"Emma","author":"Austen"}],"totalPages":1,"totalElements":2,"number":0,"size":12}`))
	case r.URL.Path == "/api/books/5" && r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"id":5,"title":"Dune","author":"Herbert"}`))
	case r.URL.Path == "/api/books/5" && r.Method == http.MethodDelete:
		f.deleted = append(f.deleted, "5")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type harness struct {
	t    *testing.T
	fake *fakeServer
	url  string
	dir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELF_API_URL", "")
	t.Setenv("SHELF_LOG_LEVEL", "")
	t.Setenv("SHELF_CONFIG", "")

	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return &harness{t: t, fake: fake, url: srv.URL + "/api", dir: home}
}

// exec runs one shelf invocation and returns its stdout and stderr.
func (h *harness) exec(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	cmd := NewRootCmd("test")
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{
		"--api-url", h.url,
		"--config", filepath.Join(h.dir, "none.toml"),
		"--prefs", filepath.Join(h.dir, "prefs.toml"),
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	if _, _, err := h.exec("secret\n", "login", "-u", "ada@example.com"); err != nil {
		h.t.Fatalf("login: %v", err)
	}
}

func TestLoginThenWhoami(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, _, err := h.exec("", "whoami", "-o", "json")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	var view struct {
		User struct {
			Username string `json:"username"`
			FullName string `json:"fullName"`
		} `json:"user"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if view.User.Username != "ada@example.com" || view.User.FullName != "Ada Lovelace" {
		t.Fatalf("whoami = %+v, want Ada", view.User)
	}
}

func TestWhoami_SignedOut(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.exec("", "whoami")
	if !errors.Is(err, errNotSignedIn) {
		t.Fatalf("whoami err = %v, want %v", err, errNotSignedIn)
	}
}

func TestLogout_ForgetsCredential(t *testing.T) {
	h := newHarness(t)
	h.login()
	if _, _, err := h.exec("", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := h.exec("", "whoami"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("whoami after logout err = %v, want %v", err, errNotSignedIn)
	}
}

func TestBooksList_TableAndPaging(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, _, err := h.exec("", "books", "list", "--search", "  dune ", "--page", "1")
	if err != nil {
		t.Fatalf("books list: %v", err)
	}
	for _, want := range []string{"Dune", "Austen", "page 1 of 1, 2 books"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output = %q, want %q", out, want)
		}
	}
	q := h.fake.queries[len(h.fake.queries)-1]
	for _, want := range []string{"page=0", "search=dune", "size=12"} {
		if !strings.Contains(q, want) {
			t.Fatalf("query = %q, want %q", q, want)
		}
	}
}

func TestBooksList_RejectsPageZero(t *testing.T) {
	h := newHarness(t)
	h.login()
	if _, _, err := h.exec("", "books", "list", "--page", "0"); err == nil {
		t.Fatalf("books list --page 0 succeeded, want error")
	}
	if len(h.fake.queries) != 0 {
		t.Fatalf("queries = %v, want none", h.fake.queries)
	}
}

func TestBooksList_ExpiredSession(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.expired = true

	_, _, err := h.exec("", "books", "list")
	if !errors.Is(err, errSessionExpired) {
		t.Fatalf("books list err = %v, want %v", err, errSessionExpired)
	}
	// The 401 cleared the stored credential.
	h.fake.expired = false
	if _, _, err := h.exec("", "whoami"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("whoami err = %v, want %v", err, errNotSignedIn)
	}
}

func TestBooksRemove_Confirmation(t *testing.T) {
	h := newHarness(t)
	h.login()

	if _, _, err := h.exec("n\n", "books", "rm", "5"); err != nil {
		t.Fatalf("books rm declined: %v", err)
	}
	if len(h.fake.deleted) != 0 {
		t.Fatalf("deleted = %v after declining", h.fake.deleted)
	}

	_, stderr, err := h.exec("y\n", "books", "rm", "5")
	if err != nil {
		t.Fatalf("books rm: %v", err)
	}
	if len(h.fake.deleted) != 1 {
		t.Fatalf("deleted = %v, want one delete", h.fake.deleted)
	}
	if !strings.Contains(stderr, "Deleted book 5") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestAdmin_RequiresAdministrator(t *testing.T) {
	h := newHarness(t)
	h.login()
	_, _, err := h.exec("", "admin", "users", "list")
	if !errors.Is(err, errNotAdmin) {
		t.Fatalf("admin users list err = %v, want %v", err, errNotAdmin)
	}
}

func TestProfileUpdate_KeepsUnsetFields(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, _, err := h.exec("", "profile", "update", "--name", "Ada King", "-o", "json")
	if err != nil {
		t.Fatalf("profile update: %v", err)
	}
	var user struct {
		FullName string `json:"fullName"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(out), &user); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if user.FullName != "Ada King" || user.Username != "ada@example.com" {
		t.Fatalf("user = %+v, want new name and unchanged email", user)
	}
}

func TestAdminUsersCreate(t *testing.T) {
	h := newHarness(t)
	h.fake.admin = true
	h.login()

	out, _, err := h.exec("hunter22\n", "admin", "users", "create", "--name", "Grace Hopper", "-u", "grace@example.com", "--role", "admin", "-o", "json")
	if err != nil {
		t.Fatalf("admin users create: %v", err)
	}
	var user struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal([]byte(out), &user); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if user.Username != "grace@example.com" || user.Role != "ADMIN" {
		t.Fatalf("user = %+v, want grace as admin", user)
	}
	if len(h.fake.created) != 1 || !strings.Contains(h.fake.created[0], "password=hunter22") {
		t.Fatalf("created = %v, want one request carrying the password", h.fake.created)
	}

	if _, _, err := h.exec("hunter22\n", "admin", "users", "create", "--name", "X Y", "-u", "x@example.com", "--role", "owner"); err == nil {
		t.Fatalf("unknown role accepted")
	}
	if _, _, err := h.exec("abc\n", "admin", "users", "create", "--name", "X Y", "-u", "x@example.com"); err == nil {
		t.Fatalf("short password accepted")
	}
	if len(h.fake.created) != 1 {
		t.Fatalf("created = %v, want rejected inputs to stay local", h.fake.created)
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Fatalf("parseID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"0", "-3", "abc", ""} {
		if _, err := parseID(bad); err == nil {
			t.Fatalf("parseID(%q) succeeded, want error", bad)
		}
	}
}

func TestPageFlags_Params(t *testing.T) {
	params, err := pageFlags{page: 3, size: 5}.params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.Page != 2 || params.Size != 5 {
		t.Fatalf("params = %+v, want page 2 size 5", params)
	}
	if _, err := (pageFlags{page: 0, size: 5}).params(); err == nil {
		t.Fatalf("page 0 accepted")
	}
}

func TestLogs_ShowsEarlierCommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, _, err := h.exec("", "logs", "-o", "json", "--level", "info")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	var records []logRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	found := false
	for _, rec := range records {
		if rec.Message == "signed in" {
			found = true
		}
		if rec.Level == "debug" {
			t.Fatalf("record %+v below requested level", rec)
		}
	}
	if !found {
		t.Fatalf("records = %+v, want the sign-in entry", records)
	}

	if _, _, err := h.exec("", "logs", "--level", "loud"); err == nil {
		t.Fatalf("logs --level loud succeeded, want error")
	}
}
