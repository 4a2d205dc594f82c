package bookapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/shelf/internal/credential"
)

type recordingHandler struct {
	mu    sync.Mutex
	calls int
	// tokenSeen captures whether the store was already cleared when fired.
	tokenSeen []bool
	store     credential.Store
}

func (h *recordingHandler) Unauthorized() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	_, ok := h.store.Get()
	h.tokenSeen = append(h.tokenSeen, ok)
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), DefaultBaseURL)
	}

	u, err = parseBaseURL("example.com:1234/api/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Path != "/api" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_EndpointKeepsBasePath(t *testing.T) {
	c, err := NewClient("http://host:8080/api/", credential.NewMemoryStore(""))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.endpoint("/books/7", nil); got != "http://host:8080/api/books/7" {
		t.Fatalf("endpoint = %q", got)
	}
}

func TestClient_AttachesBearerOnlyWhenStored(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var headers []string
	var userAgent, requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		_, present := r.Header["Authorization"]
		if present {
			headers = append(headers, r.Header.Get("Authorization"))
		} else {
			headers = append(headers, "<none>")
		}
		userAgent = r.Header.Get("User-Agent")
		requestID = r.Header.Get("X-Request-ID")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(User{ID: 1, Username: "a@b.com"})
	}))
	t.Cleanup(server.Close)

	store := credential.NewMemoryStore("")
	c, err := NewClient(server.URL, store)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	if _, err := c.CurrentUser(ctx); err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	_ = store.Put("tok")
	if _, err := c.CurrentUser(ctx); err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if _, err := c.Login(ctx, Credentials{Username: "a@b.com", Password: "secret"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"<none>", "Bearer tok", "<none>"}
	for i := range want {
		if headers[i] != want[i] {
			t.Fatalf("request %d Authorization = %q, want %q", i, headers[i], want[i])
		}
	}
	if !strings.HasPrefix(userAgent, "shelf/") {
		t.Fatalf("User-Agent = %q, want shelf/*", userAgent)
	}
	if requestID == "" {
		t.Fatalf("X-Request-ID missing")
	}
}

func TestClient_UnauthorizedClearsStoreThenSignals(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	t.Cleanup(server.Close)

	store := credential.NewMemoryStore("stale")
	handler := &recordingHandler{store: store}
	c, err := NewClient(server.URL, store, WithUnauthorizedHandler(handler))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		err = c.DeleteBook(context.Background(), 9)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("DeleteBook error = %v, want ErrUnauthorized", err)
		}
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "token expired" {
		t.Fatalf("error = %#v, want APIError with server message", err)
	}
	if _, ok := store.Get(); ok {
		t.Fatalf("store still holds a token after 401")
	}
	if handler.calls != 2 {
		t.Fatalf("handler calls = %d, want 2", handler.calls)
	}
	for i, seen := range handler.tokenSeen {
		if seen {
			t.Fatalf("handler call %d saw a token; store must be cleared first", i)
		}
	}
}

func TestClient_OtherStatusesPassThrough(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/books/1":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"not your book"}`))
		case "/books/2":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/books/3":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	store := credential.NewMemoryStore("tok")
	handler := &recordingHandler{store: store}
	c, err := NewClient(server.URL, store, WithUnauthorizedHandler(handler))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	_, err = c.GetBook(ctx, 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden || apiErr.Message != "not your book" {
		t.Fatalf("GetBook(1) error = %v, want 403 with message", err)
	}
	_, err = c.GetBook(ctx, 2)
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("GetBook(2) error = %v, want status 500", err)
	}
	_, err = c.GetBook(ctx, 3)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("GetBook(3) error = %v, want decode response", err)
	}
	if token, ok := store.Get(); !ok || token != "tok" {
		t.Fatalf("store changed on non-401 failure")
	}
	if handler.calls != 0 {
		t.Fatalf("handler fired %d times for non-401 statuses", handler.calls)
	}
}

func TestClient_ListBooksOmitsEmptySearch(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Page[Book]{Content: []Book{{ID: 5, Title: "Dune"}}, TotalPages: 3})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, credential.NewMemoryStore("tok"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	page, err := c.ListBooks(ctx, ListParams{Page: 1, Size: 12, SortBy: DefaultSortBy, SortDir: DefaultSortDir})
	if err != nil {
		t.Fatalf("ListBooks returned error: %v", err)
	}
	if len(page.Content) != 1 || page.TotalPages != 3 {
		t.Fatalf("page = %#v", page)
	}
	if _, err := c.ListBooks(ctx, ListParams{Size: 12, Search: "dune"}); err != nil {
		t.Fatalf("ListBooks returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Contains(queries[0], "search") {
		t.Fatalf("query %q should omit empty search", queries[0])
	}
	if !strings.Contains(queries[0], "page=1") || !strings.Contains(queries[0], "size=12") ||
		!strings.Contains(queries[0], "sortBy=createdAt") || !strings.Contains(queries[0], "sortDir=desc") {
		t.Fatalf("query %q missing paging params", queries[0])
	}
	if !strings.Contains(queries[1], "search=dune") {
		t.Fatalf("query %q missing search", queries[1])
	}
}

func TestClient_UpdateBookOmitsAbsentParts(t *testing.T) {
	t.Parallel()

	parts := make(chan map[string]string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			http.Error(w, "bad content type", http.StatusBadRequest)
			return
		}
		got := map[string]string{}
		reader := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(p)
			got[p.FormName()] = string(data)
		}
		parts <- got
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Book{ID: 3, Title: "Kept"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, credential.NewMemoryStore("tok"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	desc := "fresh blurb"
	if _, err := c.UpdateBook(context.Background(), 3, BookPayload{Description: &desc}); err != nil {
		t.Fatalf("UpdateBook returned error: %v", err)
	}

	got := <-parts
	if got["description"] != desc {
		t.Fatalf("description = %q, want %q", got["description"], desc)
	}
	for _, key := range []string{"title", "author", "coverImage", "bookFile"} {
		if _, ok := got[key]; ok {
			t.Fatalf("payload contains %q, want it omitted: %v", key, got)
		}
	}
}

func TestForm_FileParts(t *testing.T) {
	title := "T"
	form := BookPayload{
		Title:      &title,
		CoverImage: NewAttachment("cover.png", []byte("\x89PNG\r\n\x1a\n0000")),
		BookFile:   &Attachment{Filename: "empty.txt"},
	}.Form()

	names := form.Names()
	if len(names) != 2 || names[0] != "title" || names[1] != "coverImage" {
		t.Fatalf("Names = %v, want [title coverImage]", names)
	}

	_, contentType, err := form.encode()
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data; boundary=") {
		t.Fatalf("content type = %q", contentType)
	}
}

func TestNewAttachment_DetectsContentType(t *testing.T) {
	a := NewAttachment("notes.txt", []byte("plain text content"))
	if !strings.HasPrefix(a.ContentType, "text/plain") {
		t.Fatalf("ContentType = %q, want text/plain", a.ContentType)
	}
}

func TestClient_UploadPhotoRejectsEmpty(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", credential.NewMemoryStore(""))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.UploadPhoto(context.Background(), nil); err == nil {
		t.Fatalf("UploadPhoto(nil) returned nil error")
	}
}

func TestClient_UpdateUserStatusEncodesQuery(t *testing.T) {
	t.Parallel()

	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(User{ID: 4, Status: "BLOCKED"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, credential.NewMemoryStore("tok"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	user, err := c.UpdateUserStatus(context.Background(), 4, "BLOCKED")
	if err != nil {
		t.Fatalf("UpdateUserStatus returned error: %v", err)
	}
	if user.IsActive() {
		t.Fatalf("user should not be active")
	}
	if line := <-got; line != "PATCH /admin/users/4/status?status=BLOCKED" {
		t.Fatalf("request = %q", line)
	}
}

func TestClient_RequestSendsJSONAndDecodes(t *testing.T) {
	var gotMethod, gotType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":9,"title":"Echo"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api", credential.NewMemoryStore("T"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	var book Book
	if err := c.Request(context.Background(), http.MethodPost, "/echo", JSONBody(map[string]string{"title": "Echo"}), &book); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if gotMethod != http.MethodPost || gotType != "application/json" || gotBody["title"] != "Echo" {
		t.Fatalf("request = %s %q %v", gotMethod, gotType, gotBody)
	}
	if book.ID != 9 || book.Title != "Echo" {
		t.Fatalf("book = %+v, want id 9", book)
	}
}

func TestClient_CreateUserSendsQueryParams(t *testing.T) {
	t.Parallel()

	type seen struct {
		method, path string
		query        url.Values
		bodyLen      int64
	}
	got := make(chan seen, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- seen{r.Method, r.URL.Path, r.URL.Query(), r.ContentLength}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(User{ID: 8, Username: r.URL.Query().Get("username"), Role: RoleUser})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/api", credential.NewMemoryStore("tok"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	user, err := c.CreateUser(context.Background(), NewUser{FullName: "Grace Hopper", Username: "grace@example.com", Password: "cobol!"})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if user.ID != 8 || user.Username != "grace@example.com" {
		t.Fatalf("user = %+v", user)
	}
	req := <-got
	if req.method != http.MethodPost || req.path != "/api/admin/users" {
		t.Fatalf("request = %s %s", req.method, req.path)
	}
	if req.query.Get("fullName") != "Grace Hopper" || req.query.Get("password") != "cobol!" {
		t.Fatalf("query = %v", req.query)
	}
	if _, ok := req.query["role"]; ok {
		t.Fatalf("empty role sent: %v", req.query)
	}
	if req.bodyLen > 0 {
		t.Fatalf("body length = %d, want none", req.bodyLen)
	}

	if _, err := c.CreateUser(context.Background(), NewUser{FullName: "Root", Username: "root@example.com", Password: "secret", Role: RoleAdmin}); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if req := <-got; req.query.Get("role") != "ADMIN" {
		t.Fatalf("role = %q, want ADMIN", req.query.Get("role"))
	}
}
