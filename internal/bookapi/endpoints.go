package bookapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
)

// Sort defaults match the library's "newest first" listing.
const (
	DefaultSortBy  = "createdAt"
	DefaultSortDir = "desc"
)

// ListParams configures paginated list requests. Search is dropped from the
// query string when empty.
type ListParams struct {
	Page    int    `url:"page"`
	Size    int    `url:"size"`
	Search  string `url:"search,omitempty"`
	SortBy  string `url:"sortBy,omitempty"`
	SortDir string `url:"sortDir,omitempty"`
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	ListParams
	FullName string     `url:"fullName,omitempty"`
	Username string     `url:"username,omitempty"`
	Role     Role       `url:"role,omitempty"`
	Status   UserStatus `url:"status,omitempty"`
}

// BookFilter narrows the admin book listing.
type BookFilter struct {
	ListParams
	Title   string `url:"title,omitempty"`
	Author  string `url:"author,omitempty"`
	OwnerID int64  `url:"ownerId,omitempty"`
}

// BookPayload is the multipart shape for create and update. Nil text fields
// and nil attachments are left out of the request entirely.
type BookPayload struct {
	Title       *string
	Author      *string
	Description *string
	CoverImage  *Attachment
	BookFile    *Attachment
}

// Form builds the multipart form for the payload.
func (p BookPayload) Form() *Form {
	return NewForm().
		Field("title", p.Title).
		Field("author", p.Author).
		Field("description", p.Description).
		Attach("coverImage", p.CoverImage).
		Attach("bookFile", p.BookFile)
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var payload AuthResponse
	cl := call{method: http.MethodPost, path: "/auth/login", body: JSONBody(creds), public: true}
	if err := c.send(ctx, cl, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Register creates an account and returns its token and user record.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var payload AuthResponse
	cl := call{method: http.MethodPost, path: "/auth/register", body: JSONBody(reg), public: true}
	if err := c.send(ctx, cl, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CurrentUser fetches the record for the stored credential.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.send(ctx, call{method: http.MethodGet, path: "/users/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile replaces the caller's display name and username.
func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (*User, error) {
	var user User
	cl := call{method: http.MethodPut, path: "/users/me", body: JSONBody(patch)}
	if err := c.send(ctx, cl, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword changes the caller's password.
func (c *Client) UpdatePassword(ctx context.Context, change PasswordChange) error {
	cl := call{method: http.MethodPut, path: "/users/me/password", body: JSONBody(change)}
	return c.send(ctx, cl, nil)
}

// UploadPhoto replaces the caller's profile photo.
func (c *Client) UploadPhoto(ctx context.Context, photo *Attachment) (*User, error) {
	if photo == nil || len(photo.Data) == 0 {
		return nil, fmt.Errorf("photo is empty")
	}
	var user User
	cl := call{method: http.MethodPut, path: "/users/me/photo", body: NewForm().Attach("file", photo)}
	if err := c.send(ctx, cl, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListBooks fetches one page of the caller's books.
func (c *Client) ListBooks(ctx context.Context, params ListParams) (Page[Book], error) {
	var page Page[Book]
	if err := c.list(ctx, "/books", params, &page); err != nil {
		return Page[Book]{}, err
	}
	return page, nil
}

// GetBook fetches a single book.
func (c *Client) GetBook(ctx context.Context, id int64) (*Book, error) {
	var book Book
	if err := c.send(ctx, call{method: http.MethodGet, path: bookPath(id)}, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook uploads a new book.
func (c *Client) CreateBook(ctx context.Context, payload BookPayload) (*Book, error) {
	var book Book
	cl := call{method: http.MethodPost, path: "/books", body: payload.Form()}
	if err := c.send(ctx, cl, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook modifies an existing book. Omitted attachments keep the stored files.
func (c *Client) UpdateBook(ctx context.Context, id int64, payload BookPayload) (*Book, error) {
	var book Book
	cl := call{method: http.MethodPut, path: bookPath(id), body: payload.Form()}
	if err := c.send(ctx, cl, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book.
func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.send(ctx, call{method: http.MethodDelete, path: bookPath(id)}, nil)
}

// ListUsers fetches one page of users (admin only).
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) (Page[User], error) {
	var page Page[User]
	if err := c.list(ctx, "/admin/users", filter, &page); err != nil {
		return Page[User]{}, err
	}
	return page, nil
}

// GetUser fetches one user (admin only).
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := c.send(ctx, call{method: http.MethodGet, path: adminUserPath(id)}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// NewUser is an account created by an administrator. The server reads the
// fields as query parameters; an empty Role means USER.
type NewUser struct {
	FullName string `url:"fullName"`
	Username string `url:"username"`
	Password string `url:"password"`
	Role     Role   `url:"role,omitempty"`
}

// CreateUser creates an account with the given role (admin only).
func (c *Client) CreateUser(ctx context.Context, nu NewUser) (*User, error) {
	values, err := query.Values(nu)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	var user User
	cl := call{method: http.MethodPost, path: "/admin/users", query: values}
	if err := c.send(ctx, cl, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserStatus changes an account's status (admin only).
func (c *Client) UpdateUserStatus(ctx context.Context, id int64, status UserStatus) (*User, error) {
	if strings.TrimSpace(string(status)) == "" {
		return nil, fmt.Errorf("status required")
	}
	var user User
	cl := call{
		method: http.MethodPatch,
		path:   adminUserPath(id) + "/status",
		query:  url.Values{"status": []string{string(status)}},
	}
	if err := c.send(ctx, cl, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUserBooks fetches one page of a user's books (admin only).
func (c *Client) ListUserBooks(ctx context.Context, userID int64, params ListParams) (Page[Book], error) {
	var page Page[Book]
	if err := c.list(ctx, adminUserPath(userID)+"/books", params, &page); err != nil {
		return Page[Book]{}, err
	}
	return page, nil
}

// ListAllBooks fetches one page across every user's books (admin only).
func (c *Client) ListAllBooks(ctx context.Context, filter BookFilter) (Page[Book], error) {
	var page Page[Book]
	if err := c.list(ctx, "/admin/books", filter, &page); err != nil {
		return Page[Book]{}, err
	}
	return page, nil
}

func (c *Client) list(ctx context.Context, path string, params any, dest any) error {
	values, err := query.Values(params)
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}
	return c.send(ctx, call{method: http.MethodGet, path: path, query: values}, dest)
}

func bookPath(id int64) string {
	return "/books/" + strconv.FormatInt(id, 10)
}

func adminUserPath(id int64) string {
	return "/admin/users/" + strconv.FormatInt(id, 10)
}
