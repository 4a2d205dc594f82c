package listing

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/bookapi"
)

// BookService is the part of the gateway the book list uses.
type BookService interface {
	ListBooks(ctx context.Context, params bookapi.ListParams) (bookapi.Page[bookapi.Book], error)
	DeleteBook(ctx context.Context, id int64) error
}

// UserService is the part of the gateway the admin user list uses.
type UserService interface {
	ListUsers(ctx context.Context, filter bookapi.UserFilter) (bookapi.Page[bookapi.User], error)
}

// NewBooks returns the caller's library list with delete support.
func NewBooks(svc BookService, log logrus.FieldLogger) *Model[bookapi.Book] {
	return New[bookapi.Book](svc.ListBooks,
		WithRemove(svc.DeleteBook, func(b bookapi.Book) int64 { return b.ID }),
		WithReasons[bookapi.Book]("Failed to load books", "Failed to delete book"),
		WithLogger[bookapi.Book](componentLogger(log, "books")),
	)
}

// NewUsers returns the admin user list. The user endpoint has no search
// parameter, so a term containing "@" filters by email and any other term by
// full name.
func NewUsers(svc UserService, log logrus.FieldLogger) *Model[bookapi.User] {
	fetch := func(ctx context.Context, params bookapi.ListParams) (bookapi.Page[bookapi.User], error) {
		return svc.ListUsers(ctx, userFilter(params))
	}
	return New[bookapi.User](fetch,
		WithPageSize[bookapi.User](20),
		WithReasons[bookapi.User]("Failed to load users", ""),
		WithLogger[bookapi.User](componentLogger(log, "users")),
	)
}

func userFilter(params bookapi.ListParams) bookapi.UserFilter {
	term := params.Search
	params.Search = ""
	filter := bookapi.UserFilter{ListParams: params}
	if strings.Contains(term, "@") {
		filter.Username = term
	} else {
		filter.FullName = term
	}
	return filter
}

func componentLogger(log logrus.FieldLogger, list string) logrus.FieldLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithFields(logrus.Fields{"component": "listing", "list": list})
}
