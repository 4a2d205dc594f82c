// Package editor runs the create and edit flows for books.
package editor

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/failure"
	"github.com/five82/shelf/internal/forms"
	"github.com/five82/shelf/internal/nav"
)

const (
	reasonCreate = "Failed to create book"
	reasonUpdate = "Failed to update book"
	reasonLoad   = "Failed to load book"
)

// Service is the part of the gateway the flows use.
type Service interface {
	GetBook(ctx context.Context, id int64) (*bookapi.Book, error)
	CreateBook(ctx context.Context, payload bookapi.BookPayload) (*bookapi.Book, error)
	UpdateBook(ctx context.Context, id int64, payload bookapi.BookPayload) (*bookapi.Book, error)
}

var _ Service = (*bookapi.Client)(nil)

// BookForm is the editable state of a book. Cover and Content are only
// uploaded when set; on update a nil attachment keeps the stored file.
type BookForm struct {
	Title       string
	Author      string
	Description string
	Cover       *bookapi.Attachment
	Content     *bookapi.Attachment

	// Current file references, for display while editing.
	CoverRef   string
	ContentRef string
}

func (f BookForm) payload() bookapi.BookPayload {
	title := strings.TrimSpace(f.Title)
	author := f.Author
	description := f.Description
	return bookapi.BookPayload{
		Title:       &title,
		Author:      &author,
		Description: &description,
		CoverImage:  f.Cover,
		BookFile:    f.Content,
	}
}

// Flow submits book forms and routes back to the library on success.
type Flow struct {
	svc Service
	nav nav.Navigator
	log logrus.FieldLogger
}

// NewFlow builds a Flow. A nil navigator discards navigation.
func NewFlow(svc Service, navigator nav.Navigator, log logrus.FieldLogger) *Flow {
	if navigator == nil {
		navigator = nav.Discard
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Flow{svc: svc, nav: navigator, log: log.WithField("component", "editor")}
}

// Create uploads a new book.
func (f *Flow) Create(ctx context.Context, form BookForm) (*bookapi.Book, error) {
	if err := forms.Check(&forms.BookForm{Title: form.Title}); err != nil {
		return nil, err
	}
	book, err := f.svc.CreateBook(ctx, form.payload())
	if err != nil {
		f.log.WithError(err).Warn("create failed")
		return nil, failure.From(err, reasonCreate)
	}
	f.log.WithFields(logrus.Fields{"id": book.ID, "title": book.Title}).Info("book created")
	f.nav.Navigate(nav.RouteLibrary)
	return book, nil
}

// Update modifies book id.
func (f *Flow) Update(ctx context.Context, id int64, form BookForm) (*bookapi.Book, error) {
	if err := forms.Check(&forms.BookForm{Title: form.Title}); err != nil {
		return nil, err
	}
	book, err := f.svc.UpdateBook(ctx, id, form.payload())
	if err != nil {
		f.log.WithError(err).WithField("id", id).Warn("update failed")
		return nil, failure.From(err, reasonUpdate)
	}
	f.log.WithField("id", id).Info("book updated")
	f.nav.Navigate(nav.RouteLibrary)
	return book, nil
}

// Prefill loads book id into a form for editing.
func (f *Flow) Prefill(ctx context.Context, id int64) (BookForm, error) {
	book, err := f.svc.GetBook(ctx, id)
	if err != nil {
		f.log.WithError(err).WithField("id", id).Warn("load failed")
		fl := failure.From(err, reasonLoad)
		return BookForm{}, &failure.Failure{Kind: fl.Kind, Reason: reasonLoad, Err: err}
	}
	return BookForm{
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		CoverRef:    book.ImageURL,
		ContentRef:  book.ContentURL,
	}, nil
}
