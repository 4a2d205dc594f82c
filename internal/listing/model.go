// Package listing holds one page of a server-paginated collection together
// with the search term and page index that produced it.
package listing

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/failure"
)

// ErrSuperseded is returned by a load whose result arrived after a newer load
// was started. The result is discarded.
var ErrSuperseded = errors.New("listing: superseded by a newer load")

// DefaultPageSize matches the library grid.
const DefaultPageSize = 12

// FetchFunc retrieves one page.
type FetchFunc[T any] func(ctx context.Context, params bookapi.ListParams) (bookapi.Page[T], error)

// RemoveFunc deletes one item on the server.
type RemoveFunc func(ctx context.Context, id int64) error

// Snapshot is a copy of the model's state.
type Snapshot[T any] struct {
	Page      bookapi.Page[T]
	PageIndex int
	Search    string
	Loading   bool
	LastError error
}

// Items returns the entries of the current page.
func (s Snapshot[T]) Items() []T {
	return s.Page.Content
}

// HasPrev reports whether a previous page exists.
func (s Snapshot[T]) HasPrev() bool {
	return s.PageIndex > 0
}

// HasNext reports whether the server advertised a following page.
func (s Snapshot[T]) HasNext() bool {
	return s.PageIndex+1 < s.Page.TotalPages
}

// Model is a paginated, searchable list backed by the server.
type Model[T any] struct {
	fetch    FetchFunc[T]
	remove   RemoveFunc
	identity func(T) int64
	pageSize int
	log      logrus.FieldLogger

	loadReason   string
	removeReason string

	mu        sync.RWMutex
	page      bookapi.Page[T]
	pageIndex int
	search    string
	loading   bool
	lastErr   error
	seq       uint64
}

// Option configures a Model.
type Option[T any] func(*Model[T])

// WithRemove enables Remove. identity extracts an item's id.
func WithRemove[T any](fn RemoveFunc, identity func(T) int64) Option[T] {
	return func(m *Model[T]) {
		m.remove = fn
		m.identity = identity
	}
}

// WithPageSize overrides DefaultPageSize.
func WithPageSize[T any](n int) Option[T] {
	return func(m *Model[T]) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger[T any](l logrus.FieldLogger) Option[T] {
	return func(m *Model[T]) {
		if l != nil {
			m.log = l
		}
	}
}

// WithReasons sets the messages shown when a load or a removal fails.
func WithReasons[T any](load, remove string) Option[T] {
	return func(m *Model[T]) {
		if load != "" {
			m.loadReason = load
		}
		if remove != "" {
			m.removeReason = remove
		}
	}
}

// New constructs a Model around fetch.
func New[T any](fetch FetchFunc[T], opts ...Option[T]) *Model[T] {
	m := &Model[T]{
		fetch:        fetch,
		pageSize:     DefaultPageSize,
		log:          logrus.StandardLogger(),
		loadReason:   "Failed to load items",
		removeReason: "Failed to delete item",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a copy of the current state.
func (m *Model[T]) Snapshot() Snapshot[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page := m.page
	page.Content = append([]T(nil), m.page.Content...)
	return Snapshot[T]{
		Page:      page,
		PageIndex: m.pageIndex,
		Search:    m.search,
		Loading:   m.loading,
		LastError: m.lastErr,
	}
}

// Load fetches pageIndex for query and replaces the held page. Only the most
// recently started load may commit; older ones return ErrSuperseded. The page
// index and search term change together with the page, so a failed load
// leaves all three as they were.
func (m *Model[T]) Load(ctx context.Context, pageIndex int, query string) error {
	if pageIndex < 0 {
		return failure.Invalid("Page number cannot be negative")
	}
	query = strings.TrimSpace(query)

	m.mu.Lock()
	m.seq++
	ticket := m.seq
	m.loading = true
	m.mu.Unlock()

	page, err := m.fetch(ctx, bookapi.ListParams{
		Page:    pageIndex,
		Size:    m.pageSize,
		Search:  query,
		SortBy:  bookapi.DefaultSortBy,
		SortDir: bookapi.DefaultSortDir,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket != m.seq {
		m.log.WithFields(logrus.Fields{"page": pageIndex, "search": query}).Debug("discarding superseded page")
		return ErrSuperseded
	}
	m.loading = false
	if err != nil {
		m.lastErr = withReason(err, m.loadReason)
		m.log.WithError(err).WithField("page", pageIndex).Warn("load failed")
		return m.lastErr
	}
	if page.Content == nil {
		page.Content = []T{}
	}
	m.page = page
	m.pageIndex = pageIndex
	m.search = query
	m.lastErr = nil
	return nil
}

// Search loads the first page for term.
func (m *Model[T]) Search(ctx context.Context, term string) error {
	return m.Load(ctx, 0, term)
}

// ChangePage loads page n keeping the current search term. Indexes past the
// last page are sent as-is; the server decides what they contain.
func (m *Model[T]) ChangePage(ctx context.Context, n int) error {
	m.mu.RLock()
	query := m.search
	m.mu.RUnlock()
	return m.Load(ctx, n, query)
}

// Reload fetches the current page again.
func (m *Model[T]) Reload(ctx context.Context) error {
	m.mu.RLock()
	idx, query := m.pageIndex, m.search
	m.mu.RUnlock()
	return m.Load(ctx, idx, query)
}

// Remove deletes id on the server and drops it from the held page without
// refetching. Page totals are left as the server last reported them.
func (m *Model[T]) Remove(ctx context.Context, id int64) error {
	if m.remove == nil {
		return errors.New("listing: remove not supported")
	}
	if err := m.remove(ctx, id); err != nil {
		m.log.WithError(err).WithField("id", id).Warn("remove failed")
		return withReason(err, m.removeReason)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.page.Content[:0:0]
	for _, item := range m.page.Content {
		if m.identity(item) != id {
			kept = append(kept, item)
		}
	}
	m.page.Content = kept
	m.log.WithField("id", id).Info("removed")
	return nil
}

// withReason classifies err but always shows reason, as list screens do not
// surface server text.
func withReason(err error, reason string) *failure.Failure {
	f := failure.From(err, reason)
	return &failure.Failure{Kind: f.Kind, Reason: reason, Err: err}
}
