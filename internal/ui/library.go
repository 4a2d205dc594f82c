package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/bookapi"
)

type libraryState struct {
	cursor    int
	searching bool
	search    textinput.Model
	// pendingDelete is the book awaiting y/n confirmation.
	pendingDelete *bookapi.Book
	removing      bool
}

type booksMsg struct {
	err error
}

type removedMsg struct {
	title string
	err   error
}

func (m Model) loadBooks(page int, query string) tea.Cmd {
	ctx, books := m.ctx, m.books
	return func() tea.Msg {
		return booksMsg{err: books.Load(ctx, page, query)}
	}
}

func (m Model) searchBooks(term string) tea.Cmd {
	ctx, books := m.ctx, m.books
	return func() tea.Msg {
		return booksMsg{err: books.Search(ctx, term)}
	}
}

func (m Model) changeBookPage(n int) tea.Cmd {
	ctx, books := m.ctx, m.books
	return func() tea.Msg {
		return booksMsg{err: books.ChangePage(ctx, n)}
	}
}

func (m Model) reloadBooks() tea.Cmd {
	ctx, books := m.ctx, m.books
	return func() tea.Msg {
		return booksMsg{err: books.Reload(ctx)}
	}
}

func (m Model) removeBook(b bookapi.Book) tea.Cmd {
	ctx, books := m.ctx, m.books
	return func() tea.Msg {
		return removedMsg{title: b.Title, err: books.Remove(ctx, b.ID)}
	}
}

func (m Model) handleBooks(msg booksMsg) (tea.Model, tea.Cmd) {
	if reason := reasonOf(msg.err, "Failed to load books"); reason != "" {
		m.setError(reason)
	}
	m.clampCursor()
	return m, nil
}

func (m Model) handleRemoved(msg removedMsg) (tea.Model, tea.Cmd) {
	m.library.removing = false
	if msg.err != nil {
		m.setError(reasonOf(msg.err, "Failed to delete book"))
		return m, nil
	}
	m.setNote(fmt.Sprintf("Deleted %q", msg.title))
	m.clampCursor()
	return m, nil
}

func (m *Model) clampCursor() {
	n := len(m.books.Snapshot().Items())
	if m.library.cursor >= n {
		m.library.cursor = n - 1
	}
	if m.library.cursor < 0 {
		m.library.cursor = 0
	}
}

func (m Model) selectedBook() (bookapi.Book, bool) {
	items := m.books.Snapshot().Items()
	if m.library.cursor < 0 || m.library.cursor >= len(items) {
		return bookapi.Book{}, false
	}
	return items[m.library.cursor], true
}

func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.library.searching {
		return m.handleSearchKey(msg)
	}
	if m.library.pendingDelete != nil {
		return m.handleDeleteConfirmKey(msg)
	}

	snap := m.books.Snapshot()
	count := len(snap.Items())

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.library.cursor < count-1 {
			m.library.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.library.cursor > 0 {
			m.library.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.library.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		if count > 0 {
			m.library.cursor = count - 1
		}
	case key.Matches(msg, m.keys.PrevPage):
		if snap.HasPrev() {
			m.library.cursor = 0
			return m, m.changeBookPage(snap.PageIndex - 1)
		}
	case key.Matches(msg, m.keys.NextPage):
		if snap.HasNext() {
			m.library.cursor = 0
			return m, m.changeBookPage(snap.PageIndex + 1)
		}
	case key.Matches(msg, m.keys.Search):
		in := textinput.New()
		in.Prompt = "/"
		in.Placeholder = "title or author"
		in.SetValue(snap.Search)
		in.CursorEnd()
		in.Focus()
		m.library.search = in
		m.library.searching = true
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Reload):
		m.clearFlash()
		return m, m.reloadBooks()
	case key.Matches(msg, m.keys.Add):
		m.bookForm.startCreate()
		m.clearFlash()
		return m.enter(ScreenBookForm)
	case key.Matches(msg, m.keys.Edit):
		book, ok := m.selectedBook()
		if !ok {
			return m, nil
		}
		m.bookForm.startEdit(book)
		m.clearFlash()
		model, cmd := m.enter(ScreenBookForm)
		return model, tea.Batch(cmd, m.prefillBook(book.ID))
	case key.Matches(msg, m.keys.Delete):
		if book, ok := m.selectedBook(); ok && !m.library.removing {
			m.library.pendingDelete = &book
		}
	case key.Matches(msg, m.keys.Profile):
		return m.enter(ScreenProfile)
	case key.Matches(msg, m.keys.Users):
		return m.enter(ScreenAdmin)
	case key.Matches(msg, m.keys.Logout):
		return m.signOut()
	case key.Matches(msg, m.keys.Back):
		m.clearFlash()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.library.searching = false
		m.library.cursor = 0
		return m, m.searchBooks(m.library.search.Value())
	case "esc":
		m.library.searching = false
		return m, nil
	}
	var cmd tea.Cmd
	m.library.search, cmd = m.library.search.Update(msg)
	return m, cmd
}

func (m Model) handleDeleteConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	book := *m.library.pendingDelete
	m.library.pendingDelete = nil
	if key.Matches(msg, m.keys.Confirm) {
		m.library.removing = true
		m.clearFlash()
		return m, m.removeBook(book)
	}
	return m, nil
}

func (m Model) signOut() (tea.Model, tea.Cmd) {
	m.sess.Logout()
	m.snap = m.sess.Snapshot()
	model, cmd := m.enter(ScreenLogin)
	next := model.(Model)
	next.setNote("Signed out")
	return next, cmd
}

func (m Model) renderLibrary(height int) string {
	styles := m.theme.Styles()
	snap := m.books.Snapshot()
	items := snap.Items()
	innerWidth := m.width - 4
	if innerWidth < 20 {
		innerWidth = 20
	}

	var b strings.Builder
	if m.library.searching {
		b.WriteString(m.library.search.View())
		b.WriteString("\n\n")
	}

	if len(items) == 0 {
		switch {
		case snap.Loading:
			b.WriteString(styles.MutedText.Render("Loading books..."))
		case snap.Search != "":
			b.WriteString(styles.MutedText.Render(fmt.Sprintf("No books match %q", snap.Search)))
		default:
			b.WriteString(styles.MutedText.Render("No books yet. Press a to add one."))
		}
		return b.String()
	}

	titleW := innerWidth * 45 / 100
	authorW := innerWidth * 25 / 100
	ownerW := innerWidth - titleW - authorW - 12
	if ownerW < 4 {
		ownerW = 4
	}
	row := func(title, author, owner, date string) string {
		return padRight(truncate(title, titleW-1), titleW) +
			padRight(truncate(author, authorW-1), authorW) +
			padRight(truncate(owner, ownerW-1), ownerW) +
			date
	}
	b.WriteString(styles.FaintText.Render(row("TITLE", "AUTHOR", "OWNER", "ADDED")))
	b.WriteString("\n")

	// Rows reserved for header, pager and detail lines.
	visible := height - 5
	if m.library.searching {
		visible -= 2
	}
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.library.cursor >= visible {
		start = m.library.cursor - visible + 1
	}
	for i := start; i < len(items) && i < start+visible; i++ {
		book := items[i]
		date := ""
		if t := book.ParsedCreatedAt(); !t.IsZero() {
			date = t.Format("2006-01-02")
		}
		line := row(book.Title, book.Author, book.OwnerName, date)
		if i == m.library.cursor {
			line = styles.Selected.Width(innerWidth).Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	pager := fmt.Sprintf("Page %d of %d · %d books", snap.PageIndex+1, max(snap.Page.TotalPages, 1), snap.Page.TotalElements)
	if snap.Loading {
		pager += " · loading"
	}
	b.WriteString(styles.MutedText.Render(pager))

	if book, ok := m.selectedBook(); ok {
		b.WriteString("\n")
		b.WriteString(m.renderBookDetail(book, innerWidth))
	}
	return b.String()
}

func (m Model) renderBookDetail(book bookapi.Book, width int) string {
	styles := m.theme.Styles()
	parts := []string{}
	if cover := m.files.BookCover(book); cover != "" {
		parts = append(parts, "cover "+truncateMiddle(cover, width/2))
	}
	if content := m.files.BookContent(book); content != "" {
		parts = append(parts, "file "+truncateMiddle(content, width/2))
	}
	if len(parts) == 0 {
		return styles.FaintText.Render(truncate(book.Description, width))
	}
	return styles.FaintText.Render(truncate(strings.Join(parts, "  "), width))
}

func padRight(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
