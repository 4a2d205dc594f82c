package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/editor"
)

const (
	bookTitle = iota
	bookAuthor
	bookDescription
	bookCoverPath
	bookContentPath
)

type bookFormState struct {
	form inputForm
	// id is zero when creating.
	id         int64
	coverRef   string
	contentRef string
	loading    bool
}

func newBookFormState() bookFormState {
	return bookFormState{form: newBookInputs()}
}

func newBookInputs() inputForm {
	return newInputForm(
		fieldSpec{label: "Title"},
		fieldSpec{label: "Author"},
		fieldSpec{label: "Description"},
		fieldSpec{label: "Cover image", placeholder: "path to an image file"},
		fieldSpec{label: "Book file", placeholder: "path to a pdf or epub"},
	)
}

func (s bookFormState) editing() bool { return s.id != 0 }

func (s *bookFormState) startCreate() {
	*s = bookFormState{form: newBookInputs()}
}

func (s *bookFormState) startEdit(b bookapi.Book) {
	*s = bookFormState{form: newBookInputs(), id: b.ID, loading: true}
	s.fill(editor.BookForm{
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		CoverRef:    b.ImageURL,
		ContentRef:  b.ContentURL,
	})
}

func (s *bookFormState) fill(f editor.BookForm) {
	s.form.setValue(bookTitle, f.Title)
	s.form.setValue(bookAuthor, f.Author)
	s.form.setValue(bookDescription, f.Description)
	s.coverRef = f.CoverRef
	s.contentRef = f.ContentRef
}

// collect reads the inputs into an editor form, loading any named files.
func (s bookFormState) collect() (editor.BookForm, error) {
	out := editor.BookForm{
		Title:       s.form.value(bookTitle),
		Author:      strings.TrimSpace(s.form.value(bookAuthor)),
		Description: strings.TrimSpace(s.form.value(bookDescription)),
		CoverRef:    s.coverRef,
		ContentRef:  s.contentRef,
	}
	if path := strings.TrimSpace(s.form.value(bookCoverPath)); path != "" {
		a, err := bookapi.OpenAttachment(path)
		if err != nil {
			return out, err
		}
		out.Cover = a
	}
	if path := strings.TrimSpace(s.form.value(bookContentPath)); path != "" {
		a, err := bookapi.OpenAttachment(path)
		if err != nil {
			return out, err
		}
		out.Content = a
	}
	return out, nil
}

type prefillMsg struct {
	id   int64
	form editor.BookForm
	err  error
}

type bookSavedMsg struct {
	book *bookapi.Book
	err  error
}

func (m Model) prefillBook(id int64) tea.Cmd {
	ctx, flow := m.ctx, m.editor
	return func() tea.Msg {
		form, err := flow.Prefill(ctx, id)
		return prefillMsg{id: id, form: form, err: err}
	}
}

func (m Model) handlePrefill(msg prefillMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.bookForm.id {
		return m, nil
	}
	m.bookForm.loading = false
	if msg.err != nil {
		m.setError(reasonOf(msg.err, "Failed to load book"))
		return m, nil
	}
	m.bookForm.fill(msg.form)
	return m, nil
}

func (m Model) handleBookFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := &m.bookForm.form
	switch {
	case key.Matches(msg, m.keys.Back):
		if form.busy {
			return m, nil
		}
		return m.enter(ScreenLibrary)
	case key.Matches(msg, m.keys.NextField):
		cmd := form.next()
		return m, cmd
	case key.Matches(msg, m.keys.PrevField):
		cmd := form.prev()
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		if form.submitGroup() < 0 {
			if form.busy {
				return m, nil
			}
			cmd := form.next()
			return m, cmd
		}
		payload, err := m.bookForm.collect()
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		form.busy = true
		m.clearFlash()
		return m, m.saveBook(m.bookForm.id, payload)
	}
	cmd := form.update(msg)
	return m, cmd
}

func (m Model) saveBook(id int64, payload editor.BookForm) tea.Cmd {
	ctx, flow := m.ctx, m.editor
	return func() tea.Msg {
		var (
			book *bookapi.Book
			err  error
		)
		if id == 0 {
			book, err = flow.Create(ctx, payload)
		} else {
			book, err = flow.Update(ctx, id, payload)
		}
		return bookSavedMsg{book: book, err: err}
	}
}

func (m Model) handleBookSaved(msg bookSavedMsg) (tea.Model, tea.Cmd) {
	m.bookForm.form.busy = false
	if msg.err != nil {
		fallback := "Failed to create book"
		if m.bookForm.editing() {
			fallback = "Failed to update book"
		}
		m.setError(reasonOf(msg.err, fallback))
		return m, nil
	}
	var cmd tea.Cmd
	if m.screen == ScreenBookForm {
		var model tea.Model
		model, cmd = m.enter(ScreenLibrary)
		m = model.(Model)
	}
	if msg.book != nil {
		m.setNote("Saved " + msg.book.Title)
	}
	return m, cmd
}

func (m Model) renderBookForm() string {
	styles := m.theme.Styles()
	var b strings.Builder
	if m.bookForm.loading {
		b.WriteString(styles.MutedText.Render("Loading book..."))
		b.WriteString("\n\n")
	}
	b.WriteString(m.bookForm.form.view(m, nil))
	if m.bookForm.editing() {
		b.WriteString("\n")
		width := m.width - 24
		if ref := m.bookForm.coverRef; ref != "" {
			b.WriteString(styles.FaintText.Render("current cover  " + truncateMiddle(m.files.URL(ref), width)))
			b.WriteString("\n")
		}
		if ref := m.bookForm.contentRef; ref != "" {
			b.WriteString(styles.FaintText.Render("current file   " + truncateMiddle(m.files.URL(ref), width)))
			b.WriteString("\n")
		}
		b.WriteString(styles.FaintText.Render("Leave a path empty to keep the current file."))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter on the last field saves · esc cancel"))
	return b.String()
}
