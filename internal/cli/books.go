package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/editor"
	"github.com/five82/shelf/internal/failure"
)

func newBooksCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "books",
		Aliases: []string{"book"},
		Short:   "List and manage your books",
	}
	cmd.AddCommand(
		newBooksListCmd(g),
		newBooksShowCmd(g),
		newBooksAddCmd(g),
		newBooksEditCmd(g),
		newBooksRemoveCmd(g),
	)
	return cmd
}

func newBooksListCmd(g *globalOptions) *cobra.Command {
	var page int
	var search string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List one page of your books, newest first",
		Example: `  shelf books list
  shelf books list --search tolkien --page 2`,
		Args: cobra.NoArgs,
		RunE: g.run(func(ctx context.Context, rt *runtime, _ []string) error {
			if _, err := rt.requireUser(ctx); err != nil {
				return err
			}
			if err := rt.env.Books.Load(ctx, page-1, search); err != nil {
				return err
			}
			snap := rt.env.Books.Snapshot()
			return rt.out.emit(snap.Page, func(w io.Writer) error {
				if len(snap.Items()) == 0 {
					_, err := fmt.Fprintln(w, "No books found")
					return err
				}
				if err := renderBookTable(w, snap.Items()); err != nil {
					return err
				}
				return writePager(w, snap.PageIndex, snap.Page.TotalPages, snap.Page.TotalElements, "books")
			})
		}),
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number, starting at 1")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match title or author")
	return cmd
}

func renderBookTable(w io.Writer, books []bookapi.Book) error {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		added := ""
		if t := b.ParsedCreatedAt(); !t.IsZero() {
			added = t.Format("2006-01-02")
		}
		rows = append(rows, []string{strconv.FormatInt(b.ID, 10), b.Title, b.Author, b.OwnerName, added})
	}
	return renderTable(w, []string{"ID", "TITLE", "AUTHOR", "OWNER", "ADDED"}, rows)
}

func newBooksShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: g.run(func(ctx context.Context, rt *runtime, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := rt.requireUser(ctx); err != nil {
				return err
			}
			book, err := rt.env.Client.GetBook(ctx, id)
			if err != nil {
				return errors.New(failure.Reason(err, "Failed to load book"))
			}
			return printBook(rt, book)
		}),
	}
}

// bookView adds resolved file addresses to a book.
type bookView struct {
	*bookapi.Book
	CoverURL   string `json:"coverUrl"`
	ContentURL string `json:"contentFileUrl,omitempty"`
}

func printBook(rt *runtime, book *bookapi.Book) error {
	view := bookView{
		Book:       book,
		CoverURL:   rt.env.Files.BookCover(*book),
		ContentURL: rt.env.Files.BookContent(*book),
	}
	return rt.out.emit(view, func(w io.Writer) error {
		return renderFields(w, [][2]string{
			{"ID", strconv.FormatInt(book.ID, 10)},
			{"Title", book.Title},
			{"Author", book.Author},
			{"Description", book.Description},
			{"Owner", book.OwnerName},
			{"Added", book.CreatedAt},
			{"Updated", book.UpdatedAt},
			{"Cover", view.CoverURL},
			{"File", view.ContentURL},
		})
	})
}

// bookFlags are the editable fields shared by add and edit.
type bookFlags struct {
	title       string
	author      string
	description string
	cover       string
	file        string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "title")
	cmd.Flags().StringVarP(&f.author, "author", "a", "", "author")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "description")
	cmd.Flags().StringVar(&f.cover, "cover", "", "path to a cover image")
	cmd.Flags().StringVar(&f.file, "file", "", "path to the book file")
}

// apply copies the flags that were set onto form and loads named files.
func (f *bookFlags) apply(cmd *cobra.Command, form *editor.BookForm) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		form.Title = f.title
	}
	if changed("author") {
		form.Author = f.author
	}
	if changed("description") {
		form.Description = f.description
	}
	if f.cover != "" {
		a, err := bookapi.OpenAttachment(f.cover)
		if err != nil {
			return err
		}
		form.Cover = a
	}
	if f.file != "" {
		a, err := bookapi.OpenAttachment(f.file)
		if err != nil {
			return err
		}
		form.Content = a
	}
	return nil
}

func newBooksAddCmd(g *globalOptions) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a book",
		Example: `  shelf books add --title "The Hobbit" --author Tolkien --cover hobbit.jpg --file hobbit.epub`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(func(ctx context.Context, rt *runtime, _ []string) error {
				if _, err := rt.requireUser(ctx); err != nil {
					return err
				}
				var form editor.BookForm
				if err := flags.apply(cmd, &form); err != nil {
					return err
				}
				book, err := rt.env.Editor.Create(ctx, form)
				if err != nil {
					return err
				}
				return printBook(rt, book)
			})(cmd, args)
		},
	}
	flags.register(cmd)
	return cmd
}

func newBooksEditCmd(g *globalOptions) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a book; only the flags given are changed",
		Long: `Change a book. Text fields not given keep their current value. Files are
only replaced when --cover or --file is given.`,
		Example: `  shelf books edit 12 --description "Second edition"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(func(ctx context.Context, rt *runtime, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if _, err := rt.requireUser(ctx); err != nil {
					return err
				}
				form, err := rt.env.Editor.Prefill(ctx, id)
				if err != nil {
					return err
				}
				if err := flags.apply(cmd, &form); err != nil {
					return err
				}
				book, err := rt.env.Editor.Update(ctx, id, form)
				if err != nil {
					return err
				}
				return printBook(rt, book)
			})(cmd, args)
		},
	}
	flags.register(cmd)
	return cmd
}

func newBooksRemoveCmd(g *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a book",
		Args:    cobra.ExactArgs(1),
		RunE: g.run(func(ctx context.Context, rt *runtime, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := rt.requireUser(ctx); err != nil {
				return err
			}
			if !yes {
				book, err := rt.env.Client.GetBook(ctx, id)
				if err != nil {
					return errors.New(failure.Reason(err, "Failed to load book"))
				}
				ok, err := rt.prompt.confirm(fmt.Sprintf("Delete %q?", book.Title))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			if err := rt.env.Books.Remove(ctx, id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(rt.stderr, "Deleted book %d\n", id)
			return err
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
