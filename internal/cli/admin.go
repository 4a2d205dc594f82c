package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/failure"
	"github.com/five82/shelf/internal/forms"
)

const adminPageSize = 20

func newAdminCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator commands",
	}
	users := &cobra.Command{
		Use:   "users",
		Short: "List and moderate accounts",
	}
	users.AddCommand(
		newAdminUsersListCmd(g),
		newAdminUsersShowCmd(g),
		newAdminUsersCreateCmd(g),
		newAdminStatusCmd(g, "ban", bookapi.StatusBanned),
		newAdminStatusCmd(g, "unban", bookapi.StatusActive),
		newAdminUserBooksCmd(g),
	)
	cmd.AddCommand(users, newAdminBooksCmd(g))
	return cmd
}

// pageFlags are the paging flags of admin listings. Pages start at 1.
type pageFlags struct {
	page int
	size int
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&p.page, "page", "p", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&p.size, "size", adminPageSize, "entries per page")
}

func (p pageFlags) params() (bookapi.ListParams, error) {
	if p.page < 1 {
		return bookapi.ListParams{}, fmt.Errorf("invalid page %d", p.page)
	}
	if p.size < 1 {
		return bookapi.ListParams{}, fmt.Errorf("invalid page size %d", p.size)
	}
	return bookapi.ListParams{Page: p.page - 1, Size: p.size}, nil
}

func newAdminUsersListCmd(g *globalOptions) *cobra.Command {
	var paging pageFlags
	var fullName, username, role, status string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List accounts",
		Example: `  shelf admin users list --status banned
  shelf admin users list --name ada -o json`,
		Args: cobra.NoArgs,
		RunE: g.run(func(ctx context.Context, rt *runtime, _ []string) error {
			if _, err := rt.requireAdmin(ctx); err != nil {
				return err
			}
			params, err := paging.params()
			if err != nil {
				return err
			}
			filter := bookapi.UserFilter{
				ListParams: params,
				FullName:   fullName,
				Username:   username,
				Role:       bookapi.Role(strings.ToUpper(role)),
				Status:     bookapi.UserStatus(strings.ToUpper(status)),
			}
			page, err := rt.env.Client.ListUsers(ctx, filter)
			if err != nil {
				return errors.New(failure.Reason(err, "Failed to load users"))
			}
			return rt.out.emit(page, func(w io.Writer) error {
				if len(page.Content) == 0 {
					_, err := fmt.Fprintln(w, "No users found")
					return err
				}
				rows := make([][]string, 0, len(page.Content))
				for _, u := range page.Content {
					rows = append(rows, []string{
						strconv.FormatInt(u.ID, 10), u.FullName, u.Username,
						string(u.Role), string(u.Status), strconv.Itoa(u.BooksCount),
					})
				}
				if err := renderTable(w, []string{"ID", "NAME", "EMAIL", "ROLE", "STATUS", "BOOKS"}, rows); err != nil {
					return err
				}
				return writePager(w, page.Number, page.TotalPages, page.TotalElements, "users")
			})
		}),
	}
	paging.register(cmd)
	cmd.Flags().StringVar(&fullName, "name", "", "match full name")
	cmd.Flags().StringVarP(&username, "username", "u", "", "match email")
	cmd.Flags().StringVar(&role, "role", "", "ADMIN or USER")
	cmd.Flags().StringVar(&status, "status", "", "ACTIVE or BANNED")
	return cmd
}

func writePager(w io.Writer, number, totalPages int, total int64, noun string) error {
	_, err := fmt.Fprintf(w, "page %d of %d, %d %s\n", number+1, max(totalPages, 1), total, noun)
	return err
}

func newAdminUsersShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: g.run(func(ctx context.Context, rt *runtime, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := rt.requireAdmin(ctx); err != nil {
				return err
			}
			user, err := rt.env.Client.GetUser(ctx, id)
			if err != nil {
				return errors.New(failure.Reason(err, "Failed to load user"))
			}
			return printUser(rt, user)
		}),
	}
}

func newAdminUsersCreateCmd(g *globalOptions) *cobra.Command {
	var fullName, username, role string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create an account",
		Example: `  shelf admin users create --name "Grace Hopper" -u grace@example.com --role admin`,
		Args:    cobra.NoArgs,
		RunE: g.run(func(ctx context.Context, rt *runtime, _ []string) error {
			if _, err := rt.requireAdmin(ctx); err != nil {
				return err
			}
			r := bookapi.Role(strings.ToUpper(strings.TrimSpace(role)))
			if r != bookapi.RoleUser && r != bookapi.RoleAdmin {
				return fmt.Errorf("invalid role %q (want USER or ADMIN)", role)
			}
			name, err := rt.prompt.orAsk(fullName, "Full name: ")
			if err != nil {
				return err
			}
			email, err := rt.prompt.orAsk(username, "Email: ")
			if err != nil {
				return err
			}
			password, err := rt.prompt.password("Password: ")
			if err != nil {
				return err
			}
			if err := forms.Check(&forms.RegisterForm{FullName: name, Username: email, Password: password}); err != nil {
				return err
			}
			user, err := rt.env.Client.CreateUser(ctx, bookapi.NewUser{FullName: name, Username: email, Password: password, Role: r})
			if err != nil {
				return errors.New(failure.Reason(err, "Failed to create user"))
			}
			rt.env.Log.WithField("user_id", user.ID).WithField("role", user.Role).Info("user created")
			return printUser(rt, user)
		}),
	}
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVarP(&username, "username", "u", "", "account email")
	cmd.Flags().StringVar(&role, "role", string(bookapi.RoleUser), "USER or ADMIN")
	return cmd
}

func newAdminStatusCmd(g *globalOptions, verb string, status bookapi.UserStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: fmt.Sprintf("Set an account to %s", strings.ToLower(string(status))),
		Args:  cobra.ExactArgs(1),
		RunE: g.run(func(ctx context.Context, rt *runtime, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			self, err := rt.requireAdmin(ctx)
			if err != nil {
				return err
			}
			if id == self.ID && status == bookapi.StatusBanned {
				return errors.New("you cannot ban yourself")
			}
			user, err := rt.env.Client.UpdateUserStatus(ctx, id, status)
			if err != nil {
				return errors.New(failure.Reason(err, "Failed to update user"))
			}
			rt.env.Log.WithField("user_id", id).WithField("status", status).Info("user status changed")
			return printUser(rt, user)
		}),
	}
}

func newAdminUserBooksCmd(g *globalOptions) *cobra.Command {
	var paging pageFlags
	var search string

	cmd := &cobra.Command{
		Use:   "books <id>",
		Short: "List one account's books",
		Args:  cobra.ExactArgs(1),
		RunE: g.run(func(ctx context.Context, rt *runtime, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := rt.requireAdmin(ctx); err != nil {
				return err
			}
			params, err := paging.params()
			if err != nil {
				return err
			}
			params.Search = strings.TrimSpace(search)
			page, err := rt.env.Client.ListUserBooks(ctx, id, params)
			if err != nil {
				return errors.New(failure.Reason(err, "Failed to load books"))
			}
			return emitBookPage(rt, page)
		}),
	}
	paging.register(cmd)
	cmd.Flags().StringVarP(&search, "search", "s", "", "match title or author")
	return cmd
}

func newAdminBooksCmd(g *globalOptions) *cobra.Command {
	var paging pageFlags
	var title, author string
	var owner int64

	cmd := &cobra.Command{
		Use:     "books",
		Short:   "List books across every account",
		Example: `  shelf admin books --author tolkien --owner 3`,
		Args:    cobra.NoArgs,
		RunE: g.run(func(ctx context.Context, rt *runtime, _ []string) error {
			if _, err := rt.requireAdmin(ctx); err != nil {
				return err
			}
			params, err := paging.params()
			if err != nil {
				return err
			}
			page, err := rt.env.Client.ListAllBooks(ctx, bookapi.BookFilter{
				ListParams: params,
				Title:      title,
				Author:     author,
				OwnerID:    owner,
			})
			if err != nil {
				return errors.New(failure.Reason(err, "Failed to load books"))
			}
			return emitBookPage(rt, page)
		}),
	}
	paging.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "match title")
	cmd.Flags().StringVar(&author, "author", "", "match author")
	cmd.Flags().Int64Var(&owner, "owner", 0, "owner account id")
	return cmd
}

func emitBookPage(rt *runtime, page bookapi.Page[bookapi.Book]) error {
	return rt.out.emit(page, func(w io.Writer) error {
		if len(page.Content) == 0 {
			_, err := fmt.Fprintln(w, "No books found")
			return err
		}
		if err := renderBookTable(w, page.Content); err != nil {
			return err
		}
		return writePager(w, page.Number, page.TotalPages, page.TotalElements, "books")
	})
}
