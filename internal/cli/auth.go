package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/failure"
	"github.com/five82/shelf/internal/session"
)

func newLoginCmd(g *globalOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the credential",
		Example: `  shelf login -u ada@example.com
  printf 'secret\n' | shelf login -u ada@example.com`,
		Args: cobra.NoArgs,
		RunE: g.runAnonymous(func(ctx context.Context, rt *runtime, _ []string) error {
			name, err := rt.prompt.orAsk(username, "Email: ")
			if err != nil {
				return err
			}
			password, err := rt.prompt.password("Password: ")
			if err != nil {
				return err
			}
			if err := rt.env.Session.Login(ctx, name, password); err != nil {
				return errors.New(failure.Reason(err, "Login failed"))
			}
			return printSession(rt, rt.env.Session.Snapshot())
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account email")
	return cmd
}

func newRegisterCmd(g *globalOptions) *cobra.Command {
	var fullName, username string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: g.runAnonymous(func(ctx context.Context, rt *runtime, _ []string) error {
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
			again, err := rt.prompt.password("Repeat password: ")
			if err != nil {
				return err
			}
			if password != again {
				return errors.New("passwords do not match")
			}
			if err := rt.env.Session.Register(ctx, name, email, password); err != nil {
				return errors.New(failure.Reason(err, "Registration failed"))
			}
			return printSession(rt, rt.env.Session.Snapshot())
		}),
	}
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVarP(&username, "username", "u", "", "account email")
	return cmd
}

func newLogoutCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: g.runAnonymous(func(_ context.Context, rt *runtime, _ []string) error {
			rt.env.Session.Logout()
			_, err := fmt.Fprintln(rt.stderr, "Signed out")
			return err
		}),
	}
}

func newWhoamiCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: g.run(func(ctx context.Context, rt *runtime, _ []string) error {
			if _, err := rt.requireUser(ctx); err != nil {
				return err
			}
			return printSession(rt, rt.env.Session.Snapshot())
		}),
	}
}

// sessionView is the structured form of a session snapshot.
type sessionView struct {
	User      *bookapi.User `json:"user"`
	ExpiresAt string        `json:"expiresAt,omitempty"`
	Photo     string        `json:"photo,omitempty"`
}

func printSession(rt *runtime, snap session.Snapshot) error {
	view := sessionView{User: snap.User}
	if !snap.ExpiresAt.IsZero() {
		view.ExpiresAt = snap.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if snap.User != nil {
		view.Photo = rt.env.Files.ProfilePhoto(*snap.User)
	}
	return rt.out.emit(view, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, session.Describe(snap))
		return err
	})
}
