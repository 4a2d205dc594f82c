package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/failure"
)

func newProfileCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your profile",
		Args:  cobra.NoArgs,
		RunE: g.run(func(ctx context.Context, rt *runtime, _ []string) error {
			user, err := rt.requireUser(ctx)
			if err != nil {
				return err
			}
			return printUser(rt, user)
		}),
	}
	cmd.AddCommand(
		newProfileUpdateCmd(g),
		newProfilePasswordCmd(g),
		newProfilePhotoCmd(g),
	)
	return cmd
}

func printUser(rt *runtime, user *bookapi.User) error {
	return rt.out.emit(user, func(w io.Writer) error {
		joined := ""
		if t := user.ParsedCreatedAt(); !t.IsZero() {
			joined = t.Format("2006-01-02")
		}
		return renderFields(w, [][2]string{
			{"ID", strconv.FormatInt(user.ID, 10)},
			{"Name", user.FullName},
			{"Email", user.Username},
			{"Role", string(user.Role)},
			{"Status", string(user.Status)},
			{"Books", strconv.Itoa(user.BooksCount)},
			{"Joined", joined},
			{"Photo", rt.env.Files.ProfilePhoto(*user)},
		})
	})
}

func newProfileUpdateCmd(g *globalOptions) *cobra.Command {
	var fullName, username string

	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Change your name or email",
		Example: `  shelf profile update --name "Ada Lovelace"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(func(ctx context.Context, rt *runtime, _ []string) error {
				user, err := rt.requireUser(ctx)
				if err != nil {
					return err
				}
				patch := bookapi.ProfilePatch{FullName: user.FullName, Username: user.Username}
				if cmd.Flags().Changed("name") {
					patch.FullName = fullName
				}
				if cmd.Flags().Changed("username") {
					patch.Username = username
				}
				if err := rt.env.Session.UpdateProfile(ctx, patch); err != nil {
					return errors.New(failure.Reason(err, "Failed to update profile"))
				}
				return printUser(rt, rt.env.Session.Snapshot().User)
			})(cmd, args)
		},
	}
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVarP(&username, "username", "u", "", "account email")
	return cmd
}

func newProfilePasswordCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: g.run(func(ctx context.Context, rt *runtime, _ []string) error {
			if _, err := rt.requireUser(ctx); err != nil {
				return err
			}
			current, err := rt.prompt.password("Current password: ")
			if err != nil {
				return err
			}
			next, err := rt.prompt.password("New password: ")
			if err != nil {
				return err
			}
			confirm, err := rt.prompt.password("Repeat new password: ")
			if err != nil {
				return err
			}
			if err := rt.env.Session.UpdatePassword(ctx, current, next, confirm); err != nil {
				return errors.New(failure.Reason(err, "Failed to change password"))
			}
			_, err = fmt.Fprintln(rt.stderr, "Password changed")
			return err
		}),
	}
}

func newProfilePhotoCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <path>",
		Short: "Upload a new profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: g.run(func(ctx context.Context, rt *runtime, args []string) error {
			if _, err := rt.requireUser(ctx); err != nil {
				return err
			}
			photo, err := bookapi.OpenAttachment(args[0])
			if err != nil {
				return err
			}
			if err := rt.env.Session.UploadPhoto(ctx, photo); err != nil {
				return errors.New(failure.Reason(err, "Failed to upload photo"))
			}
			return printUser(rt, rt.env.Session.Snapshot().User)
		}),
	}
}
