package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/nav"
)

var (
	errNotSignedIn    = errors.New("not signed in, run `shelf login`")
	errSessionExpired = errors.New("session expired, run `shelf login`")
	errNotAdmin       = errors.New("administrator access required")
)

// runtime is the wired environment of one command invocation.
type runtime struct {
	env    *app.Env
	nav    *nav.Recorder
	out    printer
	prompt *prompter
	stderr io.Writer
}

type runFunc func(ctx context.Context, rt *runtime, args []string) error

// run wraps a command body that needs a signed-in user. A 401 seen anywhere
// during the command becomes errSessionExpired.
func (g *globalOptions) run(fn runFunc) func(*cobra.Command, []string) error {
	return g.wrap(fn, true)
}

// runAnonymous wraps a command body that may run signed out, such as login,
// where a 401 means bad credentials rather than an expired session.
func (g *globalOptions) runAnonymous(fn runFunc) func(*cobra.Command, []string) error {
	return g.wrap(fn, false)
}

func (g *globalOptions) wrap(fn runFunc, reportExpiry bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := g.open(cmd)
		if err != nil {
			return err
		}
		defer rt.env.Close()

		err = fn(cmd.Context(), rt, args)
		if reportExpiry && rt.nav.Visited(nav.RouteLogin) {
			return errSessionExpired
		}
		return err
	}
}

func (g *globalOptions) open(cmd *cobra.Command) (*runtime, error) {
	env, err := app.Build(app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		APIURL:     g.apiURL,
		Version:    g.version,
		Verbose:    g.verbose,
	})
	if err != nil {
		return nil, err
	}

	format := g.output
	if format == "" {
		format = env.Prefs.Output
	}
	out, err := newPrinter(format, cmd.OutOrStdout())
	if err != nil {
		env.Close()
		return nil, err
	}

	rec := &nav.Recorder{}
	env.Router.Set(rec)
	return &runtime{
		env:    env,
		nav:    rec,
		out:    out,
		prompt: newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()),
		stderr: cmd.ErrOrStderr(),
	}, nil
}

// requireUser restores the stored session and returns the signed-in user.
func (rt *runtime) requireUser(ctx context.Context) (*bookapi.User, error) {
	snap := rt.env.Session.Bootstrap(ctx)
	if !snap.Authenticated() {
		return nil, errNotSignedIn
	}
	return snap.User, nil
}

// requireAdmin is requireUser for administrator commands.
func (rt *runtime) requireAdmin(ctx context.Context) (*bookapi.User, error) {
	user, err := rt.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, errNotAdmin
	}
	return user, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
