package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/credential"
	"github.com/five82/shelf/internal/editor"
	"github.com/five82/shelf/internal/listing"
	"github.com/five82/shelf/internal/logging"
	"github.com/five82/shelf/internal/nav"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/ui"
)

// Options configure the shelf application.
type Options struct {
	ConfigPath   string
	PrefsPath    string // empty uses default ~/.config/shelf/prefs.toml
	APIURL       string // overrides config and environment when set
	RefreshEvery int    // seconds; zero disables background refresh
	Version      string
	Verbose      bool
	Ephemeral    bool // keep the credential in memory only
}

// Env is the wired object graph shared by the TUI and one-shot commands.
type Env struct {
	Config  config.Config
	Prefs   prefs.Prefs
	Log     *logrus.Logger
	Client  *bookapi.Client
	Files   bookapi.Files
	Creds   credential.Store
	Session *session.Manager
	Books   *listing.Model[bookapi.Book]
	Users   *listing.Model[bookapi.User]
	Editor  *editor.Flow
	Router  *nav.Switch

	prefsPath string
	closeLog  func()
}

// Build loads configuration and wires every component. The caller must Close
// the returned Env.
func Build(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
		cfg.FilesURL = opts.APIURL
	}

	log, closeLog, err := logging.New(logging.Options{
		File:    cfg.LogFile,
		Level:   cfg.LogLevel,
		Version: opts.Version,
		Stderr:  opts.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	var creds credential.Store = credential.NewMemoryStore("")
	if !opts.Ephemeral {
		fileStore, err := credential.NewFileStore(cfg.CredentialsPath)
		if err != nil {
			closeLog()
			return nil, fmt.Errorf("init credential store: %w", err)
		}
		creds = fileStore
	}

	client, err := bookapi.NewClient(cfg.APIURL, creds,
		bookapi.WithTimeout(cfg.Timeout),
		bookapi.WithUserAgent("shelf/"+versionOr(opts.Version)),
		bookapi.WithLogger(log.WithField("component", "bookapi")),
	)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	router := &nav.Switch{}
	sess := session.New(client, creds, log)
	client.SetUnauthorizedHandler(ExpireHandler(sess, router))

	env := &Env{
		Config:    cfg,
		Prefs:     prefs.Load(opts.PrefsPath),
		Log:       log,
		Client:    client,
		Files:     bookapi.NewFiles(cfg.FilesURL),
		Creds:     creds,
		Session:   sess,
		Books:     listing.NewBooks(client, log),
		Users:     listing.NewUsers(client, log),
		Editor:    editor.NewFlow(client, router, log),
		Router:    router,
		prefsPath: opts.PrefsPath,
		closeLog:  closeLog,
	}
	log.WithFields(logrus.Fields{"api": cfg.APIURL, "credentials": cfg.CredentialsPath}).Debug("wired")
	return env, nil
}

// Close flushes and closes the log file.
func (e *Env) Close() {
	if e.closeLog != nil {
		e.closeLog()
	}
}

// ExpireHandler is the gateway's 401 hook: drop the session, then route to
// the login screen.
func ExpireHandler(sess *session.Manager, navigator nav.Navigator) bookapi.UnauthorizedHandler {
	return bookapi.UnauthorizedFunc(func() {
		sess.Expire()
		navigator.Navigate(nav.RouteLogin)
	})
}

// Run boots the TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	env, err := Build(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	if opts.RefreshEvery > 0 {
		StartRefresher(ctx, env.Session, env.Books, time.Duration(opts.RefreshEvery)*time.Second, env.Log)
	}

	env.Log.Info("starting terminal ui")
	return ui.Run(ui.Options{
		Context:   ctx,
		Session:   env.Session,
		Books:     env.Books,
		Users:     env.Users,
		Editor:    env.Editor,
		Admin:     env.Client,
		Files:     env.Files,
		Router:    env.Router,
		LogFile:   env.Config.LogFile,
		ThemeName: env.Prefs.Theme,
		PrefsPath: env.prefsPath,
		Version:   opts.Version,
	})
}

func versionOr(v string) string {
	if v == "" {
		return "dev"
	}
	return v
}
