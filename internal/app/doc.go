// Package app is the composition root of shelf.
//
// # Overview
//
// Build loads configuration, opens the log, and wires one object graph (Env)
// that both the terminal UI and the one-shot commands in internal/cli use:
//
//	config.Load()             ~/.config/shelf/config.toml, SHELF_* overrides
//	logging.New()             logrus JSON log file, optional stderr
//	credential.NewFileStore() bearer token on disk
//	bookapi.NewClient()       HTTP gateway, 401 hook installed below
//	session.New()             current user and token lifecycle
//	listing.NewBooks/Users()  paginated lists
//	editor.NewFlow()          create and update books
//	nav.Switch                navigation target, set by the caller
//
// # Session expiry
//
// The gateway reports every 401 to ExpireHandler, which drops the session and
// navigates to the login route. The navigation target is a nav.Switch so the
// TUI can point it at its program and the CLI at a nav.Recorder after Build.
//
// # Background refresh
//
// Run optionally starts StartRefresher, which reloads the current library
// page at a fixed cadence while a user is signed in. Failures are logged at
// debug level and the loop continues; a superseded reload is not a failure.
//
// # Usage
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := app.Run(ctx, app.Options{RefreshEvery: 30}); err != nil {
//		log.Fatalf("shelf: %v", err)
//	}
package app
