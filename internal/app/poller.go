package app

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/listing"
	"github.com/five82/shelf/internal/session"
)

const minRefreshInterval = 5 * time.Second

// Reloader refetches whatever page it currently holds.
type Reloader interface {
	Reload(ctx context.Context) error
}

// SessionView reports whether a user is signed in.
type SessionView interface {
	Snapshot() session.Snapshot
}

// StartRefresher launches a goroutine that reloads the current page at a
// fixed cadence while someone is signed in. It returns immediately.
func StartRefresher(ctx context.Context, sess SessionView, list Reloader, interval time.Duration, log logrus.FieldLogger) {
	if interval < minRefreshInterval {
		interval = minRefreshInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			refresh(ctx, sess, list, log)
		}
	}()
}

func refresh(ctx context.Context, sess SessionView, list Reloader, log logrus.FieldLogger) {
	snap := sess.Snapshot()
	if snap.Phase != session.Ready || !snap.Authenticated() {
		return
	}
	err := list.Reload(ctx)
	if err == nil || errors.Is(err, listing.ErrSuperseded) {
		return
	}
	log.WithError(err).Debug("background refresh failed")
}
