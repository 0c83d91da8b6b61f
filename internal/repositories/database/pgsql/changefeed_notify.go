package pgsql

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propstack/propstack_backend/internal/apperrors"
	"github.com/propstack/propstack_backend/internal/core/domain"
	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
)

// changeChannel is the NOTIFY channel the entity triggers publish on.
const changeChannel = "entity_changes"

// notifyTriggers are the triggers the capability probe requires. A store
// restored from a dump without them cannot stream and the caller must fall
// back to polling.
var notifyTriggers = []string{
	"payments_notify_change",
	"properties_notify_change",
	"users_notify_change",
}

// NotifyChangeFeed streams entity mutations via LISTEN/NOTIFY on a dedicated
// connection. Events are emitted in commit order; the handler runs
// sequentially on the feed goroutine.
type NotifyChangeFeed struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotifyChangeFeed creates the push-based change feed.
func NewNotifyChangeFeed(pool *pgxpool.Pool, logger *slog.Logger) *NotifyChangeFeed {
	return &NotifyChangeFeed{pool: pool, logger: logger}
}

var _ portsrepo.ChangeFeed = (*NotifyChangeFeed)(nil)

// Mode names the feed implementation.
func (f *NotifyChangeFeed) Mode() string { return "notify" }

// Start probes for the notify triggers, subscribes and begins dispatching.
// Returns ErrFeedUnsupported when the store carries no notify triggers.
func (f *NotifyChangeFeed) Start(ctx context.Context, handler func(context.Context, domain.ChangeEvent)) error {
	var count int
	err := f.pool.QueryRow(ctx,
		`SELECT count(*) FROM pg_trigger WHERE tgname = ANY($1);`,
		notifyTriggers,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to probe notify triggers: %w", err)
	}
	if count < len(notifyTriggers) {
		return fmt.Errorf("%w: %d of %d notify triggers present", apperrors.ErrFeedUnsupported, count, len(notifyTriggers))
	}

	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		conn.Release()
		return fmt.Errorf("failed to listen on %s: %w", changeChannel, err)
	}

	feedCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)
		defer conn.Release()
		for {
			notification, err := conn.Conn().WaitForNotification(feedCtx)
			if err != nil {
				if feedCtx.Err() != nil {
					return
				}
				f.logger.Error("change feed wait failed, stopping", slog.String("error", err.Error()))
				return
			}

			var ev domain.ChangeEvent
			if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
				f.logger.Warn("discarding malformed change notification", slog.String("payload", notification.Payload))
				continue
			}
			if ev.ObservedAt.IsZero() {
				ev.ObservedAt = time.Now().UTC()
			}
			handler(feedCtx, ev)
		}
	}()

	f.logger.Info("change feed started", slog.String("mode", f.Mode()), slog.String("channel", changeChannel))
	return nil
}

// Stop terminates the feed and waits for the dispatch goroutine to exit.
func (f *NotifyChangeFeed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}
