package pgsql

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propstack/propstack_backend/internal/core/domain"
	portsrepo "github.com/propstack/propstack_backend/internal/core/ports/repositories"
)

// pollBatchSize bounds one table scan per tick.
const pollBatchSize = 500

// PollChangeFeed is the fallback change feed: it scans the entity tables for
// rows modified past a per-table watermark. Delivery is at-least-once; the
// synchronizer's upserts make redelivery harmless. Payments are scanned on
// their own, tighter cadence; properties and users share the slower one.
type PollChangeFeed struct {
	pool            *pgxpool.Pool
	logger          *slog.Logger
	paymentInterval time.Duration
	entityInterval  time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPollChangeFeed creates the poll-based change feed. paymentInterval
// drives the payments scan, entityInterval the property and user scans.
func NewPollChangeFeed(pool *pgxpool.Pool, paymentInterval, entityInterval time.Duration, logger *slog.Logger) *PollChangeFeed {
	return &PollChangeFeed{
		pool:            pool,
		paymentInterval: paymentInterval,
		entityInterval:  entityInterval,
		logger:          logger,
	}
}

var _ portsrepo.ChangeFeed = (*PollChangeFeed)(nil)

// Mode names the feed implementation.
func (f *PollChangeFeed) Mode() string { return "poll" }

// pollSource describes one watched table.
type pollSource struct {
	entityType domain.SyncEntityType
	query      string
	hasDeleted bool
	interval   time.Duration
	watermark  time.Time
	nextPoll   time.Time
}

// due reports whether the source should be scanned this tick and, when so,
// schedules the next scan one interval out.
func (src *pollSource) due(now time.Time) bool {
	if now.Before(src.nextPoll) {
		return false
	}
	src.nextPoll = now.Add(src.interval)
	return true
}

// Start begins the polling loop. It never returns ErrFeedUnsupported; any
// relational store can serve a watermark scan.
func (f *PollChangeFeed) Start(ctx context.Context, handler func(context.Context, domain.ChangeEvent)) error {
	feedCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})

	// Overlap one interval on startup so changes landed during a restart
	// are not skipped.
	now := time.Now().UTC()
	sources := []*pollSource{
		{
			entityType: domain.SyncEntityPayment,
			query:      `SELECT payment_id, FALSE, last_updated_at FROM payments WHERE last_updated_at > $1 ORDER BY last_updated_at ASC LIMIT $2;`,
			interval:   f.paymentInterval,
			watermark:  now.Add(-f.paymentInterval),
		},
		{
			entityType: domain.SyncEntityProperty,
			query:      `SELECT property_id, is_deleted, last_updated_at FROM properties WHERE last_updated_at > $1 ORDER BY last_updated_at ASC LIMIT $2;`,
			hasDeleted: true,
			interval:   f.entityInterval,
			watermark:  now.Add(-f.entityInterval),
		},
		{
			entityType: domain.SyncEntityUser,
			query:      `SELECT user_id, is_deleted, last_updated_at FROM users WHERE last_updated_at > $1 ORDER BY last_updated_at ASC LIMIT $2;`,
			hasDeleted: true,
			interval:   f.entityInterval,
			watermark:  now.Add(-f.entityInterval),
		},
	}

	go func() {
		defer close(f.done)
		ticker := time.NewTicker(tickInterval(f.paymentInterval, f.entityInterval))
		defer ticker.Stop()
		for {
			select {
			case <-feedCtx.Done():
				return
			case tick := <-ticker.C:
				for _, src := range sources {
					if src.due(tick) {
						f.pollOne(feedCtx, src, handler)
					}
				}
			}
		}
	}()

	f.logger.Info("change feed started",
		slog.String("mode", f.Mode()),
		slog.Duration("payment_interval", f.paymentInterval),
		slog.Duration("entity_interval", f.entityInterval),
	)
	return nil
}

// tickInterval picks the ticker period driving the per-source cadences.
func tickInterval(a, b time.Duration) time.Duration {
	if a <= b {
		return a
	}
	return b
}

func (f *PollChangeFeed) pollOne(ctx context.Context, src *pollSource, handler func(context.Context, domain.ChangeEvent)) {
	rows, err := f.pool.Query(ctx, src.query, src.watermark, pollBatchSize)
	if err != nil {
		if ctx.Err() == nil {
			f.logger.Error("change feed poll failed", slog.String("entity", string(src.entityType)), slog.String("error", err.Error()))
		}
		return
	}
	defer rows.Close()

	type change struct {
		id        string
		deleted   bool
		updatedAt time.Time
	}
	var changes []change
	for rows.Next() {
		var c change
		if err := rows.Scan(&c.id, &c.deleted, &c.updatedAt); err != nil {
			f.logger.Error("change feed poll scan failed", slog.String("entity", string(src.entityType)), slog.String("error", err.Error()))
			return
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		f.logger.Error("change feed poll failed", slog.String("entity", string(src.entityType)), slog.String("error", err.Error()))
		return
	}

	for _, c := range changes {
		op := domain.ChangeOpUpsert
		if src.hasDeleted && c.deleted {
			op = domain.ChangeOpDelete
		}
		handler(ctx, domain.ChangeEvent{
			Type:       src.entityType,
			DocumentID: c.id,
			Op:         op,
			ObservedAt: c.updatedAt,
		})
		// Advance only past delivered changes so a crashed tick redelivers.
		if c.updatedAt.After(src.watermark) {
			src.watermark = c.updatedAt
		}
	}
}

// Stop terminates the feed and waits for the polling goroutine to exit.
func (f *PollChangeFeed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}
