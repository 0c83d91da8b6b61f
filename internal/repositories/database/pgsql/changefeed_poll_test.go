package pgsql

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

func TestTickInterval_PicksShorterCadence(t *testing.T) {
	assert.Equal(t, 10*time.Second, tickInterval(10*time.Second, 60*time.Second))
	assert.Equal(t, 10*time.Second, tickInterval(60*time.Second, 10*time.Second))
	assert.Equal(t, 30*time.Second, tickInterval(30*time.Second, 30*time.Second))
}

func TestPollSource_DueFollowsOwnInterval(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	payments := &pollSource{entityType: domain.SyncEntityPayment, interval: 10 * time.Second}
	properties := &pollSource{entityType: domain.SyncEntityProperty, interval: time.Minute}

	paymentScans, propertyScans := 0, 0
	for tick := 0; tick < 6; tick++ {
		now := start.Add(time.Duration(tick) * 10 * time.Second)
		if payments.due(now) {
			paymentScans++
		}
		if properties.due(now) {
			propertyScans++
		}
	}

	assert.Equal(t, 6, paymentScans, "payments scan on every tick of the short cadence")
	assert.Equal(t, 1, propertyScans, "properties wait out their longer interval")

	assert.True(t, properties.due(start.Add(time.Minute)))
}

func TestPollChangeFeed_StartAndStop(t *testing.T) {
	feed := NewPollChangeFeed(nil, time.Hour, time.Hour, slog.Default())

	err := feed.Start(context.Background(), func(context.Context, domain.ChangeEvent) {})
	require.NoError(t, err)
	feed.Stop()

	assert.Equal(t, "poll", feed.Mode())
}
