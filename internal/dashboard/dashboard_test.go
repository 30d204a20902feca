package dashboard

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	calls int
}

func (s *stubRepo) Snapshot(_ context.Context, day time.Time) (*Summary, error) {
	s.calls++
	return &Summary{
		Date:          day.Format("2006-01-02"),
		Rooms:         RoomSummary{Total: 20, Occupied: 5, Available: 15, OccupancyRate: 0.25},
		ArrivalsToday: s.calls, // changes per call so cache hits are observable
		LowStockItems: 3,
	}, nil
}

func newTestService(t *testing.T) (*Service, *stubRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &stubRepo{}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, client)
	svc.now = func() time.Time {
		return time.Date(2025, time.January, 12, 10, 0, 0, 0, time.UTC)
	}
	return svc, repo, mr
}

func TestSummaryCachesForTTL(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)
	require.Equal(t, "2025-01-12", first.Date)
	require.Equal(t, 0.25, first.Rooms.OccupancyRate)

	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls, "second read within the TTL must come from cache")
	require.Equal(t, first.ArrivalsToday, second.ArrivalsToday)
}

func TestSummaryRecomputesAfterExpiry(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)

	mr.FastForward(CacheTTL + time.Second)

	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestSummarySurvivesRedisOutage(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()

	mr.Close()

	summary, err := svc.Summary(ctx)
	require.NoError(t, err, "a cache outage must not take the summary down")
	require.Equal(t, 1, repo.calls)
	require.Equal(t, "2025-01-12", summary.Date)

	// Still down on the next poll, so the snapshot is recomputed.
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestSummarySurvivesMalformedCacheEntry(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(cacheKey(svc.now()), "{not json"))

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)
	require.Equal(t, 3, summary.LowStockItems)
}
