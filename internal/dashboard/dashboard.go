// Package dashboard aggregates the front-desk overview numbers.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoomSummary breaks the room inventory down by occupancy status.
type RoomSummary struct {
	Total         int     `json:"total"`
	Available     int     `json:"available"`
	Occupied      int     `json:"occupied"`
	Reserved      int     `json:"reserved"`
	Maintenance   int     `json:"maintenance"`
	Cleaning      int     `json:"cleaning"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// InvoiceSummary covers money still outstanding.
type InvoiceSummary struct {
	OpenCount    int     `json:"open_count"`
	OpenAmount   float64 `json:"open_amount"`
	OverdueCount int     `json:"overdue_count"`
}

// Summary is the front-desk overview for one day.
type Summary struct {
	Date            string         `json:"date"`
	Rooms           RoomSummary    `json:"rooms"`
	ArrivalsToday   int            `json:"arrivals_today"`
	DeparturesToday int            `json:"departures_today"`
	InHouse         int            `json:"in_house"`
	Invoices        InvoiceSummary `json:"invoices"`
	LowStockItems   int            `json:"low_stock_items"`
}

// Repository computes the summary from the primary store.
type Repository interface {
	Snapshot(ctx context.Context, day time.Time) (*Summary, error)
}

// CacheTTL bounds how stale the cached summary may get.
const CacheTTL = 60 * time.Second

// Service serves the summary, caching it in Redis so dashboard polling does
// not hammer the aggregate queries. The cache is best-effort: a Redis outage
// degrades to recomputing every request, never to an error.
type Service struct {
	logger *slog.Logger
	repo   Repository
	cache  *redis.Client
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, cache *redis.Client) *Service {
	return &Service{logger: logger, repo: repo, cache: cache, now: time.Now}
}

func cacheKey(day time.Time) string {
	return "dashboard:summary:" + day.Format("2006-01-02")
}

// Summary returns today's overview, recomputing at most once per CacheTTL.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	day := s.now()
	key := cacheKey(day)

	raw, err := s.cache.Get(ctx, key).Bytes()
	if err == nil {
		var cached Summary
		if jerr := json.Unmarshal(raw, &cached); jerr == nil {
			return &cached, nil
		}
		// A malformed entry falls through to a recompute.
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("dashboard cache read failed", slog.Any("error", err))
	}

	summary, err := s.repo.Snapshot(ctx, day)
	if err != nil {
		return nil, err
	}
	if raw, jerr := json.Marshal(summary); jerr == nil {
		if cerr := s.cache.Set(ctx, key, raw, CacheTTL).Err(); cerr != nil {
			s.logger.Warn("dashboard cache write failed", slog.Any("error", cerr))
		}
	}
	return summary, nil
}
