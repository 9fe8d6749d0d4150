package pricing

import (
	"context"
	"log/slog"
	"time"

	"github.com/cgulucan/bilanco/internal/domain"
)

// FetchFailedNote is surfaced in the snapshot when no source produced
// prices; the valuation pipeline keeps running on manual prices.
const FetchFailedNote = "price fetch failed; auto prices unavailable, enter unit prices manually"

// Fetcher pulls a fresh price snapshot from an external feed.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (domain.PriceSnapshot, error)
}

// Service hands out price snapshots, memoizing fetch results for a TTL.
// A fetch failure degrades to stored quotes, then to an empty table with
// an explanatory note; it never surfaces as an error to callers.
type Service struct {
	fetcher Fetcher
	repo    QuoteRepository // optional
	cache   *snapshotCache
	ttl     time.Duration
}

// NewService creates a price service. repo may be nil when no quote
// persistence is configured.
func NewService(fetcher Fetcher, repo QuoteRepository, ttl time.Duration) *Service {
	return &Service{
		fetcher: fetcher,
		repo:    repo,
		cache:   newSnapshotCache(),
		ttl:     ttl,
	}
}

// Current returns the price snapshot to value against. force bypasses the
// memoized result by invalidating the cache generation first.
func (s *Service) Current(ctx context.Context, force bool) domain.PriceSnapshot {
	if force {
		s.cache.invalidate()
	}
	if snap, ok := s.cache.get(); ok {
		return snap
	}

	snap, err := s.fetcher.FetchSnapshot(ctx)
	if err == nil {
		s.cache.set(snap, s.ttl)
		s.store(ctx, snap)
		return snap
	}
	slog.Warn("price fetch failed", "error", err)

	if s.repo != nil {
		stored, repoErr := s.repo.LoadTable(ctx)
		if repoErr == nil && len(stored.Prices) > 0 {
			s.cache.set(stored, s.ttl)
			return stored
		}
		if repoErr != nil {
			slog.Warn("loading stored quotes failed", "error", repoErr)
		}
	}

	return domain.PriceSnapshot{
		Prices:    domain.PriceTable{},
		FetchedAt: time.Now(),
		Source:    "N/A",
		Notes:     FetchFailedNote,
	}
}

func (s *Service) store(ctx context.Context, snap domain.PriceSnapshot) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveTable(ctx, snap.Prices, snap.FetchedAt, snap.Source); err != nil {
		slog.Warn("storing quotes failed", "error", err)
	}
}
