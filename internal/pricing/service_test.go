package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cgulucan/bilanco/internal/domain"
)

type stubFetcher struct {
	snap  domain.PriceSnapshot
	err   error
	calls int
}

func (f *stubFetcher) FetchSnapshot(_ context.Context) (domain.PriceSnapshot, error) {
	f.calls++
	return f.snap, f.err
}

type stubQuoteRepo struct {
	stored domain.PriceSnapshot
	saved  int
}

func (r *stubQuoteRepo) SaveTable(_ context.Context, prices domain.PriceTable, fetchedAt time.Time, source string) error {
	r.stored = domain.PriceSnapshot{Prices: prices, FetchedAt: fetchedAt, Source: source}
	r.saved++
	return nil
}

func (r *stubQuoteRepo) LoadTable(_ context.Context) (domain.PriceSnapshot, error) {
	return r.stored, nil
}

func TestCurrentCachesFetch(t *testing.T) {
	f := &stubFetcher{snap: domain.PriceSnapshot{Prices: domain.PriceTable{"USDTRY_BUY": 30}}}
	s := NewService(f, nil, time.Minute)

	s.Current(context.Background(), false)
	s.Current(context.Background(), false)
	if f.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1 (second call served from cache)", f.calls)
	}
}

func TestCurrentForceBypassesCache(t *testing.T) {
	f := &stubFetcher{snap: domain.PriceSnapshot{Prices: domain.PriceTable{"USDTRY_BUY": 30}}}
	s := NewService(f, nil, time.Minute)

	s.Current(context.Background(), false)
	s.Current(context.Background(), true)
	if f.calls != 2 {
		t.Errorf("fetcher calls = %d, want 2 (force must refetch)", f.calls)
	}
}

func TestCurrentFailureDegradesToEmptySnapshot(t *testing.T) {
	f := &stubFetcher{err: errors.New("network down")}
	s := NewService(f, nil, time.Minute)

	snap := s.Current(context.Background(), false)
	if len(snap.Prices) != 0 {
		t.Errorf("prices = %v, want empty table", snap.Prices)
	}
	if snap.Notes != FetchFailedNote {
		t.Errorf("notes = %q, want explanatory note", snap.Notes)
	}
}

func TestCurrentFailureFallsBackToStoredQuotes(t *testing.T) {
	repo := &stubQuoteRepo{stored: domain.PriceSnapshot{Prices: domain.PriceTable{"GRAM_BUY": 6877.61}}}
	f := &stubFetcher{err: errors.New("network down")}
	s := NewService(f, repo, time.Minute)

	snap := s.Current(context.Background(), false)
	if snap.Prices["GRAM_BUY"] != 6877.61 {
		t.Errorf("expected stored quotes fallback, got %v", snap.Prices)
	}
}

func TestCurrentPersistsFetchedQuotes(t *testing.T) {
	repo := &stubQuoteRepo{}
	f := &stubFetcher{snap: domain.PriceSnapshot{Prices: domain.PriceTable{"USDTRY_BUY": 30}, Source: "feed"}}
	s := NewService(f, repo, time.Minute)

	s.Current(context.Background(), false)
	if repo.saved != 1 {
		t.Errorf("saved = %d, want 1", repo.saved)
	}
	if repo.stored.Prices["USDTRY_BUY"] != 30 {
		t.Errorf("stored prices = %v, want USDTRY_BUY=30", repo.stored.Prices)
	}
}
