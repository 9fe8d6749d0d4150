package pricing

import (
	"testing"
	"time"

	"github.com/cgulucan/bilanco/internal/domain"
)

func TestCacheMissWhenEmpty(t *testing.T) {
	c := newSnapshotCache()
	if _, ok := c.get(); ok {
		t.Error("empty cache should miss")
	}
}

func TestCacheHitWithinTTL(t *testing.T) {
	c := newSnapshotCache()
	snap := domain.PriceSnapshot{Prices: domain.PriceTable{"USDTRY_BUY": 30}, Source: "test"}
	c.set(snap, time.Minute)

	got, ok := c.get()
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Prices["USDTRY_BUY"] != 30 {
		t.Errorf("cached price = %v, want 30", got.Prices["USDTRY_BUY"])
	}
}

func TestCacheExpires(t *testing.T) {
	c := newSnapshotCache()
	c.set(domain.PriceSnapshot{}, -time.Second)
	if _, ok := c.get(); ok {
		t.Error("expired entry should miss")
	}
}

func TestCacheInvalidateBypassesEntry(t *testing.T) {
	c := newSnapshotCache()
	c.set(domain.PriceSnapshot{Source: "stale"}, time.Hour)
	c.invalidate()
	if _, ok := c.get(); ok {
		t.Error("invalidated entry should miss even within TTL")
	}

	// A fresh set after invalidation is served again.
	c.set(domain.PriceSnapshot{Source: "fresh"}, time.Hour)
	got, ok := c.get()
	if !ok || got.Source != "fresh" {
		t.Errorf("get after re-set = (%v, %v), want fresh hit", got.Source, ok)
	}
}
