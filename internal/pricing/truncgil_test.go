package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchSnapshotParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") == "" {
			t.Error("expected cache-buster query parameter")
		}
		w.Write([]byte(`{
			"Update_Date": "2026-08-30 14:05:00",
			"USD": {"Buying": "43,4748"},
			"EUR": {"Buying": 51.3117},
			"GRA": {"Buying": "6.877,61"},
			"YIA": {"Buying": "6.718,41"}
		}`))
	}))
	defer srv.Close()

	c := NewTruncgilClient(srv.URL, 5*time.Second, time.Millisecond, 1)
	snap, err := c.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}

	if got := snap.Prices["USDTRY_BUY"]; got != 43.4748 {
		t.Errorf("USDTRY_BUY = %v, want 43.4748", got)
	}
	if got := snap.Prices["USDTRY_SELL"]; got != 43.4748 {
		t.Errorf("USDTRY_SELL = %v, want 43.4748 (Buying used for both sides)", got)
	}
	if got := snap.Prices["EURTRY_BUY"]; got != 51.3117 {
		t.Errorf("EURTRY_BUY = %v, want 51.3117", got)
	}
	if got := snap.Prices["GRAM_BUY"]; got != 6877.61 {
		t.Errorf("GRAM_BUY = %v, want 6877.61", got)
	}
	if got := snap.Prices["BILEZIK_BUY"]; got != 6718.41 {
		t.Errorf("BILEZIK_BUY = %v, want 6718.41", got)
	}
	if _, ok := snap.Prices["CEYREK_BUY"]; ok {
		t.Error("CEYREK missing from feed should not produce a price")
	}

	want := time.Date(2026, 8, 30, 14, 5, 0, 0, time.Local)
	if !snap.FetchedAt.Equal(want) {
		t.Errorf("FetchedAt = %v, want %v", snap.FetchedAt, want)
	}
}

func TestFetchSnapshotEmptyFeedIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Update_Date": "2026-08-30 14:05:00"}`))
	}))
	defer srv.Close()

	c := NewTruncgilClient(srv.URL, 5*time.Second, time.Millisecond, 0)
	if _, err := c.FetchSnapshot(context.Background()); err == nil {
		t.Error("feed with no usable prices should error")
	}
}

func TestFetchSnapshotRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"USD": {"Buying": "30"}}`))
	}))
	defer srv.Close()

	c := NewTruncgilClient(srv.URL, 5*time.Second, time.Millisecond, 2)
	snap, err := c.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if snap.Prices["USDTRY_BUY"] != 30 {
		t.Errorf("USDTRY_BUY = %v, want 30", snap.Prices["USDTRY_BUY"])
	}
}

func TestParseUpdateDateFallsBackToNow(t *testing.T) {
	before := time.Now()
	got := parseUpdateDate("not a date")
	if got.Before(before.Add(-time.Second)) {
		t.Errorf("unparseable date should fall back to now, got %v", got)
	}
}
