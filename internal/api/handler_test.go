package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cgulucan/bilanco/internal/domain"
	"github.com/cgulucan/bilanco/internal/pricing"
	"github.com/cgulucan/bilanco/internal/session"
)

type mockStateRepo struct {
	states map[string]session.State
}

func newMockStateRepo() *mockStateRepo {
	return &mockStateRepo{states: make(map[string]session.State)}
}

func (m *mockStateRepo) Load(_ context.Context, username string) (session.State, error) {
	s, ok := m.states[username]
	if !ok {
		return session.State{}, session.ErrNotFound
	}
	return s, nil
}

func (m *mockStateRepo) Save(_ context.Context, username string, state session.State) error {
	m.states[username] = state
	return nil
}

func (m *mockStateRepo) ListUsers(_ context.Context) ([]string, error) {
	var users []string
	for u := range m.states {
		users = append(users, u)
	}
	return users, nil
}

type stubFetcher struct {
	prices domain.PriceTable
	calls  int
}

func (f *stubFetcher) FetchSnapshot(_ context.Context) (domain.PriceSnapshot, error) {
	f.calls++
	return domain.PriceSnapshot{Prices: f.prices, FetchedAt: time.Now(), Source: "stub"}, nil
}

func testServer(t *testing.T, adminKey string) (*http.Server, *mockStateRepo, *stubFetcher) {
	t.Helper()
	repo := newMockStateRepo()
	fetcher := &stubFetcher{prices: domain.PriceTable{"USDTRY_BUY": 43.0, "USDTRY_SELL": 43.5}}
	prices := pricing.NewService(fetcher, nil, time.Minute)
	sessions := session.NewService(repo, prices)
	return NewServer("8080", sessions, prices, adminKey), repo, fetcher
}

func TestGetPortfolio(t *testing.T) {
	srv, _, _ := testServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio?user=cem", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var ev session.Evaluation
	if err := json.NewDecoder(w.Body).Decode(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Username != "cem" {
		t.Errorf("username = %q, want cem", ev.Username)
	}
	if len(ev.Assets) == 0 {
		t.Error("new user should get the default rows")
	}
}

func TestGetPortfolioRejectsBadDate(t *testing.T) {
	srv, _, _ := testServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio?date=30.08.2026", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPutPortfolio(t *testing.T) {
	srv, repo, _ := testServer(t, "")

	body := `{"assets":[{"type":"Dolar","code":"USD","quantity":150}],"debts":[]}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/portfolio?user=cem", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	stored := repo.states["cem"]
	if len(stored.Assets) != 1 || stored.Assets[0].Quantity != 150 {
		t.Errorf("stored assets = %+v", stored.Assets)
	}
}

func TestPutPortfolioRejectsBadBody(t *testing.T) {
	srv, _, _ := testServer(t, "")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/portfolio", strings.NewReader("{broken"))
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetPrices(t *testing.T) {
	srv, _, _ := testServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var snap domain.PriceSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Prices["USDTRY_BUY"] != 43.0 {
		t.Errorf("USDTRY_BUY = %v, want 43.0", snap.Prices["USDTRY_BUY"])
	}
}

func TestRefreshPricesRequiresAuth(t *testing.T) {
	srv, _, fetcher := testServer(t, "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/refresh", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/prices/refresh", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}

	before := fetcher.calls
	req = httptest.NewRequest(http.MethodPost, "/api/v1/prices/refresh", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("good token: status = %d, want 200", w.Code)
	}
	if fetcher.calls <= before {
		t.Error("refresh should bypass the cache and hit the feed")
	}
}

func TestGetPnLPartialReport(t *testing.T) {
	srv, _, _ := testServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pnl?user=cem&base=1999-01-01", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var report struct {
		HasBaseline bool `json:"hasBaseline"`
	}
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.HasBaseline {
		t.Error("1999-01-01 has no snapshot; baseline should be missing")
	}
}

func TestGetHistory(t *testing.T) {
	srv, _, _ := testServer(t, "")

	// First pass records today's snapshot.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio?user=cem", nil)
	srv.Handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history?user=cem&days=30", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var entries []struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Error("expected at least today's entry in the window")
	}
}

func TestExportXLSXHeaders(t *testing.T) {
	srv, _, _ := testServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export?user=cem", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("expected workbook bytes")
	}
}
