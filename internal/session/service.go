package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cgulucan/bilanco/internal/accrual"
	"github.com/cgulucan/bilanco/internal/domain"
	"github.com/cgulucan/bilanco/internal/history"
	"github.com/cgulucan/bilanco/internal/valuation"
)

// defaultWindowDays is the trailing history window reported with each
// evaluation.
const defaultWindowDays = 30

// PriceProvider hands out the price snapshot to value against.
type PriceProvider interface {
	Current(ctx context.Context, force bool) domain.PriceSnapshot
}

// EvalRequest parametrizes one evaluation pass. Zero values select the
// defaults: BUY side, today as the selected date, the state's reference
// date as baseline, a 30-day window.
type EvalRequest struct {
	Side         domain.Side
	SelectedDate string
	BaselineDate string
	WindowDays   int
	ForceRefresh bool
}

// Evaluation is the outcome of one full pass: valued rows, totals, the
// price snapshot used, the trailing history window and the baseline P&L.
type Evaluation struct {
	Username string                  `json:"username"`
	Side     domain.Side             `json:"side"`
	Assets   []domain.ValuedAssetRow `json:"assets"`
	Debts    []domain.DebtRow        `json:"debts"`
	Totals   valuation.Totals        `json:"totals"`
	Prices   domain.PriceSnapshot    `json:"prices"`
	PnL      history.Report          `json:"pnl"`
	History  []history.WindowEntry   `json:"history,omitempty"`
	Accrued  int                     `json:"accruedDays"`
	Warnings []string                `json:"warnings,omitempty"`
}

// Service runs the evaluation pipeline over per-user session state:
// interest accrual, valuation, ledger upsert and P&L, serialized per user.
type Service struct {
	repo   Repository
	prices PriceProvider

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewService creates a session service.
func NewService(repo Repository, prices PriceProvider) *Service {
	return &Service{
		repo:   repo,
		prices: prices,
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

// userLock returns the per-user mutex so concurrent requests for the same
// user cannot interleave ledger or accrual updates.
func (s *Service) userLock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[username]
	if !ok {
		l = &sync.Mutex{}
		s.locks[username] = l
	}
	return l
}

// load returns the user's state, falling back to the default row set for
// a brand-new user. A broken payload degrades to the default state with a
// warning instead of failing the pass.
func (s *Service) load(ctx context.Context, username string, now time.Time) (State, []string) {
	state, err := s.repo.Load(ctx, username)
	switch {
	case err == nil:
		state.Normalize(now)
		return state, nil
	case errors.Is(err, ErrNotFound):
		return DefaultState(now), nil
	default:
		slog.Warn("loading session state failed", "user", username, "error", err)
		return DefaultState(now), []string{fmt.Sprintf("stored state unavailable (%v); starting from defaults", err)}
	}
}

// Evaluate runs one full pass for the user and persists the mutated state.
func (s *Service) Evaluate(ctx context.Context, username string, req EvalRequest) (Evaluation, error) {
	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	today := now.Format(domain.DateFormat)

	state, warnings := s.load(ctx, username, now)

	// Interest first so valuation sees the grown principal.
	accState := accrual.State{LastAccrualDate: state.InterestLastDate}
	accrued := accrual.Apply(&accState, state.Assets, now)
	state.InterestLastDate = accState.LastAccrualDate

	snap := s.prices.Current(ctx, req.ForceRefresh)
	valued := valuation.Value(state.Assets, snap.Prices, domain.ParseSide(string(req.Side)))
	totals := valuation.Sum(valued, state.Debts)

	state.NetHistory.EnsureBaseline(state.BaselineDate, state.BaselineNet)
	state.NetHistory.Upsert(today, totals.Net)

	selected := req.SelectedDate
	if selected == "" {
		selected = today
	}
	baseline := req.BaselineDate
	if baseline == "" {
		baseline = state.CashflowBaseDate
	}
	report := history.PnL(state.NetHistory, selected, baseline)

	var window []history.WindowEntry
	if report.HasBaseline {
		days := req.WindowDays
		if days <= 0 {
			days = defaultWindowDays
		}
		window = history.Window(state.NetHistory, report.BaselineNet, today, days)
	}

	state.SavedAt = now.Format(time.RFC3339)
	if err := s.repo.Save(ctx, username, state); err != nil {
		slog.Warn("saving session state failed", "user", username, "error", err)
		warnings = append(warnings, fmt.Sprintf("state not persisted: %v", err))
	}

	return Evaluation{
		Username: username,
		Side:     domain.ParseSide(string(req.Side)),
		Assets:   valued,
		Debts:    state.Debts,
		Totals:   totals,
		Prices:   snap,
		PnL:      report,
		History:  window,
		Accrued:  accrued,
		Warnings: warnings,
	}, nil
}

// UpdateRows replaces the user's asset and debt rows and persists them.
func (s *Service) UpdateRows(ctx context.Context, username string, assets []domain.AssetRow, debts []domain.DebtRow) error {
	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	state, _ := s.load(ctx, username, now)
	state.Assets = assets
	state.Debts = debts
	state.Normalize(now)
	state.SavedAt = now.Format(time.RFC3339)
	return s.repo.Save(ctx, username, state)
}

// SaveState stores the given state verbatim after normalization. Used by
// the seed command.
func (s *Service) SaveState(ctx context.Context, username string, state State) error {
	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	state.Normalize(now)
	state.SavedAt = now.Format(time.RFC3339)
	return s.repo.Save(ctx, username, state)
}

// HistoryWindow returns the user's ledger entries for the trailing window
// with deltas against the stored baseline.
func (s *Service) HistoryWindow(ctx context.Context, username string, days int) ([]history.WindowEntry, error) {
	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	state, _ := s.load(ctx, username, now)
	if days <= 0 {
		days = defaultWindowDays
	}
	baselineNet, _ := state.NetHistory.Get(state.BaselineDate)
	return history.Window(state.NetHistory, baselineNet, now.Format(domain.DateFormat), days), nil
}

// Users lists every user with stored state; used by the daily snapshot
// worker.
func (s *Service) Users(ctx context.Context) ([]string, error) {
	return s.repo.ListUsers(ctx)
}
