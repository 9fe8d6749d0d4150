package accrual

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cgulucan/bilanco/internal/domain"
)

const (
	// CutoffHour is the grace window boundary: before 06:00 the previous
	// calendar day is still considered open.
	CutoffHour = 6

	// WithholdingTax is the fixed haircut applied to deposit interest.
	WithholdingTax = 0.175

	daysPerYear = 365
)

// State is the per-session accrual state machine. An empty
// LastAccrualDate means no accrual pass has run yet.
type State struct {
	LastAccrualDate string `json:"lastAccrualDate,omitempty"`
}

// EffectiveDate maps a wall-clock instant to the calendar date an accrual
// pass considers closed. A day's interest posts after its close, with a
// grace window until 06:00.
func EffectiveDate(now time.Time) string {
	if now.Hour() < CutoffHour {
		now = now.AddDate(0, 0, -1)
	}
	return now.Format(domain.DateFormat)
}

// IsDeposit reports whether an asset-type label identifies a
// deposit account. Matching is case-insensitive.
func IsDeposit(assetType string) bool {
	s := strings.ToLower(strings.TrimSpace(assetType))
	return strings.Contains(s, "mevduat") || strings.Contains(s, "deposit")
}

// Apply advances the accrual state and compounds deposit quantities in
// place. The first invocation only records the effective date; later
// invocations post one day of net-of-tax interest per elapsed whole day.
// Re-entry within the same effective day is a no-op, as is a clock that
// moved backward (elapsed days are clamped at zero). Returns the number
// of days applied.
func Apply(state *State, rows []domain.AssetRow, now time.Time) int {
	eff := EffectiveDate(now)

	if state.LastAccrualDate == "" {
		state.LastAccrualDate = eff
		return 0
	}

	days := daysBetween(state.LastAccrualDate, eff)
	if days <= 0 {
		return 0
	}

	for i := range rows {
		compound(&rows[i], days)
	}

	state.LastAccrualDate = eff
	return days
}

// compound applies days of daily-compounded net interest to a single row.
// Non-deposit rows, unparsable or non-positive rates and non-positive
// principals are all skipped.
func compound(row *domain.AssetRow, days int) {
	if !IsDeposit(row.Type) {
		return
	}
	annualPct, ok := domain.ParseNumber(string(row.AnnualRatePct))
	if !ok || annualPct <= 0 {
		return
	}
	if row.Quantity <= 0 {
		return
	}

	dailyRate := decimal.NewFromFloat(annualPct).
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(daysPerYear)).
		Mul(decimal.NewFromFloat(1 - WithholdingTax))
	growth := decimal.NewFromInt(1).Add(dailyRate).Pow(decimal.NewFromInt(int64(days)))

	grown, _ := domain.SafeDecimal(row.Quantity).Mul(growth).Float64()
	row.Quantity = grown
}

// daysBetween returns whole days from one ISO date to another. Unparsable
// dates count as zero elapsed days so a corrupt stored date cannot
// trigger a runaway accrual.
func daysBetween(from, to string) int {
	a, errA := time.Parse(domain.DateFormat, from)
	b, errB := time.Parse(domain.DateFormat, to)
	if errA != nil || errB != nil {
		slog.Warn("unparsable accrual dates", "from", from, "to", to)
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}
