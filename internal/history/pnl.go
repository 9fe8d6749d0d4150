package history

import (
	"time"

	"github.com/samber/lo"

	"github.com/cgulucan/bilanco/internal/domain"
)

// Report is the outcome of a baseline-relative profit/loss lookup. A
// missing baseline or selected snapshot is a reported condition, not an
// error: Delta is only meaningful when both Has flags are set.
type Report struct {
	BaselineDate string  `json:"baselineDate"`
	BaselineNet  float64 `json:"baselineNet"`
	HasBaseline  bool    `json:"hasBaseline"`
	SelectedDate string  `json:"selectedDate"`
	SelectedNet  float64 `json:"selectedNet"`
	HasSelected  bool    `json:"hasSelected"`
	Delta        float64 `json:"delta"`
}

// WindowEntry is one charted point: a ledger entry with its delta against
// the baseline net.
type WindowEntry struct {
	Date  string  `json:"date"`
	Net   float64 `json:"net"`
	Delta float64 `json:"delta"`
}

// PnL derives profit/loss as selected-date net minus baseline-date net.
func PnL(l Ledger, selectedDate, baselineDate string) Report {
	r := Report{BaselineDate: baselineDate, SelectedDate: selectedDate}

	r.BaselineNet, r.HasBaseline = l.Get(baselineDate)
	if !r.HasBaseline {
		return r
	}
	r.SelectedNet, r.HasSelected = l.Get(selectedDate)
	if !r.HasSelected {
		return r
	}

	delta := domain.SafeDecimal(r.SelectedNet).Sub(domain.SafeDecimal(r.BaselineNet))
	r.Delta, _ = delta.Float64()
	return r
}

// Window filters the ledger to the trailing days window ending at today
// (inclusive) and computes each entry's delta against the baseline net.
// Entries before the window are excluded, never deleted.
func Window(l Ledger, baselineNet float64, today string, days int) []WindowEntry {
	start := windowStart(today, days)
	inWindow := lo.Filter(l, func(s domain.NetWorthSnapshot, _ int) bool {
		return s.Date >= start && s.Date <= today
	})
	base := domain.SafeDecimal(baselineNet)
	return lo.Map(inWindow, func(s domain.NetWorthSnapshot, _ int) WindowEntry {
		delta, _ := domain.SafeDecimal(s.Net).Sub(base).Float64()
		return WindowEntry{Date: s.Date, Net: s.Net, Delta: delta}
	})
}

func windowStart(today string, days int) string {
	t, err := time.Parse(domain.DateFormat, today)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -days).Format(domain.DateFormat)
}
