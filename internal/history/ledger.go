package history

import (
	"sort"

	"github.com/cgulucan/bilanco/internal/domain"
)

// Ledger is the chronological list of one net-worth figure per calendar
// date, kept sorted ascending by ISO date string.
type Ledger []domain.NetWorthSnapshot

// EnsureBaseline injects the baseline entry if no entry exists for the
// baseline date. Idempotent: an existing entry for that date is never
// duplicated or overwritten.
func (l *Ledger) EnsureBaseline(date string, net float64) {
	if _, ok := l.Get(date); ok {
		return
	}
	*l = append(*l, domain.NetWorthSnapshot{Date: date, Net: net})
	l.sortByDate()
}

// Upsert records a net figure for a date, replacing any existing entry.
// This is the single write path for daily snapshots: last write for a
// date wins, and each date holds exactly one entry.
func (l *Ledger) Upsert(date string, net float64) {
	for i := range *l {
		if (*l)[i].Date == date {
			(*l)[i].Net = net
			return
		}
	}
	*l = append(*l, domain.NetWorthSnapshot{Date: date, Net: net})
	l.sortByDate()
}

// Get returns the net figure recorded for a date. A false return means
// no snapshot exists for that date; callers must not read it as zero.
func (l Ledger) Get(date string) (float64, bool) {
	for _, entry := range l {
		if entry.Date == date {
			return entry.Net, true
		}
	}
	return 0, false
}

// sortByDate keeps entries ascending. ISO dates sort lexicographically in
// chronological order.
func (l Ledger) sortByDate() {
	sort.Slice(l, func(i, j int) bool { return l[i].Date < l[j].Date })
}
