package session

import (
	"time"

	"github.com/cgulucan/bilanco/internal/domain"
	"github.com/cgulucan/bilanco/internal/history"
)

// State is one user's persisted session payload: the editable rows, the
// net-worth ledger and the bookkeeping dates. Field names follow the
// stored payload shape.
type State struct {
	Assets           []domain.AssetRow `json:"assets"`
	Debts            []domain.DebtRow  `json:"debts"`
	NetHistory       history.Ledger    `json:"net_history"`
	BaselineDate     string            `json:"baseline_date"`
	BaselineNet      float64           `json:"baseline_net"`
	CashflowBaseDate string            `json:"cashflow_base_date"`
	InterestLastDate string            `json:"interest_last_date,omitempty"`
	SavedAt          string            `json:"saved_at,omitempty"`
}

// Normalize fills absent fields with sane defaults so a partial or legacy
// payload still yields a usable session.
func (s *State) Normalize(now time.Time) {
	if s.Assets == nil {
		s.Assets = []domain.AssetRow{}
	}
	if s.Debts == nil {
		s.Debts = []domain.DebtRow{}
	}
	if s.NetHistory == nil {
		s.NetHistory = history.Ledger{}
	}
	if s.BaselineDate == "" {
		s.BaselineDate = domain.BaselineDate
		s.BaselineNet = domain.BaselineNet
	}
	if s.CashflowBaseDate == "" {
		s.CashflowBaseDate = now.Format(domain.DateFormat)
	}
}

// DefaultState seeds a brand-new user with the stock row set.
func DefaultState(now time.Time) State {
	manualTRY := 1.0
	s := State{
		Assets: []domain.AssetRow{
			{Type: "Banka (TL)", Code: "TRY", Quantity: 400000, ManualUnitPrice: &manualTRY},
			{Type: "Euro", Code: "EUR", Quantity: 600},
			{Type: "Ata Altın", Code: "ATA", Quantity: 24},
			{Type: "22-ayar-bilezik", Code: "BILEZIK", Quantity: 50, Note: "bilezik otomatik yoksa manuel gir"},
			{Type: "Çeyrek", Code: "CEYREK", Quantity: 1},
			{Type: "Gram Altın", Code: "GRAM", Quantity: 4.5},
			{Type: "Çeyrek", Code: "CEYREK", Quantity: 7},
			{Type: "Yarım", Code: "YARIM", Quantity: 1},
			{Type: "Dolar", Code: "USD", Quantity: 0},
		},
		Debts: []domain.DebtRow{
			{Name: "Kredi Kartı", Amount: 130000},
		},
		CashflowBaseDate: now.Format(domain.DateFormat),
	}
	s.Normalize(now)
	return s
}
