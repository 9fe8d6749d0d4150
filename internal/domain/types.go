package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Side selects the quoting convention used when resolving prices.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normalizes a side string, defaulting to BUY for anything
// that is not explicitly SELL.
func ParseSide(s string) Side {
	if Side(s) == SideSell {
		return SideSell
	}
	return SideBuy
}

// Rate holds the raw text of an annual-interest cell. Imported payloads
// carry it as a JSON number, a string, or null; the raw text is kept so
// the accrual engine can apply its tolerant parse.
type Rate string

func (r *Rate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = Rate(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Rate(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func (r Rate) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}

// AssetRow is one user-entered asset line item.
type AssetRow struct {
	Type            string   `json:"type"`
	Code            string   `json:"code"`
	Quantity        float64  `json:"quantity"`
	ManualUnitPrice *float64 `json:"manualUnitPrice"`
	AnnualRatePct   Rate     `json:"annualRatePct,omitempty"`
	Note            string   `json:"note"`
}

// DebtRow is one user-entered debt line item.
type DebtRow struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
}

// ValuedAssetRow is an AssetRow with its resolved unit price and derived
// amount. UnitPrice is nil when neither an auto nor a manual price exists;
// Amount is zero in that case rather than an error.
type ValuedAssetRow struct {
	AssetRow
	UnitPrice *float64 `json:"unitPrice"`
	Amount    float64  `json:"amount"`
}

// PriceTable maps feed keys (e.g. "USDTRY_BUY") to unit prices in TRY.
type PriceTable map[string]float64

// PriceSnapshot is the immutable result of one price-fetch attempt. An
// empty Prices table means no auto prices are available; it is not an
// error condition.
type PriceSnapshot struct {
	Prices    PriceTable `json:"prices"`
	FetchedAt time.Time  `json:"fetchedAt"`
	Source    string     `json:"source"`
	Notes     string     `json:"notes,omitempty"`
}

// NetWorthSnapshot is one ledger entry: the net worth recorded for a
// calendar date. Date is an ISO date string so lexicographic order equals
// chronological order.
type NetWorthSnapshot struct {
	Date string  `json:"date"`
	Net  float64 `json:"net"`
}
