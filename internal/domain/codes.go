package domain

import "strings"

// HomeCurrency is valued at a fixed unit price of 1.0 and is never looked
// up in a price table.
const HomeCurrency = "TRY"

// DateFormat is the ISO calendar-date layout used for ledger keys.
const DateFormat = "2006-01-02"

// Baseline reference entry guaranteed to exist in every net-worth ledger.
const (
	BaselineDate = "2026-01-28"
	BaselineNet  = 2_000_000.0
)

// PriceKeyPair names the buy and sell feed keys registered for a code.
type PriceKeyPair struct {
	Buy  string
	Sell string
}

// AutoPriceKeys is the fixed code registry. Codes absent from this table
// have no auto price and fall back to the row's manual price.
var AutoPriceKeys = map[string]PriceKeyPair{
	"USD":     {Buy: "USDTRY_BUY", Sell: "USDTRY_SELL"},
	"EUR":     {Buy: "EURTRY_BUY", Sell: "EURTRY_SELL"},
	"GRAM":    {Buy: "GRAM_BUY", Sell: "GRAM_SELL"},
	"CEYREK":  {Buy: "CEYREK_BUY", Sell: "CEYREK_SELL"},
	"YARIM":   {Buy: "YARIM_BUY", Sell: "YARIM_SELL"},
	"ATA":     {Buy: "ATA_BUY", Sell: "ATA_SELL"},
	"BILEZIK": {Buy: "BILEZIK_BUY", Sell: "BILEZIK_SELL"},
}

// NormalizeCode trims and upper-cases an asset code for registry lookups.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
