package valuation

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/cgulucan/bilanco/internal/domain"
	"github.com/cgulucan/bilanco/internal/pricing"
)

// Totals aggregates a valued row set.
type Totals struct {
	Assets float64 `json:"totalAssets"`
	Debts  float64 `json:"totalDebts"`
	Net    float64 `json:"net"`
}

// Value resolves a unit price for every asset row and derives its amount.
// Auto price wins over the manual price; a row with neither prices nor a
// usable quantity gets a zero amount, never an error and never a dropped
// row.
func Value(rows []domain.AssetRow, prices domain.PriceTable, side domain.Side) []domain.ValuedAssetRow {
	return lo.Map(rows, func(row domain.AssetRow, _ int) domain.ValuedAssetRow {
		unitPrice := row.ManualUnitPrice
		if auto, ok := pricing.Resolve(row.Code, prices, side); ok {
			unitPrice = &auto
		}

		amount := domain.SafeDecimal(row.Quantity).Mul(domain.SafeDecimal(domain.SafeFloat(unitPrice)))
		return domain.ValuedAssetRow{
			AssetRow:  row,
			UnitPrice: unitPrice,
			Amount:    decimalToFloat(amount),
		}
	})
}

// Sum produces asset/debt totals and the net figure. Empty row sets yield
// zero totals.
func Sum(assets []domain.ValuedAssetRow, debts []domain.DebtRow) Totals {
	totalAssets := lo.Reduce(assets, func(acc decimal.Decimal, row domain.ValuedAssetRow, _ int) decimal.Decimal {
		return acc.Add(domain.SafeDecimal(row.Amount))
	}, decimal.Zero)

	totalDebts := lo.Reduce(debts, func(acc decimal.Decimal, row domain.DebtRow, _ int) decimal.Decimal {
		return acc.Add(domain.SafeDecimal(row.Amount))
	}, decimal.Zero)

	return Totals{
		Assets: decimalToFloat(totalAssets),
		Debts:  decimalToFloat(totalDebts),
		Net:    decimalToFloat(totalAssets.Sub(totalDebts)),
	}
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
