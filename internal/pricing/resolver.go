package pricing

import "github.com/cgulucan/bilanco/internal/domain"

// Resolve maps an asset code and a side to a unit price from the given
// table. The home currency always resolves to 1.0. A false return means
// "no auto price" and is a normal outcome: callers fall back to the row's
// manual price.
func Resolve(code string, prices domain.PriceTable, side domain.Side) (float64, bool) {
	code = domain.NormalizeCode(code)
	if code == domain.HomeCurrency {
		return 1.0, true
	}

	pair, ok := domain.AutoPriceKeys[code]
	if !ok {
		return 0, false
	}

	key := pair.Buy
	if side == domain.SideSell {
		key = pair.Sell
	}
	price, ok := prices[key]
	return price, ok
}
