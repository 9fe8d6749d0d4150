package pricing

import (
	"testing"

	"github.com/cgulucan/bilanco/internal/domain"
)

func TestResolveHomeCurrencyIsOne(t *testing.T) {
	prices := domain.PriceTable{"USDTRY_BUY": 30.0}
	for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
		got, ok := Resolve("TRY", prices, side)
		if !ok || got != 1.0 {
			t.Errorf("Resolve(TRY, %s) = (%v, %v), want (1.0, true)", side, got, ok)
		}
	}
}

func TestResolveHomeCurrencyNormalization(t *testing.T) {
	if got, ok := Resolve("  try ", nil, domain.SideBuy); !ok || got != 1.0 {
		t.Errorf("Resolve(' try ') = (%v, %v), want (1.0, true)", got, ok)
	}
}

func TestResolveUnknownCode(t *testing.T) {
	prices := domain.PriceTable{"USDTRY_BUY": 30.0}
	if _, ok := Resolve("BTC", prices, domain.SideBuy); ok {
		t.Error("unregistered code should not resolve")
	}
}

func TestResolveEmptyTableAllCodes(t *testing.T) {
	for code := range domain.AutoPriceKeys {
		for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
			if _, ok := Resolve(code, domain.PriceTable{}, side); ok {
				t.Errorf("Resolve(%s, empty, %s) should not resolve", code, side)
			}
		}
	}
}

func TestResolveSellUsesSellKey(t *testing.T) {
	prices := domain.PriceTable{"USDTRY_SELL": 31.0, "USDTRY_BUY": 30.0}
	got, ok := Resolve("usd", prices, domain.SideSell)
	if !ok || got != 31.0 {
		t.Errorf("Resolve(usd, SELL) = (%v, %v), want (31.0, true)", got, ok)
	}
	got, ok = Resolve("usd", prices, domain.SideBuy)
	if !ok || got != 30.0 {
		t.Errorf("Resolve(usd, BUY) = (%v, %v), want (30.0, true)", got, ok)
	}
}

func TestResolveMissingKey(t *testing.T) {
	prices := domain.PriceTable{"USDTRY_BUY": 30.0}
	if _, ok := Resolve("EUR", prices, domain.SideBuy); ok {
		t.Error("registered code with no price in table should not resolve")
	}
}
