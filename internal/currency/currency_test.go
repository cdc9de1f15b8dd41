package currency

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvert(t *testing.T) {
	r := NewRates(0.92, 0.79)
	bal := decimal.RequireFromString("70.00")

	tests := []struct {
		code       string
		wantAmount string
		wantCode   string
		wantSymbol string
	}{
		{"USD", "70.00", "USD", "$"},
		{"eur", "64.40", "EUR", "€"},
		{"GBP", "55.30", "GBP", "£"},
		{"", "70.00", "USD", "$"},
		{"JPY", "70.00", "USD", "$"},
	}
	for _, tc := range tests {
		got := r.Convert(bal, tc.code)
		if !got.Amount.Equal(decimal.RequireFromString(tc.wantAmount)) || got.Code != tc.wantCode || got.Symbol != tc.wantSymbol {
			t.Errorf("Convert(%q)=%+v want %s %s %s", tc.code, got, tc.wantAmount, tc.wantCode, tc.wantSymbol)
		}
	}
}

func TestConvertRoundsToCents(t *testing.T) {
	r := NewRates(0.92, 0.79)
	got := r.Convert(decimal.RequireFromString("-2.01"), "GBP")
	// -2.01 * 0.79 = -1.5879
	if !got.Amount.Equal(decimal.RequireFromString("-1.59")) {
		t.Fatalf("got %s want -1.59", got.Amount)
	}
}
