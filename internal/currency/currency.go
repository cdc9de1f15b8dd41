// Package currency converts USD balances for display only. Nothing converted
// here is ever written back to the ledger.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

const Base = "USD"

type Display struct {
	Amount decimal.Decimal `json:"amount"`
	Code   string          `json:"currency"`
	Symbol string          `json:"symbol"`
}

type rate struct {
	factor decimal.Decimal
	symbol string
}

// Rates holds USD→X factors.
type Rates struct {
	table map[string]rate
}

func NewRates(usdToEur, usdToGbp float64) Rates {
	return Rates{table: map[string]rate{
		"USD": {factor: decimal.NewFromInt(1), symbol: "$"},
		"EUR": {factor: decimal.NewFromFloat(usdToEur), symbol: "€"},
		"GBP": {factor: decimal.NewFromFloat(usdToGbp), symbol: "£"},
	}}
}

// Convert returns amount in the requested currency rounded to cents.
// Unknown or empty codes fall back to USD.
func (r Rates) Convert(amount decimal.Decimal, code string) Display {
	code = strings.ToUpper(strings.TrimSpace(code))
	rt, ok := r.table[code]
	if !ok {
		code, rt = Base, r.table[Base]
	}
	return Display{
		Amount: amount.Mul(rt.factor).Round(2),
		Code:   code,
		Symbol: rt.symbol,
	}
}
