package ledger

import "github.com/shopspring/decimal"

var (
	// OverdraftFloor is the lowest balance any operation may leave behind.
	OverdraftFloor = decimal.RequireFromString("-5.00")
	// InitialBalance is credited to every new account and restored by a bank reset.
	InitialBalance = decimal.RequireFromString("50.00")
)

func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !hasCents(amount) {
		return ErrInvalidAmount
	}
	return nil
}

func validateBalance(balance decimal.Decimal) error {
	if balance.LessThan(OverdraftFloor) || !hasCents(balance) {
		return ErrInvalidBalance
	}
	return nil
}

var decimalZero = decimal.RequireFromString("0.00")
