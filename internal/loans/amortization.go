package loans

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	twelve       = decimal.NewFromInt(12)
	paymentScale = int32(2)
)

// ComputeMonthlyPayment returns the fixed monthly installment for a loan of
// principal at annualRate percent over years, using the standard amortization
// formula. It is a pure helper for clients that want a server-side quote;
// stored interest_rate and monthly_payment values are caller-supplied and are
// never overwritten by it.
func ComputeMonthlyPayment(principal, annualRate decimal.Decimal, years int) (decimal.Decimal, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("principal must be positive")
	}
	if years <= 0 {
		return decimal.Zero, fmt.Errorf("term must be a positive number of years")
	}
	if annualRate.IsNegative() {
		return decimal.Zero, fmt.Errorf("annual rate must not be negative")
	}

	months := decimal.NewFromInt(int64(years) * 12)
	if annualRate.IsZero() {
		return principal.DivRound(months, paymentScale), nil
	}

	monthlyRate := annualRate.Div(hundred).Div(twelve)
	growth := decimal.NewFromInt(1).Add(monthlyRate).Pow(months)
	payment := principal.Mul(monthlyRate).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	return payment.Round(paymentScale), nil
}
