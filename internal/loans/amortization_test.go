package loans

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeMonthlyPaymentZeroRate(t *testing.T) {
	payment, err := ComputeMonthlyPayment(decimal.NewFromInt(250000), decimal.Zero, 20)
	if err != nil {
		t.Fatalf("ComputeMonthlyPayment: %v", err)
	}
	if got, want := payment.StringFixed(2), "1041.67"; got != want {
		t.Fatalf("payment = %s, want %s", got, want)
	}
}

func TestComputeMonthlyPaymentStandardAmortization(t *testing.T) {
	payment, err := ComputeMonthlyPayment(decimal.NewFromInt(100000), decimal.NewFromInt(5), 20)
	if err != nil {
		t.Fatalf("ComputeMonthlyPayment: %v", err)
	}
	expected := decimal.NewFromFloat(659.96)
	if payment.Sub(expected).Abs().GreaterThan(decimal.NewFromFloat(0.05)) {
		t.Fatalf("payment = %s, want about %s", payment, expected)
	}
}

func TestComputeMonthlyPaymentRejectsBadInput(t *testing.T) {
	cases := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		years     int
	}{
		{"zero principal", decimal.Zero, decimal.NewFromInt(5), 20},
		{"negative principal", decimal.NewFromInt(-1), decimal.NewFromInt(5), 20},
		{"zero years", decimal.NewFromInt(100000), decimal.NewFromInt(5), 0},
		{"negative rate", decimal.NewFromInt(100000), decimal.NewFromInt(-1), 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ComputeMonthlyPayment(tc.principal, tc.rate, tc.years); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
