package domain

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// PricePrecision is the number of fractional digits kept on asset prices
// after every price update.
const PricePrecision = 8

// DefaultCurrency is the ISO 4217 code used when none is configured.
const DefaultCurrency = "PLN"

// AmountFromFloat converts a float64 monetary input (JSON body, CLI flag)
// to a decimal amount. NaN and infinities are rejected; the sign is left
// to the caller to validate.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("monetary values must be finite numbers")
	}
	return decimal.NewFromFloat(f), nil
}

// FormatAmount renders amount in the given currency using the currency's
// symbol and separators, rounding to the currency's minor unit. Unknown
// currency codes fall back to "<amount> <code>".
func FormatAmount(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), code)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// IsKnownCurrency reports whether code is an ISO 4217 currency code.
func IsKnownCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}
