package domain

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// PriceRule computes an asset's next price from its current one.
type PriceRule interface {
	Next(price decimal.Decimal) decimal.Decimal
}

// EquityRule is a bounded random walk: each step draws a uniform percentage
// change in [-Volatility, +Volatility) and clamps the result to Floor.
type EquityRule struct {
	Volatility decimal.Decimal // percent
	Floor      decimal.Decimal
	Rand       func() float64 // uniform in [0, 1); defaults to math/rand/v2
}

// DefaultEquityRule returns the canonical equity walk: ±10% per step with
// a floor of 1.00.
func DefaultEquityRule() EquityRule {
	return EquityRule{
		Volatility: decimal.NewFromInt(10),
		Floor:      decimal.NewFromInt(1),
		Rand:       rand.Float64,
	}
}

// Next implements PriceRule.
func (r EquityRule) Next(price decimal.Decimal) decimal.Decimal {
	draw := rand.Float64
	if r.Rand != nil {
		draw = r.Rand
	}
	// pct in [-Volatility, +Volatility).
	pct := r.Volatility.Mul(decimal.NewFromFloat(2*draw() - 1))
	next := price.Mul(decimal.NewFromInt(1).Add(pct.Div(hundred))).Round(PricePrecision)
	if next.LessThan(r.Floor) {
		return r.Floor
	}
	return next
}

// FixedIncomeRule compounds monthly at AnnualRate percent.
type FixedIncomeRule struct {
	AnnualRate decimal.Decimal
}

// Next implements PriceRule.
func (r FixedIncomeRule) Next(price decimal.Decimal) decimal.Decimal {
	monthly := r.AnnualRate.Div(monthsInYear).Div(hundred)
	return price.Mul(decimal.NewFromInt(1).Add(monthly)).Round(PricePrecision)
}
