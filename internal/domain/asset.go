package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetKind identifies the instrument kind and therefore its price rule.
type AssetKind string

const (
	AssetKindEquity      AssetKind = "equity"
	AssetKindFixedIncome AssetKind = "fixed_income"
)

// Valid reports whether k is a known asset kind.
func (k AssetKind) Valid() bool {
	switch k {
	case AssetKindEquity, AssetKindFixedIncome:
		return true
	}
	return false
}

// Asset is a tradable instrument with an evolving price. The symbol is
// immutable; the price only changes through UpdatePrice.
type Asset struct {
	symbol     string
	name       string
	price      decimal.Decimal
	kind       AssetKind
	annualRate decimal.Decimal // fixed income only
	rule       PriceRule
}

// NewEquity creates an equity asset priced by the canonical random walk.
func NewEquity(symbol, name string, price decimal.Decimal) (*Asset, error) {
	return NewEquityWithRule(symbol, name, price, DefaultEquityRule())
}

// NewEquityWithRule creates an equity asset with a custom random walk.
func NewEquityWithRule(symbol, name string, price decimal.Decimal, rule EquityRule) (*Asset, error) {
	if err := validateAsset(symbol, name, price); err != nil {
		return nil, err
	}
	if rule.Volatility.IsNegative() {
		return nil, &ValidationError{Message: "equity volatility must be >= 0"}
	}
	if rule.Floor.IsNegative() {
		return nil, &ValidationError{Message: "equity price floor must be >= 0"}
	}
	return &Asset{
		symbol: symbol,
		name:   name,
		price:  price,
		kind:   AssetKindEquity,
		rule:   rule,
	}, nil
}

// NewFixedIncome creates a fixed-income asset that compounds monthly at
// annualRate percent.
func NewFixedIncome(symbol, name string, price, annualRate decimal.Decimal) (*Asset, error) {
	if err := validateAsset(symbol, name, price); err != nil {
		return nil, err
	}
	if annualRate.IsNegative() {
		return nil, &ValidationError{Message: fmt.Sprintf("annual rate for %s must be >= 0", symbol)}
	}
	return &Asset{
		symbol:     symbol,
		name:       name,
		price:      price,
		kind:       AssetKindFixedIncome,
		annualRate: annualRate,
		rule:       FixedIncomeRule{AnnualRate: annualRate},
	}, nil
}

func validateAsset(symbol, name string, price decimal.Decimal) error {
	if strings.TrimSpace(symbol) == "" {
		return &ValidationError{Message: "asset symbol must not be empty"}
	}
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Message: fmt.Sprintf("asset name for %s must not be empty", symbol)}
	}
	if price.IsNegative() {
		return &ValidationError{Message: fmt.Sprintf("price for %s must be >= 0", symbol)}
	}
	return nil
}

func (a *Asset) Symbol() string              { return a.symbol }
func (a *Asset) Name() string                { return a.name }
func (a *Asset) Price() decimal.Decimal      { return a.price }
func (a *Asset) Kind() AssetKind             { return a.kind }
func (a *Asset) AnnualRate() decimal.Decimal { return a.annualRate }

// Tradable reports whether the asset can be bought and sold. Every current
// kind is tradable.
func (a *Asset) Tradable() bool {
	return a.kind.Valid()
}

// UpdatePrice advances the price by one step of the asset's rule.
func (a *Asset) UpdatePrice() {
	a.price = a.rule.Next(a.price)
}

// Equal reports whether a and b share a symbol, the asset's only business key.
func (a *Asset) Equal(b *Asset) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.symbol == b.symbol
}

func (a *Asset) String() string {
	return fmt.Sprintf("%s (%s): %s", a.symbol, a.name, a.price.StringFixed(2))
}
