package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Position is a held quantity of one asset. It is a value type: a change in
// quantity produces a new Position that replaces the old one.
//
// Asset is shared with the market so the position is always valued at the
// latest price. It is nil for positions restored from a snapshot whose
// symbol is no longer listed; such positions are unpriced.
type Position struct {
	Symbol   string
	Asset    *Asset
	Quantity int64
}

// NewPosition creates a priced position.
func NewPosition(asset *Asset, quantity int64) (Position, error) {
	if asset == nil {
		return Position{}, &ValidationError{Message: "position asset must not be nil"}
	}
	if quantity <= 0 {
		return Position{}, &ValidationError{Message: fmt.Sprintf("position quantity for %s must be > 0", asset.Symbol())}
	}
	return Position{Symbol: asset.Symbol(), Asset: asset, Quantity: quantity}, nil
}

// NewUnpricedPosition creates a position for a symbol with no listed asset.
func NewUnpricedPosition(symbol string, quantity int64) (Position, error) {
	if symbol == "" {
		return Position{}, &ValidationError{Message: "position symbol must not be empty"}
	}
	if quantity <= 0 {
		return Position{}, &ValidationError{Message: fmt.Sprintf("position quantity for %s must be > 0", symbol)}
	}
	return Position{Symbol: symbol, Quantity: quantity}, nil
}

// Priced reports whether the position is bound to a listed asset.
func (p Position) Priced() bool {
	return p.Asset != nil
}

// Value returns quantity × current price, or zero for an unpriced position.
func (p Position) Value() decimal.Decimal {
	if p.Asset == nil {
		return decimal.Zero
	}
	return p.Asset.Price().Mul(decimal.NewFromInt(p.Quantity))
}
