package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetLookup resolves symbols to listed assets. *engine.Market satisfies it.
type AssetLookup interface {
	Asset(symbol string) (*domain.Asset, bool)
}

// Portfolio is the transaction ledger: a cash balance plus one position per
// held symbol. Every operation validates before it mutates, so a failed
// call leaves the ledger untouched. It is not safe for concurrent use.
type Portfolio struct {
	cash      decimal.Decimal
	positions map[string]domain.Position
	now       func() time.Time
}

// NewPortfolio creates an empty portfolio with the given cash endowment.
func NewPortfolio(cash decimal.Decimal) (*Portfolio, error) {
	if cash.IsNegative() {
		return nil, &domain.ValidationError{Message: "initial cash must be >= 0"}
	}
	return &Portfolio{
		cash:      cash,
		positions: make(map[string]domain.Position),
		now:       time.Now,
	}, nil
}

// RestorePortfolio rebuilds a portfolio from persisted cash and holdings.
// Holdings whose symbol is not listed on market are kept as unpriced
// positions.
func RestorePortfolio(cash decimal.Decimal, holdings map[string]int64, market AssetLookup) (*Portfolio, error) {
	p, err := NewPortfolio(cash)
	if err != nil {
		return nil, err
	}
	for symbol, qty := range holdings {
		var pos domain.Position
		if asset, ok := market.Asset(symbol); ok {
			pos, err = domain.NewPosition(asset, qty)
		} else {
			pos, err = domain.NewUnpricedPosition(symbol, qty)
		}
		if err != nil {
			return nil, err
		}
		p.positions[symbol] = pos
	}
	return p, nil
}

// Buy purchases quantity units of symbol at the market's current price.
func (p *Portfolio) Buy(symbol string, quantity int64, market AssetLookup) (*domain.Trade, error) {
	if quantity <= 0 {
		return nil, &domain.ValidationError{Message: "quantity must be a positive integer"}
	}

	asset, ok := market.Asset(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not listed on the market", domain.ErrAssetNotFound, symbol)
	}
	if !asset.Tradable() {
		return nil, fmt.Errorf("%w: %s is not tradable", domain.ErrAssetNotFound, symbol)
	}

	price := asset.Price()
	cost := price.Mul(decimal.NewFromInt(quantity))
	if p.cash.LessThan(cost) {
		return nil, fmt.Errorf("%w: required %s, available %s",
			domain.ErrInsufficientFunds, cost.StringFixed(2), p.cash.StringFixed(2))
	}

	pos, err := p.merged(asset, quantity)
	if err != nil {
		return nil, err
	}

	// Commit.
	p.cash = p.cash.Sub(cost)
	p.positions[symbol] = pos

	return p.receipt(domain.TradeSideBuy, symbol, price, quantity, cost), nil
}

// Sell disposes of quantity units of a held symbol at the market's current
// price. Selling the whole position removes it.
func (p *Portfolio) Sell(symbol string, quantity int64, market AssetLookup) (*domain.Trade, error) {
	if quantity <= 0 {
		return nil, &domain.ValidationError{Message: "quantity must be a positive integer"}
	}

	pos, ok := p.positions[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no position in %s", domain.ErrAssetNotFound, symbol)
	}
	if pos.Quantity < quantity {
		return nil, fmt.Errorf("%w: %s held %d, requested %d",
			domain.ErrInsufficientAssets, symbol, pos.Quantity, quantity)
	}

	// The price may have moved since purchase; always take the market's.
	asset, ok := market.Asset(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s is no longer listed on the market", domain.ErrAssetNotFound, symbol)
	}
	if !asset.Tradable() {
		return nil, fmt.Errorf("%w: %s is no longer tradable", domain.ErrAssetNotFound, symbol)
	}

	price := asset.Price()
	proceeds := price.Mul(decimal.NewFromInt(quantity))
	remaining := pos.Quantity - quantity

	// Commit.
	p.cash = p.cash.Add(proceeds)
	if remaining == 0 {
		delete(p.positions, symbol)
	} else {
		p.positions[symbol] = domain.Position{Symbol: symbol, Asset: asset, Quantity: remaining}
	}

	return p.receipt(domain.TradeSideSell, symbol, price, quantity, proceeds), nil
}

// AddAsset credits quantity units of asset without touching cash. It is
// meant for seeding a portfolio, not for trading.
func (p *Portfolio) AddAsset(asset *domain.Asset, quantity int64) error {
	if asset == nil {
		return &domain.ValidationError{Message: "asset must not be nil"}
	}
	if quantity <= 0 {
		return &domain.ValidationError{Message: "quantity must be a positive integer"}
	}
	pos, err := p.merged(asset, quantity)
	if err != nil {
		return err
	}
	p.positions[asset.Symbol()] = pos
	return nil
}

// merged returns the position that results from adding quantity units of
// asset to the current holding.
func (p *Portfolio) merged(asset *domain.Asset, quantity int64) (domain.Position, error) {
	held := p.positions[asset.Symbol()].Quantity
	if held > math.MaxInt64-quantity {
		return domain.Position{}, &domain.ValidationError{
			Message: fmt.Sprintf("position in %s would overflow", asset.Symbol()),
		}
	}
	return domain.NewPosition(asset, held+quantity)
}

func (p *Portfolio) receipt(side domain.TradeSide, symbol string, price decimal.Decimal, qty int64, total decimal.Decimal) *domain.Trade {
	return &domain.Trade{
		TradeID:    uuid.NewString(),
		Side:       side,
		Symbol:     symbol,
		Price:      price,
		Quantity:   qty,
		Total:      total,
		ExecutedAt: p.now(),
	}
}

// Reconcile rebinds every position to the asset market currently lists
// under its symbol. It returns the symbols that remain unpriced, sorted.
func (p *Portfolio) Reconcile(market AssetLookup) []string {
	var unpriced []string
	for symbol, pos := range p.positions {
		asset, ok := market.Asset(symbol)
		if !ok {
			unpriced = append(unpriced, symbol)
		}
		p.positions[symbol] = domain.Position{Symbol: symbol, Asset: asset, Quantity: pos.Quantity}
	}
	sort.Strings(unpriced)
	return unpriced
}

// Cash returns the available cash balance.
func (p *Portfolio) Cash() decimal.Decimal {
	return p.cash
}

// Positions returns a copy of the position ledger keyed by symbol.
func (p *Portfolio) Positions() map[string]domain.Position {
	out := make(map[string]domain.Position, len(p.positions))
	for symbol, pos := range p.positions {
		out[symbol] = pos
	}
	return out
}

// Holdings returns a copy of the symbol → quantity map.
func (p *Portfolio) Holdings() map[string]int64 {
	out := make(map[string]int64, len(p.positions))
	for symbol, pos := range p.positions {
		out[symbol] = pos.Quantity
	}
	return out
}

// AssetsValue is Σ quantity × current price over priced positions.
func (p *Portfolio) AssetsValue() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.positions {
		total = total.Add(pos.Value())
	}
	return total
}

// TotalValue is AssetsValue plus cash.
func (p *Portfolio) TotalValue() decimal.Decimal {
	return p.AssetsValue().Add(p.cash)
}

func (p *Portfolio) PositionCount() int { return len(p.positions) }

func (p *Portfolio) IsEmpty() bool { return len(p.positions) == 0 }

func (p *Portfolio) HasPosition(symbol string) bool {
	_, ok := p.positions[symbol]
	return ok
}

// QuantityOf returns the held quantity of symbol, or 0.
func (p *Portfolio) QuantityOf(symbol string) int64 {
	return p.positions[symbol].Quantity
}
