package engine

import (
	"fmt"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/google/btree"
)

// listing is a market entry keyed by symbol.
type listing struct {
	symbol string
	asset  *domain.Asset
}

func listingLess(a, b listing) bool {
	return a.symbol < b.symbol
}

// Market is the registry of tradable assets, indexed by symbol in a B-tree
// so listings come back in symbol order. It is not safe for concurrent use;
// callers serialize access.
type Market struct {
	assets *btree.BTreeG[listing]
}

// NewMarket creates a market from the initial asset set. Duplicate symbols
// are rejected rather than overwritten.
func NewMarket(assets ...*domain.Asset) (*Market, error) {
	const degree = 16
	m := &Market{
		assets: btree.NewG[listing](degree, listingLess),
	}
	for _, a := range assets {
		if err := m.Add(a); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add lists a new asset. It returns a ValidationError wrapping
// domain.ErrDuplicateSymbol if the symbol is already listed.
func (m *Market) Add(a *domain.Asset) error {
	if a == nil {
		return &domain.ValidationError{Message: "market asset must not be nil"}
	}
	if m.assets.Has(listing{symbol: a.Symbol()}) {
		return fmt.Errorf("%w: %w", &domain.ValidationError{
			Message: fmt.Sprintf("symbol %s is already listed", a.Symbol()),
		}, domain.ErrDuplicateSymbol)
	}
	m.assets.ReplaceOrInsert(listing{symbol: a.Symbol(), asset: a})
	return nil
}

// Delist removes an asset from the market. Positions that still reference
// it keep their last price until reconciled.
func (m *Market) Delist(symbol string) error {
	if _, ok := m.assets.Delete(listing{symbol: symbol}); !ok {
		return fmt.Errorf("%w: %s", domain.ErrAssetNotFound, symbol)
	}
	return nil
}

// Asset returns the asset listed under symbol.
func (m *Market) Asset(symbol string) (*domain.Asset, bool) {
	l, ok := m.assets.Get(listing{symbol: symbol})
	if !ok {
		return nil, false
	}
	return l.asset, true
}

// HasAsset reports whether symbol is listed.
func (m *Market) HasAsset(symbol string) bool {
	return m.assets.Has(listing{symbol: symbol})
}

// UpdateAllPrices advances every listed asset by exactly one price step.
func (m *Market) UpdateAllPrices() {
	m.assets.Ascend(func(l listing) bool {
		l.asset.UpdatePrice()
		return true
	})
}

// ListAssets returns the listed assets ordered by symbol. The slice is a
// fresh copy; prices change only through UpdateAllPrices.
func (m *Market) ListAssets() []*domain.Asset {
	out := make([]*domain.Asset, 0, m.assets.Len())
	m.assets.Ascend(func(l listing) bool {
		out = append(out, l.asset)
		return true
	})
	return out
}

// Len returns the number of listed assets.
func (m *Market) Len() int {
	return m.assets.Len()
}
