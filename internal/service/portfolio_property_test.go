package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/efreitasn/portfoliosim/internal/engine"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// genMarket draws a market of 1–5 steady-priced equities.
func genMarket(t *rapid.T) (*engine.Market, []string) {
	n := rapid.IntRange(1, 5).Draw(t, "numAssets")
	assets := make([]*domain.Asset, n)
	symbols := make([]string, n)
	for i := 0; i < n; i++ {
		symbols[i] = fmt.Sprintf("SYM%d", i)
		cents := rapid.Int64Range(1, 500_000).Draw(t, fmt.Sprintf("price-%d", i))
		a, err := domain.NewEquityWithRule(symbols[i], "Asset "+symbols[i], decimal.New(cents, -2), steadyRule())
		if err != nil {
			t.Fatalf("NewEquityWithRule: %v", err)
		}
		assets[i] = a
	}
	m, err := engine.NewMarket(assets...)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	return m, symbols
}

// Property: funds conservation
// A valid buy lowers cash by exactly price × quantity, and at fixed prices
// neither buys nor sells change the total value.
func TestProperty_FundsConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, symbols := genMarket(t)
		cash := decimal.New(rapid.Int64Range(0, 100_000_000).Draw(t, "cashCents"), -2)
		p, err := NewPortfolio(cash)
		if err != nil {
			t.Fatalf("NewPortfolio: %v", err)
		}
		initialTotal := p.TotalValue()

		ops := rapid.IntRange(1, 30).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			symbol := rapid.SampledFrom(symbols).Draw(t, fmt.Sprintf("symbol-%d", i))
			qty := rapid.Int64Range(1, 50).Draw(t, fmt.Sprintf("qty-%d", i))
			buy := rapid.Bool().Draw(t, fmt.Sprintf("buy-%d", i))

			before := p.Cash()
			asset, _ := m.Asset(symbol)
			amount := asset.Price().Mul(decimal.NewFromInt(qty))

			var err error
			if buy {
				_, err = p.Buy(symbol, qty, m)
				if err == nil && !p.Cash().Equal(before.Sub(amount)) {
					t.Fatalf("buy: cash %s, want %s", p.Cash(), before.Sub(amount))
				}
			} else {
				_, err = p.Sell(symbol, qty, m)
				if err == nil && !p.Cash().Equal(before.Add(amount)) {
					t.Fatalf("sell: cash %s, want %s", p.Cash(), before.Add(amount))
				}
			}
			if err != nil && !p.Cash().Equal(before) {
				t.Fatalf("rejected operation changed cash from %s to %s", before, p.Cash())
			}
			if p.Cash().IsNegative() {
				t.Fatalf("cash went negative: %s", p.Cash())
			}
			if !p.TotalValue().Equal(initialTotal) {
				t.Fatalf("total value drifted from %s to %s", initialTotal, p.TotalValue())
			}
			for sym, pos := range p.Positions() {
				if pos.Quantity <= 0 {
					t.Fatalf("position %s stored with quantity %d", sym, pos.Quantity)
				}
			}
		}
	})
}

// Property: position merge
// Buying the same symbol twice yields one position holding q1+q2.
func TestProperty_PositionMerge(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, symbols := genMarket(t)
		symbol := rapid.SampledFrom(symbols).Draw(t, "symbol")
		q1 := rapid.Int64Range(1, 1000).Draw(t, "q1")
		q2 := rapid.Int64Range(1, 1000).Draw(t, "q2")

		p, _ := NewPortfolio(decimal.NewFromInt(1_000_000_000))
		if _, err := p.Buy(symbol, q1, m); err != nil {
			t.Fatalf("Buy q1: %v", err)
		}
		if _, err := p.Buy(symbol, q2, m); err != nil {
			t.Fatalf("Buy q2: %v", err)
		}
		if p.PositionCount() != 1 {
			t.Fatalf("PositionCount() = %d, want 1", p.PositionCount())
		}
		if got := p.QuantityOf(symbol); got != q1+q2 {
			t.Fatalf("QuantityOf(%s) = %d, want %d", symbol, got, q1+q2)
		}
	})
}

// Property: full liquidation
// Selling the entire held quantity removes the position.
func TestProperty_FullLiquidation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, symbols := genMarket(t)
		symbol := rapid.SampledFrom(symbols).Draw(t, "symbol")
		qty := rapid.Int64Range(1, 1000).Draw(t, "qty")
		split := rapid.Int64Range(1, qty).Draw(t, "split")

		p, _ := NewPortfolio(decimal.NewFromInt(1_000_000_000))
		if _, err := p.Buy(symbol, qty, m); err != nil {
			t.Fatalf("Buy: %v", err)
		}
		if _, err := p.Sell(symbol, split, m); err != nil {
			t.Fatalf("Sell split: %v", err)
		}
		if rest := qty - split; rest > 0 {
			if _, err := p.Sell(symbol, rest, m); err != nil {
				t.Fatalf("Sell rest: %v", err)
			}
		}
		if p.HasPosition(symbol) {
			t.Fatalf("position %s still present after full liquidation", symbol)
		}
		if p.QuantityOf(symbol) != 0 {
			t.Fatalf("QuantityOf(%s) = %d, want 0", symbol, p.QuantityOf(symbol))
		}
	})
}

// Property: rejection correctness
// Over-spending, over-selling and unknown symbols fail with the right error
// and leave the ledger unchanged.
func TestProperty_RejectionLeavesStateUnchanged(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, symbols := genMarket(t)
		symbol := rapid.SampledFrom(symbols).Draw(t, "symbol")
		asset, _ := m.Asset(symbol)

		held := rapid.Int64Range(1, 100).Draw(t, "held")
		p, _ := NewPortfolio(decimal.Zero)
		if err := p.AddAsset(asset, held); err != nil {
			t.Fatalf("AddAsset: %v", err)
		}
		// Cash strictly below the cost of one more unit.
		shortfall := decimal.New(rapid.Int64Range(1, 100).Draw(t, "shortfallCents"), -2)
		cash := asset.Price().Sub(shortfall)
		if cash.IsNegative() {
			cash = decimal.Zero
		}
		p.cash = cash

		check := func(err, want error) {
			if !errors.Is(err, want) {
				t.Fatalf("error = %v, want %v", err, want)
			}
			if !p.Cash().Equal(cash) || p.QuantityOf(symbol) != held || p.PositionCount() != 1 {
				t.Fatalf("state changed: cash=%s qty=%d positions=%d", p.Cash(), p.QuantityOf(symbol), p.PositionCount())
			}
		}

		_, err := p.Buy(symbol, 1, m)
		check(err, domain.ErrInsufficientFunds)

		extra := rapid.Int64Range(1, 100).Draw(t, "extra")
		_, err = p.Sell(symbol, held+extra, m)
		check(err, domain.ErrInsufficientAssets)

		_, err = p.Buy("UNKNOWN", 1, m)
		check(err, domain.ErrAssetNotFound)
		_, err = p.Sell("UNKNOWN", 1, m)
		check(err, domain.ErrAssetNotFound)

		bad := rapid.Int64Range(-100, 0).Draw(t, "badQty")
		_, err = p.Buy(symbol, bad, m)
		check(err, domain.ErrInvalidArgument)
		_, err = p.Sell(symbol, bad, m)
		check(err, domain.ErrInvalidArgument)
	})
}
