package engine

import (
	"errors"
	"testing"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// steadyRule is an equity walk that never moves the price.
func steadyRule() domain.EquityRule {
	r := domain.DefaultEquityRule()
	r.Rand = func() float64 { return 0.5 }
	return r
}

func newTestEquity(t *testing.T, symbol, price string) *domain.Asset {
	t.Helper()
	a, err := domain.NewEquityWithRule(symbol, symbol+" S.A.", d(price), steadyRule())
	if err != nil {
		t.Fatalf("NewEquityWithRule(%s): %v", symbol, err)
	}
	return a
}

func newTestBond(t *testing.T, symbol, price, rate string) *domain.Asset {
	t.Helper()
	a, err := domain.NewFixedIncome(symbol, symbol+" bond", d(price), d(rate))
	if err != nil {
		t.Fatalf("NewFixedIncome(%s): %v", symbol, err)
	}
	return a
}

func TestNewMarket_IndexesBySymbol(t *testing.T) {
	cdr := newTestEquity(t, "CDR", "280.50")
	pko := newTestEquity(t, "PKO", "42.30")
	m, err := NewMarket(pko, cdr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	got, ok := m.Asset("CDR")
	if !ok || got != cdr {
		t.Errorf("Asset(CDR) = %v, %v; want the CDR asset", got, ok)
	}
	if !m.HasAsset("PKO") {
		t.Error("HasAsset(PKO) = false, want true")
	}
	if _, ok := m.Asset("FAKE"); ok {
		t.Error("Asset(FAKE) found, want absent")
	}
	if m.HasAsset("FAKE") {
		t.Error("HasAsset(FAKE) = true, want false")
	}
}

func TestNewMarket_RejectsDuplicates(t *testing.T) {
	_, err := NewMarket(newTestEquity(t, "CDR", "1"), newTestEquity(t, "CDR", "2"))
	if !errors.Is(err, domain.ErrDuplicateSymbol) {
		t.Errorf("error = %v, want ErrDuplicateSymbol", err)
	}
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestNewMarket_RejectsNil(t *testing.T) {
	if _, err := NewMarket(nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestMarket_AddAndDelist(t *testing.T) {
	m, _ := NewMarket()

	if err := m.Add(newTestEquity(t, "ALE", "26.75")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !m.HasAsset("ALE") {
		t.Fatal("ALE should be listed after Add")
	}
	if err := m.Delist("ALE"); err != nil {
		t.Fatalf("Delist: %v", err)
	}
	if m.HasAsset("ALE") {
		t.Error("ALE should not be listed after Delist")
	}
	if err := m.Delist("ALE"); !errors.Is(err, domain.ErrAssetNotFound) {
		t.Errorf("second Delist error = %v, want ErrAssetNotFound", err)
	}
}

func TestMarket_ListAssetsOrderedCopy(t *testing.T) {
	m, _ := NewMarket(
		newTestEquity(t, "PKO", "42.30"),
		newTestBond(t, "KOR2032", "250", "4.2"),
		newTestEquity(t, "CDR", "280.50"),
	)

	list := m.ListAssets()
	want := []string{"CDR", "KOR2032", "PKO"}
	if len(list) != len(want) {
		t.Fatalf("len(ListAssets()) = %d, want %d", len(list), len(want))
	}
	for i, sym := range want {
		if list[i].Symbol() != sym {
			t.Errorf("ListAssets()[%d] = %s, want %s", i, list[i].Symbol(), sym)
		}
	}

	// Overwriting the returned slice must not affect the market.
	list[0] = nil
	if a, ok := m.Asset("CDR"); !ok || a == nil {
		t.Error("CDR should still be listed after mutating the returned slice")
	}
}

func TestMarket_UpdateAllPricesStepsEachAssetOnce(t *testing.T) {
	bond := newTestBond(t, "POL2030", "1000", "12")
	other := newTestBond(t, "TRE2028", "500", "12")
	m, _ := NewMarket(bond, other)

	m.UpdateAllPrices()

	if !bond.Price().Equal(d("1010")) {
		t.Errorf("POL2030 price = %s, want 1010", bond.Price())
	}
	if !other.Price().Equal(d("505")) {
		t.Errorf("TRE2028 price = %s, want 505", other.Price())
	}
}
