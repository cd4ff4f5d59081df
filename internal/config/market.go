package config

import (
	"fmt"
	"os"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/efreitasn/portfoliosim/internal/engine"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// MarketFile is the YAML layout of a market definition:
//
//	assets:
//	  - symbol: CDR
//	    name: CD Projekt
//	    kind: equity
//	    price: 280.50
//	  - symbol: POL2030
//	    name: Polish Treasury 2030
//	    kind: fixed_income
//	    price: 1000
//	    annual_rate: 3.5
type MarketFile struct {
	Assets []AssetSpec `yaml:"assets"`
}

// AssetSpec describes one listed instrument.
type AssetSpec struct {
	Symbol     string           `yaml:"symbol"`
	Name       string           `yaml:"name"`
	Kind       domain.AssetKind `yaml:"kind"`
	Price      decimal.Decimal  `yaml:"price"`
	AnnualRate decimal.Decimal  `yaml:"annual_rate"`
}

// LoadMarket reads a market definition from path and lists every asset in
// it. Equities walk according to rule.
func LoadMarket(path string, rule domain.EquityRule) (*engine.Market, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read market file: %w", err)
	}
	return ParseMarket(data, rule)
}

// ParseMarket builds a market from YAML bytes.
func ParseMarket(data []byte, rule domain.EquityRule) (*engine.Market, error) {
	var file MarketFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal market file: %w", err)
	}
	if len(file.Assets) == 0 {
		return nil, fmt.Errorf("market file lists no assets")
	}
	return BuildMarket(file.Assets, rule)
}

// BuildMarket instantiates specs and lists them on a new market.
func BuildMarket(specs []AssetSpec, rule domain.EquityRule) (*engine.Market, error) {
	assets := make([]*domain.Asset, 0, len(specs))
	for i, spec := range specs {
		a, err := spec.build(rule)
		if err != nil {
			return nil, fmt.Errorf("asset %d (%s): %w", i, spec.Symbol, err)
		}
		assets = append(assets, a)
	}
	return engine.NewMarket(assets...)
}

func (s AssetSpec) build(rule domain.EquityRule) (*domain.Asset, error) {
	switch s.Kind {
	case domain.AssetKindEquity:
		return domain.NewEquityWithRule(s.Symbol, s.Name, s.Price, rule)
	case domain.AssetKindFixedIncome:
		return domain.NewFixedIncome(s.Symbol, s.Name, s.Price, s.AnnualRate)
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown asset kind %q", s.Kind)}
	}
}

// DefaultAssets is the built-in instrument list.
func DefaultAssets() []AssetSpec {
	equity := func(symbol, name, price string) AssetSpec {
		return AssetSpec{
			Symbol: symbol,
			Name:   name,
			Kind:   domain.AssetKindEquity,
			Price:  decimal.RequireFromString(price),
		}
	}
	bond := func(symbol, name, price, rate string) AssetSpec {
		return AssetSpec{
			Symbol:     symbol,
			Name:       name,
			Kind:       domain.AssetKindFixedIncome,
			Price:      decimal.RequireFromString(price),
			AnnualRate: decimal.RequireFromString(rate),
		}
	}
	return []AssetSpec{
		equity("CDR", "CD Projekt S.A.", "280.50"),
		equity("PKO", "PKO Bank Polski", "42.30"),
		equity("KGH", "KGHM Polska Miedź", "145.80"),
		equity("ALE", "Allegro.eu", "26.75"),
		equity("PEO", "Bank Pekao", "165.20"),
		equity("LPP", "LPP S.A.", "2850.00"),
		bond("POL2030", "Obligacje Skarbu Państwa 2030", "1000.00", "3.5"),
		bond("TRE2028", "Obligacje Skarbu 2028", "500.00", "2.8"),
		bond("KOR2032", "Obligacje korporacyjne 2032", "250.00", "4.2"),
	}
}

// DefaultMarket lists the built-in instruments.
func DefaultMarket(rule domain.EquityRule) (*engine.Market, error) {
	return BuildMarket(DefaultAssets(), rule)
}

// OpenMarket loads the market from c.MarketFile, or the built-in market
// when no file is configured.
func (c *Config) OpenMarket(rule domain.EquityRule) (*engine.Market, error) {
	if c.MarketFile == "" {
		return DefaultMarket(rule)
	}
	return LoadMarket(c.MarketFile, rule)
}
