package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/efreitasn/portfoliosim/internal/engine"
	"github.com/efreitasn/portfoliosim/internal/metrics"
	"github.com/efreitasn/portfoliosim/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotStore persists portfolio snapshots. *store.FileStore satisfies it.
type SnapshotStore interface {
	Save(ctx context.Context, snap *store.Snapshot) error
	Load(ctx context.Context) (*store.Snapshot, error)
}

// SessionConfig holds the session's policy knobs.
type SessionConfig struct {
	DefaultCash decimal.Decimal // endowment of a fresh portfolio
	Currency    string          // ISO 4217 code used in logs and summaries
}

// AssetView is a read-only copy of a listed asset.
type AssetView struct {
	Symbol     string
	Name       string
	Kind       domain.AssetKind
	Price      decimal.Decimal
	AnnualRate decimal.Decimal
}

// PositionSummary is one line of a portfolio summary.
type PositionSummary struct {
	Symbol   string
	Name     string
	Kind     domain.AssetKind
	Quantity int64
	Price    decimal.Decimal // zero when unpriced
	Value    decimal.Decimal
	Priced   bool
}

// Summary is a point-in-time valuation of the portfolio.
type Summary struct {
	PortfolioID string
	Currency    string
	Cash        decimal.Decimal
	AssetsValue decimal.Decimal
	TotalValue  decimal.Decimal
	Positions   []PositionSummary // ordered by symbol
}

// Session is one user's simulator run: a market, the portfolio trading on
// it, and the snapshot store it persists to. Its mutex serializes the
// outer surfaces (HTTP handlers, the price ticker, the CLI); the market and
// portfolio themselves are not synchronized.
type Session struct {
	mu          sync.Mutex
	market      *engine.Market
	portfolio   *Portfolio
	portfolioID string
	snapshots   SnapshotStore
	cfg         SessionConfig
	logger      *slog.Logger
	metrics     *metrics.Metrics // optional
	now         func() time.Time
}

// NewSession creates a session with a fresh default portfolio. Call Load to
// replace it with the persisted one.
func NewSession(
	market *engine.Market,
	snapshots SnapshotStore,
	cfg SessionConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) (*Session, error) {
	if market == nil {
		return nil, &domain.ValidationError{Message: "session market must not be nil"}
	}
	if cfg.Currency == "" {
		cfg.Currency = domain.DefaultCurrency
	}
	p, err := NewPortfolio(cfg.DefaultCash)
	if err != nil {
		return nil, fmt.Errorf("default cash: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		market:      market,
		portfolio:   p,
		portfolioID: uuid.NewString(),
		snapshots:   snapshots,
		cfg:         cfg,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
	s.observe()
	return s, nil
}

// Load replaces the session's portfolio with the persisted one. A missing,
// unreadable, or invalid snapshot is not an error: the session falls back
// to a fresh portfolio holding the default cash.
func (s *Session) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, id := s.loadLocked(ctx)
	s.portfolio = p
	s.portfolioID = id
	s.observe()
}

func (s *Session) loadLocked(ctx context.Context) (*Portfolio, string) {
	fresh := func() (*Portfolio, string) {
		// DefaultCash was validated by NewSession.
		p, _ := NewPortfolio(s.cfg.DefaultCash)
		return p, uuid.NewString()
	}

	if s.snapshots == nil {
		return fresh()
	}

	snap, err := s.snapshots.Load(ctx)
	switch {
	case errors.Is(err, store.ErrSnapshotNotFound):
		s.logger.Info("no snapshot found, starting with default portfolio",
			slog.String("default_cash", domain.FormatAmount(s.cfg.DefaultCash, s.cfg.Currency)))
		return fresh()
	case err != nil:
		s.logger.Warn("snapshot unreadable, starting with default portfolio",
			slog.String("error", err.Error()))
		return fresh()
	}

	p, err := RestorePortfolio(snap.Cash, snap.Holdings, s.market)
	if err != nil {
		s.logger.Warn("snapshot rejected, starting with default portfolio",
			slog.String("error", err.Error()))
		return fresh()
	}
	if unpriced := p.Reconcile(s.market); len(unpriced) > 0 {
		s.logger.Warn("snapshot holds symbols not listed on the market",
			slog.Any("symbols", unpriced))
	}

	id := snap.PortfolioID
	if id == "" {
		id = uuid.NewString()
	}
	s.logger.Info("portfolio loaded",
		slog.String("portfolio_id", id),
		slog.String("cash", domain.FormatAmount(p.Cash(), s.cfg.Currency)),
		slog.Int("positions", p.PositionCount()))
	return p, id
}

// Save persists the portfolio. A failure is logged and returned wrapped in
// domain.ErrPersistence; in-memory state is unaffected either way.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshots == nil {
		return fmt.Errorf("%w: no snapshot store configured", domain.ErrPersistence)
	}

	snap := &store.Snapshot{
		Version:     store.SnapshotVersion,
		PortfolioID: s.portfolioID,
		SavedAt:     s.now().UTC(),
		Cash:        s.portfolio.Cash(),
		Holdings:    s.portfolio.Holdings(),
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		s.logger.Error("snapshot save failed", slog.String("error", err.Error()))
		if s.metrics != nil {
			s.metrics.SnapshotSaves.WithLabelValues("error").Inc()
		}
		return err
	}

	s.logger.Info("snapshot saved",
		slog.String("portfolio_id", s.portfolioID),
		slog.Int("positions", len(snap.Holdings)))
	if s.metrics != nil {
		s.metrics.SnapshotSaves.WithLabelValues("ok").Inc()
	}
	return nil
}

// Buy purchases quantity units of symbol.
func (s *Session) Buy(symbol string, quantity int64) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, err := s.portfolio.Buy(symbol, quantity, s.market)
	s.recordTrade(domain.TradeSideBuy, symbol, quantity, trade, err)
	return trade, err
}

// Sell disposes of quantity units of symbol.
func (s *Session) Sell(symbol string, quantity int64) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, err := s.portfolio.Sell(symbol, quantity, s.market)
	s.recordTrade(domain.TradeSideSell, symbol, quantity, trade, err)
	return trade, err
}

// Step advances every market price by one step. It implements engine.Stepper.
func (s *Session) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.market.UpdateAllPrices()
	if s.metrics != nil {
		s.metrics.PriceSteps.Inc()
	}
	s.observe()
	s.logger.Debug("market prices advanced",
		slog.Int("assets", s.market.Len()),
		slog.String("total_value", domain.FormatAmount(s.portfolio.TotalValue(), s.cfg.Currency)))
}

// Assets returns a copy of every listed asset, ordered by symbol.
func (s *Session) Assets() []AssetView {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.market.ListAssets()
	out := make([]AssetView, len(list))
	for i, a := range list {
		out[i] = viewOf(a)
	}
	return out
}

// Asset returns a copy of the asset listed under symbol.
func (s *Session) Asset(symbol string) (AssetView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.market.Asset(symbol)
	if !ok {
		return AssetView{}, fmt.Errorf("%w: %s is not listed on the market", domain.ErrAssetNotFound, symbol)
	}
	return viewOf(a), nil
}

// Summary values the portfolio at current market prices.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := s.portfolio.Positions()
	lines := make([]PositionSummary, 0, len(positions))
	for symbol, pos := range positions {
		line := PositionSummary{
			Symbol:   symbol,
			Quantity: pos.Quantity,
			Value:    pos.Value(),
			Priced:   pos.Priced(),
		}
		if pos.Priced() {
			line.Name = pos.Asset.Name()
			line.Kind = pos.Asset.Kind()
			line.Price = pos.Asset.Price()
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Symbol < lines[j].Symbol })

	return Summary{
		PortfolioID: s.portfolioID,
		Currency:    s.cfg.Currency,
		Cash:        s.portfolio.Cash(),
		AssetsValue: s.portfolio.AssetsValue(),
		TotalValue:  s.portfolio.TotalValue(),
		Positions:   lines,
	}
}

// Currency returns the session's display currency.
func (s *Session) Currency() string {
	return s.cfg.Currency
}

func viewOf(a *domain.Asset) AssetView {
	return AssetView{
		Symbol:     a.Symbol(),
		Name:       a.Name(),
		Kind:       a.Kind(),
		Price:      a.Price(),
		AnnualRate: a.AnnualRate(),
	}
}

func (s *Session) recordTrade(side domain.TradeSide, symbol string, quantity int64, trade *domain.Trade, err error) {
	if s.metrics != nil {
		s.metrics.Trades.WithLabelValues(string(side), resultLabel(err)).Inc()
	}
	if err != nil {
		s.logger.Warn("trade rejected",
			slog.String("side", string(side)),
			slog.String("symbol", symbol),
			slog.Int64("quantity", quantity),
			slog.String("error", err.Error()))
		return
	}
	s.observe()
	s.logger.Info("trade executed",
		slog.String("trade_id", trade.TradeID),
		slog.String("side", string(side)),
		slog.String("symbol", symbol),
		slog.Int64("quantity", quantity),
		slog.String("price", domain.FormatAmount(trade.Price, s.cfg.Currency)),
		slog.String("total", domain.FormatAmount(trade.Total, s.cfg.Currency)),
		slog.String("cash", domain.FormatAmount(s.portfolio.Cash(), s.cfg.Currency)))
}

// observe refreshes the valuation gauges.
func (s *Session) observe() {
	if s.metrics == nil {
		return
	}
	s.metrics.Cash.Set(s.portfolio.Cash().InexactFloat64())
	s.metrics.TotalValue.Set(s.portfolio.TotalValue().InexactFloat64())
	s.metrics.PositionsCount.Set(float64(s.portfolio.PositionCount()))
}

// resultLabel maps a trade error to a metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrAssetNotFound):
		return "asset_not_found"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInsufficientAssets):
		return "insufficient_assets"
	default:
		return "error"
	}
}
