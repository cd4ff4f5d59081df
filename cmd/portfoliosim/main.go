package main

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/efreitasn/portfoliosim/internal/config"
	"github.com/efreitasn/portfoliosim/internal/metrics"
	"github.com/efreitasn/portfoliosim/internal/service"
	"github.com/efreitasn/portfoliosim/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portfoliosim",
		Short: "Toy investment portfolio simulator",
		Long: `portfoliosim simulates a small market of equities and bonds and a
single cash-and-positions portfolio trading on it. Configuration is read
from the environment (PORT, LOG_LEVEL, SNAPSHOT_PATH, DEFAULT_CASH, ...).`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSimulateCmd(), newHealthcheckCmd())
	return root
}

// newLogger builds the JSON slog logger for the configured level.
func newLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	session *service.Session
}

// setup loads configuration, opens the market and snapshot store, and
// restores the persisted portfolio. A non-zero seed makes equity prices
// reproducible.
func setup(logOut io.Writer, seed uint64) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel, logOut)
	slog.SetDefault(logger)

	rule := cfg.EquityRule()
	if seed != 0 {
		rule.Rand = rand.New(rand.NewPCG(seed, seed)).Float64
	}

	market, err := cfg.OpenMarket(rule)
	if err != nil {
		return nil, fmt.Errorf("open market: %w", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	sess, err := service.NewSession(market, store.NewFileStore(cfg.SnapshotPath), service.SessionConfig{
		DefaultCash: cfg.DefaultCash,
		Currency:    cfg.Currency,
	}, logger, m)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &app{cfg: cfg, logger: logger, metrics: m, session: sess}, nil
}
