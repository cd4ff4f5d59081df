package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/efreitasn/portfoliosim/internal/service"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	steps  int
	seed   uint64
	buys   []string
	sells  []string
	noSave bool
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Trade, advance prices offline, and print the portfolio",
		Long: `Load the saved portfolio, apply the requested trades, advance every
price --steps times, print the resulting valuation, and save it back.

Examples:
  portfoliosim simulate --steps 12
  portfoliosim simulate --buy CDR=25 --buy POL2030=10 --steps 6
  portfoliosim simulate --sell PKO=50 --seed 42 --no-save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.steps, "steps", 1, "number of price steps to advance")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for equity price moves (0 picks a random seed)")
	cmd.Flags().StringArrayVar(&opts.buys, "buy", nil, "SYMBOL=QTY to buy before stepping (repeatable)")
	cmd.Flags().StringArrayVar(&opts.sells, "sell", nil, "SYMBOL=QTY to sell before stepping (repeatable)")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not persist the resulting portfolio")
	return cmd
}

func runSimulate(ctx context.Context, out io.Writer, opts simulateOptions) error {
	if opts.steps < 0 {
		return fmt.Errorf("--steps must not be negative")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setup(os.Stderr, opts.seed)
	if err != nil {
		return err
	}
	a.session.Load(ctx)

	// Rejected trades are reported and skipped; they never abort the run.
	for _, order := range opts.buys {
		trade(out, "buy", order, a.session.Buy)
	}
	for _, order := range opts.sells {
		trade(out, "sell", order, a.session.Sell)
	}

	for i := 0; i < opts.steps; i++ {
		a.session.Step()
	}

	printSummary(out, a.session.Summary())

	if opts.noSave {
		return nil
	}
	if err := a.session.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "saved to %s\n", a.cfg.SnapshotPath)
	return nil
}

func trade(out io.Writer, side, order string, execute func(string, int64) (*domain.Trade, error)) {
	symbol, qty, err := parseOrder(order)
	if err != nil {
		fmt.Fprintf(out, "%s %s: %v\n", side, order, err)
		return
	}
	t, err := execute(symbol, qty)
	if err != nil {
		fmt.Fprintf(out, "%s %s×%d rejected: %v\n", side, symbol, qty, err)
		return
	}
	fmt.Fprintf(out, "%s %s×%d @ %s = %s\n", side, symbol, qty, t.Price.StringFixed(2), t.Total.StringFixed(2))
}

// parseOrder splits "SYMBOL=QTY".
func parseOrder(s string) (string, int64, error) {
	symbol, qtyStr, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(symbol) == "" {
		return "", 0, fmt.Errorf("expected SYMBOL=QTY")
	}
	qty, err := strconv.ParseInt(strings.TrimSpace(qtyStr), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid quantity %q", qtyStr)
	}
	return strings.TrimSpace(symbol), qty, nil
}

func printSummary(out io.Writer, s service.Summary) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tQTY\tPRICE\tVALUE")
	for _, p := range s.Positions {
		price := "-"
		name := "(unlisted)"
		if p.Priced {
			price = domain.FormatAmount(p.Price, s.Currency)
			name = p.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			p.Symbol, name, p.Quantity, price, domain.FormatAmount(p.Value, s.Currency))
	}
	tw.Flush()

	fmt.Fprintf(out, "\ncash:         %s\n", domain.FormatAmount(s.Cash, s.Currency))
	fmt.Fprintf(out, "assets value: %s\n", domain.FormatAmount(s.AssetsValue, s.Currency))
	fmt.Fprintf(out, "total value:  %s\n", domain.FormatAmount(s.TotalValue, s.Currency))
}
