package main

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"bandar/internal/portfolio"
	"bandar/internal/scanner"
	"bandar/internal/symbols"
	"bandar/pkg/model"
)

func analyzeCmd() *cobra.Command {
	var universe, file string

	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL...]",
		Short: "Analyze stocks, using your position when you hold them",
		Long: `Runs indicators, flow scoring, suggestion and trading plan for each symbol.
Held symbols are analyzed against your position; others get an entry plan.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := append([]string{}, args...)
			if universe != "" {
				u, err := symbols.ParseUniverse(universe)
				if err != nil {
					return err
				}
				codes = append(codes, symbols.GetUniverse(u)...)
			}

			var stocks []model.Stock
			if file != "" {
				fromFile, err := symbols.LoadFile(file)
				if err != nil {
					return fmt.Errorf("loading symbols: %w", err)
				}
				stocks = append(stocks, fromFile...)
			}

			listed, err := symbols.LoadSymbols(codes)
			if err != nil {
				return fmt.Errorf("loading symbols: %w", err)
			}
			stocks = append(stocks, listed...)
			if len(stocks) == 0 {
				return fmt.Errorf("no symbols given (pass codes, --universe or --file)")
			}

			held := make(map[string]model.Position)
			open := current.store.Positions()
			for _, p := range open {
				held[p.Symbol] = p
			}

			seen := make(map[string]bool)
			var positions []model.Position
			for _, s := range stocks {
				if seen[s.Symbol] {
					continue
				}
				seen[s.Symbol] = true
				pos, ok := held[s.Symbol]
				if !ok {
					pos = model.Position{Symbol: s.Symbol}
				}
				positions = append(positions, pos)
			}

			ctx, cancel := signalContext()
			defer cancel()

			settings := current.store.Settings()
			available := portfolio.AvailableCapital(settings, open)
			result, err := runScan(ctx, positions, settings, available)
			if err != nil {
				return err
			}

			items := collectItems(result)
			if format == "json" {
				return outputJSON(analysisOutput{Items: items, Errors: errorStrings(result.Errors)})
			}
			return outputAnalysis(items, result)
		},
	}

	cmd.Flags().StringVar(&universe, "universe", "", "analyze an index universe: lq45, idx30")
	cmd.Flags().StringVar(&file, "file", "", "file with one IDX code per line")
	return cmd
}

func portfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Analyze every open position with portfolio totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return runPortfolio(ctx)
		},
	}
}

func runPortfolio(ctx context.Context) error {
	positions := current.store.Positions()
	if len(positions) == 0 {
		fmt.Println("No open positions. Record one with: bandar buy SYMBOL LOTS PRICE")
		return nil
	}

	settings := current.store.Settings()
	available := portfolio.AvailableCapital(settings, positions)
	result, err := runScan(ctx, positions, settings, available)
	if err != nil {
		return err
	}

	items := collectItems(result)
	summary := portfolio.Summarize(items, available)
	if format == "json" {
		return outputJSON(portfolioOutput{Items: items, Summary: summary, Errors: errorStrings(result.Errors)})
	}
	return outputPortfolio(items, summary, result)
}

// runScan fans positions out to the scanner with a progress bar on stderr
func runScan(ctx context.Context, positions []model.Position, settings model.UserSettings, available float64) (*scanner.Result, error) {
	cfg := current.cfg
	p, closeFn, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	s := scanner.NewScanner(p, settings, available, cfg.Provider.HistoryDays, cfg.Scanner.Workers, cfg.Scanner.Timeout)

	if format == "table" && len(positions) > 1 {
		bar := progressbar.NewOptions(len(positions),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]█[reset]",
				SaucerHead:    "[green]█[reset]",
				SaucerPadding: "░",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		s.SetProgressCallback(func(scanned, total int) {
			bar.Set(scanned)
		})
		defer bar.Finish()
	}

	return s.Scan(ctx, positions), nil
}

func collectItems(result *scanner.Result) []*model.PortfolioItem {
	items := make([]*model.PortfolioItem, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, item)
	}
	portfolio.SortBySymbol(items)
	return items
}

func errorStrings(errs map[string]error) map[string]string {
	out := make(map[string]string, len(errs))
	for sym, err := range errs {
		out[sym] = err.Error()
	}
	return out
}
