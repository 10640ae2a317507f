package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"bandar/internal/portfolio"
	"bandar/internal/scanner"
	"bandar/pkg/model"
)

type analysisOutput struct {
	Items  []*model.PortfolioItem `json:"items"`
	Errors map[string]string      `json:"errors,omitempty"`
}

type portfolioOutput struct {
	Items   []*model.PortfolioItem `json:"items"`
	Summary portfolio.Summary      `json:"summary"`
	Errors  map[string]string      `json:"errors,omitempty"`
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func rupiah(v float64) string {
	if v < 0 {
		return "-" + humanize.Comma(int64(-v+0.5))
	}
	return humanize.Comma(int64(v + 0.5))
}

func signedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func outputAnalysis(items []*model.PortfolioItem, result *scanner.Result) error {
	if len(items) == 0 {
		fmt.Println("No symbols could be analyzed.")
		printErrors(result)
		return nil
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Symbol", "Price", "Trend", "RSI", "Flow", "Pattern", "Action", "Urgency"}),
	)
	for _, item := range items {
		trend, rsi := "-", "-"
		if item.Indicators != nil {
			trend = string(item.Indicators.Trend)
			rsi = fmt.Sprintf("%.1f", item.Indicators.RSI)
		}
		flow, pattern := "-", "-"
		if item.Flow != nil {
			flow = fmt.Sprintf("%d %s", item.Flow.Score, item.Flow.Status)
			if item.Flow.Pattern != model.PatternNone {
				pattern = string(item.Flow.Pattern)
			}
		}
		table.Append([]string{
			item.Symbol,
			rupiah(item.CurrentPrice),
			trend,
			rsi,
			flow,
			pattern,
			string(item.Suggestion.Action),
			string(item.Suggestion.Urgency),
		})
	}
	table.Render()

	for _, item := range items {
		printDetails(item)
	}

	printErrors(result)
	fmt.Printf("\nAnalyzed %d symbols in %s\n", result.Scanned, result.ScanTime.Round(time.Millisecond))
	return nil
}

func outputPortfolio(items []*model.PortfolioItem, summary portfolio.Summary, result *scanner.Result) error {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Symbol", "Lots", "Avg", "Price", "Value", "P/L", "P/L %", "Health", "Action"}),
	)
	for _, item := range items {
		table.Append([]string{
			item.Symbol,
			fmt.Sprintf("%d", item.Position.TotalLots),
			rupiah(item.Position.AvgPrice.InexactFloat64()),
			rupiah(item.CurrentPrice),
			rupiah(item.MarketValue),
			rupiah(item.ProfitLoss),
			signedPct(item.ProfitLossPct),
			string(item.Plan.PositionHealth),
			string(item.Suggestion.Action),
		})
	}
	table.Render()

	fmt.Printf("\nInvested: Rp %s | Value: Rp %s | P/L: Rp %s (%s) | Available: Rp %s\n",
		rupiah(summary.Invested), rupiah(summary.MarketValue), rupiah(summary.ProfitLoss),
		signedPct(summary.ProfitLossPct), rupiah(summary.AvailableCapital))

	for _, item := range items {
		printDetails(item)
	}

	printErrors(result)
	return nil
}

// printDetails writes the suggestion and trading plan of one item
func printDetails(item *model.PortfolioItem) {
	s := item.Suggestion
	p := item.Plan

	fmt.Printf("\n[%s] %s (%s)\n", item.Symbol, s.Action, s.Urgency)
	fmt.Printf("  %s\n", s.Reason)
	if s.AnalysisSummary != "" {
		fmt.Printf("  %s\n", s.AnalysisSummary)
	}
	for _, w := range s.WarningFlags {
		fmt.Printf("  ! %s\n", w)
	}
	if s.IsNearExit {
		fmt.Println("  ! Near exit level")
	}

	if item.CurrentPrice <= 0 {
		return
	}

	fmt.Printf("  Stop loss: %s (%s) %s\n", rupiah(p.StopLoss.Price), signedPct(p.StopLoss.Percent), p.StopLoss.Reason)
	for i, tp := range []model.PriceLevel{p.TakeProfit1, p.TakeProfit2, p.TakeProfit3} {
		fmt.Printf("  TP%d: %s (%s) %s\n", i+1, rupiah(tp.Price), signedPct(tp.Percent), tp.Reason)
	}
	fmt.Printf("  Risk/Reward: %.2f | Downside: %.2f%% | Upside: %.2f%%\n", p.RiskRewardRatio, p.MaxDownside, p.MaxUpside)

	if len(p.AddZones) > 0 {
		zones := append([]model.AddZone{}, p.AddZones...)
		sort.SliceStable(zones, func(i, j int) bool { return zones[i].Price > zones[j].Price })
		parts := make([]string, 0, len(zones))
		for _, z := range zones {
			parts = append(parts, fmt.Sprintf("%s %s x%d", z.Label, rupiah(z.Price), z.Lots))
		}
		fmt.Printf("  Add zones: %s\n", strings.Join(parts, " | "))
	}
	for _, step := range p.SellStrategy {
		lots := fmt.Sprintf("%d lots", step.Lots)
		if step.SellAll {
			lots = "all"
		}
		fmt.Printf("  Sell %s at %s: %s\n", lots, step.Trigger, step.Description)
	}

	if verbose {
		if p.ImmediateAction != "" {
			fmt.Printf("  Now: %s\n", p.ImmediateAction)
		}
		if p.ShortTermPlan != "" {
			fmt.Printf("  Plan: %s\n", p.ShortTermPlan)
		}
		if p.Notes != "" {
			fmt.Printf("  Notes: %s\n", p.Notes)
		}
		if item.Flow != nil {
			for _, sig := range item.Flow.Signals {
				fmt.Printf("  %-8s %s: %s\n", sig.Kind, sig.Name, sig.Description)
			}
		}
	}
}

func printErrors(result *scanner.Result) {
	if len(result.Errors) == 0 {
		return
	}
	syms := make([]string, 0, len(result.Errors))
	for sym := range result.Errors {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	fmt.Printf("\n%d symbols failed:\n", len(syms))
	for _, sym := range syms {
		fmt.Printf("  %s: %v\n", sym, result.Errors[sym])
	}
}
