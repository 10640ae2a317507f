// Package portfolio assembles per-symbol analysis into portfolio items.
// Every function here is pure; callers may run Build for many symbols concurrently.
package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bandar/internal/advisor"
	"bandar/internal/analyzer"
	"bandar/pkg/model"
)

// AvailableCapital is total capital minus the cost basis of every open position
func AvailableCapital(settings model.UserSettings, positions []model.Position) float64 {
	invested := decimal.Zero
	for _, p := range positions {
		invested = invested.Add(p.CostBasis)
	}
	return settings.TotalCapital - invested.InexactFloat64()
}

// Build runs the full indicator, flow and advice pipeline for one symbol.
// A zero-lot position yields a prospective (entry) analysis.
func Build(series *model.PriceSeries, pos model.Position, settings model.UserSettings, availableCapital float64, now time.Time) *model.PortfolioItem {
	item := &model.PortfolioItem{
		Symbol:    pos.Symbol,
		Position:  pos,
		UpdatedAt: now,
	}
	if item.Symbol == "" && series != nil {
		item.Symbol = series.Symbol
		item.Position.Symbol = series.Symbol
	}

	if series.Len() > 0 {
		item.Indicators = analyzer.NewTechnicalAnalyzer().Analyze(series)
		item.Flow = analyzer.NewFlowAnalyzer().Analyze(series)
		item.CurrentPrice = series.LastClose()
	}

	avg := pos.AvgPrice.InexactFloat64()
	cost := pos.CostBasis.InexactFloat64()
	item.MarketValue = float64(pos.Shares()) * item.CurrentPrice
	// thresholds compare the exact percentage; only the reported fields are rounded
	var plPct float64
	if pos.TotalLots > 0 && item.CurrentPrice > 0 {
		pl := item.MarketValue - cost
		if cost > 0 {
			plPct = pl / cost * 100
		}
		item.ProfitLoss = round2(pl)
		item.ProfitLossPct = round2(plPct)
	}

	in := advisor.Input{
		Indicators:       item.Indicators,
		Flow:             item.Flow,
		CurrentPrice:     item.CurrentPrice,
		AvgPrice:         avg,
		TotalLots:        pos.TotalLots,
		ProfitLossPct:    plPct,
		Settings:         settings,
		AvailableCapital: availableCapital,
	}
	item.Suggestion = advisor.Suggest(in)
	item.Plan = advisor.Plan(in)

	return item
}

// Summary holds portfolio-wide totals
type Summary struct {
	Positions        int     `json:"positions"`
	Invested         float64 `json:"invested"`
	MarketValue      float64 `json:"market_value"`
	ProfitLoss       float64 `json:"profit_loss"`
	ProfitLossPct    float64 `json:"profit_loss_pct"`
	AvailableCapital float64 `json:"available_capital"`
}

// Summarize totals the held items. Items without a price count at cost.
func Summarize(items []*model.PortfolioItem, availableCapital float64) Summary {
	s := Summary{AvailableCapital: availableCapital}
	for _, item := range items {
		if item.Position.TotalLots == 0 {
			continue
		}
		s.Positions++
		cost := item.Position.CostBasis.InexactFloat64()
		s.Invested += cost
		if item.CurrentPrice > 0 {
			s.MarketValue += item.MarketValue
		} else {
			s.MarketValue += cost
		}
	}
	s.ProfitLoss = round2(s.MarketValue - s.Invested)
	if s.Invested > 0 {
		s.ProfitLossPct = round2(s.ProfitLoss / s.Invested * 100)
	}
	return s
}

// SortBySymbol orders items alphabetically
func SortBySymbol(items []*model.PortfolioItem) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Symbol < items[j].Symbol
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
