package advisor

import (
	"fmt"

	"bandar/pkg/model"
)

// Input is everything the advisor needs for one symbol
type Input struct {
	Indicators       *model.Indicators
	Flow             *model.FlowAnalysis
	CurrentPrice     float64
	AvgPrice         float64 // 0 for a prospective position
	TotalLots        int
	ProfitLossPct    float64
	Settings         model.UserSettings
	AvailableCapital float64 // portfolio-wide, see portfolio.AvailableCapital
}

// price returns the quoted price, falling back to the indicator snapshot
func (in *Input) price() float64 {
	if in.CurrentPrice > 0 {
		return in.CurrentPrice
	}
	if in.Indicators != nil {
		return in.Indicators.CurrentPrice
	}
	return 0
}

// Rule is one row of the suggestion decision table
type Rule struct {
	Name    string
	Action  model.Action
	Urgency model.Urgency
	Match   func(in *Input) bool
	Reason  func(in *Input) string
}

// OverboughtRSI is the rule 6 threshold; the only tolerance-sensitive cutoff
func OverboughtRSI(risk model.RiskTolerance) float64 {
	if risk == model.RiskConservative {
		return 70
	}
	return 80
}

// SuggestionRules is evaluated top to bottom; the first match wins.
// The last rule always matches.
var SuggestionRules = []Rule{
	{
		Name: "strong-distribution", Action: model.ActionSell, Urgency: model.UrgencyImmediate,
		Match: func(in *Input) bool { return in.Flow.Status == model.StatusStrongDistribution },
		Reason: func(in *Input) string {
			return fmt.Sprintf("Strong distribution (score %d/100): bandar is unloading", in.Flow.Score)
		},
	},
	{
		Name: "distribution-at-loss", Action: model.ActionReduce, Urgency: model.UrgencySoon,
		Match: func(in *Input) bool {
			return in.Flow.Status == model.StatusDistribution && in.ProfitLossPct < 0
		},
		Reason: func(in *Input) string {
			return fmt.Sprintf("Distribution while at a %.2f%% loss: cut exposure", in.ProfitLossPct)
		},
	},
	{
		Name: "hard-stop", Action: model.ActionSell, Urgency: model.UrgencyImmediate,
		Match: func(in *Input) bool { return in.ProfitLossPct <= -in.Settings.StopLossTarget },
		Reason: func(in *Input) string {
			return fmt.Sprintf("Loss %.2f%% reached the %.0f%% stop-loss", in.ProfitLossPct, in.Settings.StopLossTarget)
		},
	},
	{
		Name: "take-profit-target", Action: model.ActionTakeProfit, Urgency: model.UrgencyImmediate,
		Match: func(in *Input) bool { return in.ProfitLossPct >= in.Settings.TakeProfitTarget },
		Reason: func(in *Input) string {
			return fmt.Sprintf("Gain %.2f%% reached the %.0f%% target", in.ProfitLossPct, in.Settings.TakeProfitTarget)
		},
	},
	{
		Name: "partial-profit", Action: model.ActionTakeProfit, Urgency: model.UrgencySoon,
		Match: func(in *Input) bool {
			return in.ProfitLossPct >= 0.5*in.Settings.TakeProfitTarget && in.ProfitLossPct > 0
		},
		Reason: func(in *Input) string {
			return fmt.Sprintf("Gain %.2f%% is past half the %.0f%% target: lock in part", in.ProfitLossPct, in.Settings.TakeProfitTarget)
		},
	},
	{
		Name: "overbought-at-resistance", Action: model.ActionTakeProfit, Urgency: model.UrgencySoon,
		Match: func(in *Input) bool {
			return in.Indicators.RSI >= OverboughtRSI(in.Settings.RiskTolerance) && in.Indicators.PricePosition > 85
		},
		Reason: func(in *Input) string {
			return fmt.Sprintf("RSI %.1f overbought near resistance (position %.0f%%)", in.Indicators.RSI, in.Indicators.PricePosition)
		},
	},
	{
		Name: "distribution-ceiling", Action: model.ActionTakeProfit, Urgency: model.UrgencyWatch,
		Match: func(in *Input) bool {
			return in.Flow.Pattern == model.PatternDistributionCeiling && in.ProfitLossPct > 5
		},
		Reason: func(in *Input) string {
			return fmt.Sprintf("Sellers defending the ceiling at %.0f with %.2f%% gain", in.Indicators.Resistance, in.ProfitLossPct)
		},
	},
	{
		Name: "strong-accumulation", Action: model.ActionStrongBuy, Urgency: model.UrgencySoon,
		Match: func(in *Input) bool {
			return in.Flow.Status == model.StatusStrongAccumulation && in.Indicators.Trend != model.TrendDown
		},
		Reason: func(in *Input) string {
			return fmt.Sprintf("Strong accumulation (score %d/100) in a %s trend", in.Flow.Score, in.Indicators.Trend)
		},
	},
	{
		Name: "accumulation-near-ma20", Action: model.ActionBuy, Urgency: model.UrgencyWatch,
		Match: func(in *Input) bool {
			return in.Flow.Status == model.StatusAccumulation &&
				in.Indicators.RSI < 60 &&
				in.price() <= in.Indicators.MA20*1.03
		},
		Reason: func(in *Input) string {
			return fmt.Sprintf("Accumulation with RSI %.1f close to MA20 %.0f", in.Indicators.RSI, in.Indicators.MA20)
		},
	},
	{
		Name: "shakeout", Action: model.ActionStrongBuy, Urgency: model.UrgencySoon,
		Match: func(in *Input) bool { return in.Flow.Pattern == model.PatternShakeout },
		Reason: func(in *Input) string {
			return "Shakeout recovered: weak hands flushed out"
		},
	},
	{
		Name: "breakout", Action: model.ActionBuy, Urgency: model.UrgencySoon,
		Match: func(in *Input) bool { return in.Flow.Pattern == model.PatternBreakout },
		Reason: func(in *Input) string {
			return "Volume-confirmed breakout above the 20-day high"
		},
	},
	{
		Name: "danger-in-profit", Action: model.ActionReduce, Urgency: model.UrgencySoon,
		Match: func(in *Input) bool {
			return in.Flow.WarningLevel == model.WarningDanger && in.ProfitLossPct > 0
		},
		Reason: func(in *Input) string {
			return fmt.Sprintf("Danger signals while %.2f%% in profit: secure gains", in.ProfitLossPct)
		},
	},
	{
		Name: "hold", Action: model.ActionHold, Urgency: model.UrgencyNone,
		Match: func(in *Input) bool { return true },
		Reason: func(in *Input) string {
			return "No actionable signal"
		},
	},
}

// MatchRule returns the first rule whose predicate holds
func MatchRule(rules []Rule, in *Input) *Rule {
	for i := range rules {
		if rules[i].Match(in) {
			return &rules[i]
		}
	}
	return nil
}
