package advisor

import (
	"fmt"
	"strings"

	"bandar/internal/analyzer"
	"bandar/pkg/model"
)

// DataNotAvailable is the reason of the default suggestion
const DataNotAvailable = "Data not available."

// Suggest picks a single action for the position
func Suggest(in Input) model.Suggestion {
	if in.Indicators == nil || in.Flow == nil {
		return model.Suggestion{
			Action:       model.ActionHold,
			Urgency:      model.UrgencyNone,
			Reason:       DataNotAvailable,
			WarningFlags: []string{},
		}
	}

	s := model.Suggestion{
		Action:          model.ActionHold,
		Urgency:         model.UrgencyNone,
		AnalysisSummary: analysisSummary(in.Indicators, in.Flow),
		WarningFlags:    warningFlags(&in),
		IsNearExit:      isNearExit(&in),
	}

	if rule := MatchRule(SuggestionRules, &in); rule != nil {
		s.Action = rule.Action
		s.Urgency = rule.Urgency
		s.Reason = rule.Reason(&in)
	}
	return s
}

// warningFlags collects every warning that applies, independent of the action
func warningFlags(in *Input) []string {
	flags := []string{}
	ind, flow := in.Indicators, in.Flow

	switch flow.WarningLevel {
	case model.WarningDanger:
		flags = append(flags, "DANGER: strong distribution detected")
	case model.WarningCaution:
		flags = append(flags, "CAUTION: distribution or warning signals present")
	}
	if flow.Status == model.StatusDistribution || flow.Status == model.StatusStrongDistribution {
		flags = append(flags, fmt.Sprintf("Bandar status: %s (score %d)", flow.Status, flow.Score))
	}
	if flow.Pattern == model.PatternDistributionCeiling {
		flags = append(flags, "Distribution ceiling: sellers defending the highs")
	}
	if ind.RSI > 75 {
		flags = append(flags, fmt.Sprintf("RSI overbought (%.1f)", ind.RSI))
	}
	if ind.Trend == model.TrendDown && in.price() < ind.MA20 {
		flags = append(flags, fmt.Sprintf("Downtrend below MA20 (%.0f)", ind.MA20))
	}
	if sig := flow.Signal(analyzer.SignalSellingMomentum); sig != nil {
		flags = append(flags, sig.Description)
	}
	return flags
}

// isNearExit reports a price within 10% above the stop trigger, or a gain
// at 90% of the take-profit target
func isNearExit(in *Input) bool {
	if in.AvgPrice > 0 {
		trigger := in.AvgPrice * (1 - in.Settings.StopLossTarget/100)
		if in.price() <= trigger*1.10 {
			return true
		}
	}
	return in.Settings.TakeProfitTarget > 0 && in.ProfitLossPct >= 0.9*in.Settings.TakeProfitTarget
}

var trendArrows = map[model.Trend]string{
	model.TrendUp:       "↑",
	model.TrendDown:     "↓",
	model.TrendSideways: "→",
}

func analysisSummary(ind *model.Indicators, flow *model.FlowAnalysis) string {
	parts := []string{
		fmt.Sprintf("Trend: %s %s", ind.Trend, trendArrows[ind.Trend]),
		fmt.Sprintf("Bandar: %d/100 (%s)", flow.Score, flow.Status),
		fmt.Sprintf("RSI: %.1f", ind.RSI),
	}
	if flow.Pattern != model.PatternNone {
		parts = append(parts, fmt.Sprintf("Pattern: %s", flow.Pattern))
	}
	return strings.Join(parts, " | ")
}
