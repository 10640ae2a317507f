package advisor

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"bandar/internal/position"
	"bandar/pkg/model"
)

const (
	maxStopFraction = 0.95 // stop never above 5% below current
	supportBuffer   = 0.98
	atrMultiplier   = 2.0
	breakoutBuffer  = 1.02
)

// take-profit floors above the current price
var tpFloors = [3]float64{1.01, 1.05, 1.10}

// Plan builds exit and entry levels for a held or prospective position
func Plan(in Input) model.TradingPlan {
	current := in.price()
	if in.Indicators == nil || in.Flow == nil || current <= 0 {
		return defaultPlan()
	}

	ind, flow := in.Indicators, in.Flow
	basis := in.AvgPrice
	if basis <= 0 {
		basis = current
	}

	plan := model.TradingPlan{
		PositionHealth: positionHealth(&in),
		AddZones:       []model.AddZone{},
		SellStrategy:   []model.SellStep{},
	}

	plan.StopLoss = stopLoss(current, basis, ind, in.Settings)
	plan.TakeProfit1, plan.TakeProfit2, plan.TakeProfit3 = takeProfits(current, basis, ind, flow, in.Settings)
	plan.AddZones = addZones(&in, current)
	plan.SellStrategy = sellStrategy(plan, in.TotalLots, current)

	plan.MaxDownside = round2(plan.StopLoss.Percent)
	plan.MaxUpside = round2(plan.TakeProfit3.Percent)
	if plan.StopLoss.Percent != 0 {
		plan.RiskRewardRatio = round2(plan.TakeProfit2.Percent / math.Abs(plan.StopLoss.Percent))
	}

	plan.ImmediateAction, plan.ShortTermPlan, plan.Notes = planTexts(&in, plan, current)
	return plan
}

func defaultPlan() model.TradingPlan {
	return model.TradingPlan{
		PositionHealth:  model.HealthWarning,
		AddZones:        []model.AddZone{},
		SellStrategy:    []model.SellStep{},
		ImmediateAction: DataNotAvailable,
		ShortTermPlan:   "Wait for market data before acting.",
		Notes:           "Levels could not be computed without price history.",
	}
}

func positionHealth(in *Input) model.PositionHealth {
	flow, pl := in.Flow, in.ProfitLossPct
	switch {
	case flow.Status == model.StatusStrongDistribution || pl <= -in.Settings.StopLossTarget:
		return model.HealthDanger
	case flow.Status == model.StatusDistribution || flow.WarningLevel == model.WarningDanger || pl < -5:
		return model.HealthWarning
	case flow.Score >= 70 && pl > 5:
		return model.HealthExcellent
	default:
		return model.HealthGood
	}
}

// stopLoss picks the highest of the percentage, technical and ATR stops,
// capped at 5% below the current price
func stopLoss(current, basis float64, ind *model.Indicators, settings model.UserSettings) model.PriceLevel {
	percentStop := basis * (1 - settings.StopLossTarget/100)
	technicalStop := percentStop
	if ind.Support > 0 {
		technicalStop = ind.Support * supportBuffer
	}
	atrStop := current - atrMultiplier*ind.ATR

	best := math.Max(percentStop, math.Max(technicalStop, atrStop))
	stop := math.Min(best, current*maxStopFraction)

	var reason string
	switch {
	case stop < best:
		reason = "Capped 5% below current price"
	case ind.Support > 0 && stop == technicalStop:
		reason = fmt.Sprintf("2%% below support %s", formatPrice(ind.Support))
	case stop == atrStop:
		reason = fmt.Sprintf("2x ATR (%s) below current price", formatPrice(ind.ATR))
	default:
		reason = fmt.Sprintf("%.0f%% below average price", settings.StopLossTarget)
	}

	return level(stop, current, reason)
}

// takeProfits anchors the three targets on the average buy price
func takeProfits(current, basis float64, ind *model.Indicators, flow *model.FlowAnalysis, settings model.UserSettings) (tp1, tp2, tp3 model.PriceLevel) {
	target := settings.TakeProfitTarget
	tp3Multiplier := 1.2
	if flow.Score >= 70 {
		tp3Multiplier = 1.5
	}

	tp1Price := basis * (1 + 0.5*target/100)
	tp1Reason := fmt.Sprintf("+%.1f%% from average price", 0.5*target)
	if ind.Resistance > current && ind.Resistance < tp1Price {
		tp1Price = ind.Resistance
		tp1Reason = fmt.Sprintf("Resistance at %s", formatPrice(ind.Resistance))
	}
	tp2Price := basis * (1 + target/100)
	tp3Price := basis * (1 + tp3Multiplier*target/100)

	tp1 = floorLevel(tp1Price, current, tpFloors[0], tp1Reason)
	tp2 = floorLevel(tp2Price, current, tpFloors[1], fmt.Sprintf("+%.1f%% from average price", target))
	tp3 = floorLevel(tp3Price, current, tpFloors[2], fmt.Sprintf("+%.1f%% from average price", tp3Multiplier*target))
	return tp1, tp2, tp3
}

// floorLevel keeps a target at least floor x current
func floorLevel(price, current, floor float64, reason string) model.PriceLevel {
	if minPrice := current * floor; price < minPrice {
		return level(minPrice, current, fmt.Sprintf("Minimum +%.0f%% above current price", (floor-1)*100))
	}
	return level(price, current, reason)
}

type zoneSpec struct {
	label    string
	price    float64
	fraction float64
	priority model.Priority
	reason   string
}

// addZones sizes up to four entry levels from the lesser of allocation
// headroom and available capital
func addZones(in *Input, current float64) []model.AddZone {
	zones := []model.AddZone{}

	sizer := position.NewSizer(in.Settings, in.AvailableCapital)
	budget := sizer.Budget(position.LotValue(in.TotalLots, current))
	if budget <= 0 {
		return zones
	}

	ind, flow := in.Indicators, in.Flow
	var specs []zoneSpec

	if (ind.Trend == model.TrendUp || flow.Score >= 60) && ind.MA20 > 0 && ind.MA20 < current {
		specs = append(specs, zoneSpec{"MA20 pullback", ind.MA20, 0.30, model.PriorityHigh,
			fmt.Sprintf("Buy the dip to MA20 (%s)", formatPrice(ind.MA20))})
	}
	if ind.Support > 0 && ind.Support < 0.95*current {
		priority := model.PriorityMedium
		if flow.Score >= 60 {
			priority = model.PriorityHigh
		}
		specs = append(specs, zoneSpec{"Support", ind.Support, 0.40, priority,
			fmt.Sprintf("Swing support at %s", formatPrice(ind.Support))})
	}
	if flow.Score >= 75 {
		specs = append(specs, zoneSpec{"Current price", current, 0.30, model.PriorityHigh,
			fmt.Sprintf("Strong accumulation (score %d)", flow.Score)})
	}
	if ind.Resistance > 0 && (flow.Pattern == model.PatternBreakout || (flow.Score >= 70 && ind.RSI < 70)) {
		price := ind.Resistance * breakoutBuffer
		specs = append(specs, zoneSpec{"Breakout", price, 0.20, model.PriorityMedium,
			fmt.Sprintf("Add on a break above resistance %s", formatPrice(ind.Resistance))})
	}

	for _, spec := range specs {
		lots := position.LotsFor(budget*spec.fraction, spec.price)
		if lots == 0 {
			continue
		}
		zones = append(zones, model.AddZone{
			Label:    spec.label,
			Price:    spec.price,
			Lots:     lots,
			Amount:   position.LotValue(lots, spec.price),
			Priority: spec.priority,
			Reason:   spec.reason,
		})
	}
	return zones
}

// sellStrategy stages the exit by health. Empty when nothing is held.
func sellStrategy(plan model.TradingPlan, lots int, current float64) []model.SellStep {
	steps := []model.SellStep{}
	if lots <= 0 {
		return steps
	}

	stop := plan.StopLoss.Price

	switch plan.PositionHealth {
	case model.HealthDanger:
		steps = append(steps, model.SellStep{
			Trigger: model.TriggerImmediate, Price: current, Lots: lots, SellAll: true,
			Description: fmt.Sprintf("Sell all %d lots at market", lots),
		})

	case model.HealthWarning:
		half := (lots + 1) / 2
		steps = append(steps, model.SellStep{
			Trigger: model.TriggerNow, Price: current, Lots: half,
			Description: fmt.Sprintf("Sell %d lots (50%%) now", half),
		})
		// the stop step is kept even when the first half already covers every lot
		rest := lots - half
		desc := fmt.Sprintf("Sell the remaining %d lots below %s", rest, formatPrice(stop))
		if rest == 0 {
			desc = fmt.Sprintf("Sell anything left below %s", formatPrice(stop))
		}
		steps = append(steps, model.SellStep{
			Trigger: model.TriggerStopLoss, Price: stop, Lots: rest, SellAll: true,
			Description: desc,
		})

	default:
		l1 := lots * 30 / 100
		l2 := lots * 40 / 100
		l3 := lots - l1 - l2
		tiers := []struct {
			trigger model.SellTrigger
			level   model.PriceLevel
			lots    int
			share   string
		}{
			{model.TriggerTP1, plan.TakeProfit1, l1, "30%"},
			{model.TriggerTP2, plan.TakeProfit2, l2, "40%"},
			{model.TriggerTP3, plan.TakeProfit3, l3, "the rest"},
		}
		for _, tier := range tiers {
			if tier.lots == 0 {
				continue
			}
			steps = append(steps, model.SellStep{
				Trigger: tier.trigger, Price: tier.level.Price, Lots: tier.lots,
				Description: fmt.Sprintf("Sell %d lots (%s) at %s", tier.lots, tier.share, formatPrice(tier.level.Price)),
			})
		}
		steps = append(steps, model.SellStep{
			Trigger: model.TriggerStopLoss, Price: stop, Lots: lots, SellAll: true,
			Description: fmt.Sprintf("Exit everything below %s", formatPrice(stop)),
		})
	}
	return steps
}

// planTexts fills the health-conditioned summary lines
func planTexts(in *Input, plan model.TradingPlan, current float64) (immediate, shortTerm, notes string) {
	lots := in.TotalLots
	stop := formatPrice(plan.StopLoss.Price)
	flow := in.Flow

	if lots == 0 {
		switch plan.PositionHealth {
		case model.HealthDanger, model.HealthWarning:
			immediate = "Avoid new entries."
			shortTerm = fmt.Sprintf("Wait for the flow score (%d) to recover above 60.", flow.Score)
		default:
			if len(plan.AddZones) > 0 {
				z := plan.AddZones[0]
				immediate = fmt.Sprintf("Consider entry: %d lots at %s (%s).", z.Lots, formatPrice(z.Price), z.Label)
			} else {
				immediate = "No entry setup within your capital limits."
			}
			shortTerm = fmt.Sprintf("If entered, stop at %s and first target %s.", stop, formatPrice(plan.TakeProfit1.Price))
		}
		notes = fmt.Sprintf("Bandar %d/100 (%s), risk/reward %.2f.", flow.Score, flow.Status, plan.RiskRewardRatio)
		return immediate, shortTerm, notes
	}

	switch plan.PositionHealth {
	case model.HealthDanger:
		immediate = fmt.Sprintf("SELL ALL %d lots at market (~%s).", lots, formatPrice(current))
		shortTerm = fmt.Sprintf("Stay out until the flow score (%d) recovers above 60.", flow.Score)
		if in.ProfitLossPct <= -in.Settings.StopLossTarget {
			notes = fmt.Sprintf("Loss %.2f%% breached the %.0f%% stop-loss target.", in.ProfitLossPct, in.Settings.StopLossTarget)
		} else {
			notes = fmt.Sprintf("Strong distribution (score %d): institutions are exiting.", flow.Score)
		}

	case model.HealthWarning:
		half := (lots + 1) / 2
		immediate = fmt.Sprintf("Sell %d of %d lots now, keep a stop at %s for the rest.", half, lots, stop)
		shortTerm = fmt.Sprintf("Exit the rest below %s; reassess if price reclaims MA20 (%s).",
			stop, formatPrice(in.Indicators.MA20))
		notes = fmt.Sprintf("Protect capital first: P/L %.2f%%, bandar %d/100 (%s).", in.ProfitLossPct, flow.Score, flow.Status)

	case model.HealthExcellent:
		immediate = fmt.Sprintf("HOLD %d lots. Trail the stop to %s.", lots, stop)
		shortTerm = fmt.Sprintf("Scale out at TP1 %s, TP2 %s, TP3 %s.",
			formatPrice(plan.TakeProfit1.Price), formatPrice(plan.TakeProfit2.Price), formatPrice(plan.TakeProfit3.Price))
		notes = fmt.Sprintf("Strong accumulation (score %d) with a %.2f%% gain. Max upside %.2f%%.", flow.Score, in.ProfitLossPct, plan.MaxUpside)

	default:
		immediate = fmt.Sprintf("HOLD %d lots. Stop-loss at %s.", lots, stop)
		shortTerm = fmt.Sprintf("First target TP1 %s (%+.2f%%).", formatPrice(plan.TakeProfit1.Price), plan.TakeProfit1.Percent)
		if len(plan.AddZones) > 0 {
			z := plan.AddZones[0]
			shortTerm += fmt.Sprintf(" Add %d lots at %s (%s).", z.Lots, formatPrice(z.Price), z.Label)
		}
		notes = fmt.Sprintf("Risk/reward %.2f, max downside %.2f%%, max upside %.2f%%.", plan.RiskRewardRatio, plan.MaxDownside, plan.MaxUpside)
	}
	return immediate, shortTerm, notes
}

// level builds a PriceLevel with its percent distance from current
func level(price, current float64, reason string) model.PriceLevel {
	return model.PriceLevel{
		Price:   price,
		Percent: round2((price - current) / current * 100),
		Reason:  reason,
	}
}

func formatPrice(p float64) string {
	return humanize.Comma(int64(math.Round(p)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
