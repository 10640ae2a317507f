package analyzer

import (
	"fmt"
	"math"

	"bandar/pkg/model"
)

// Signal names emitted by the flow engine
const (
	SignalAbsorption            = "Absorption"
	SignalSilentAccumulation    = "Silent Accumulation"
	SignalWeakRally             = "Weak Rally"
	SignalDistributionCeiling   = "Distribution Ceiling"
	SignalShakeout              = "Shakeout"
	SignalUptrendConfirmed      = "Volume-Confirmed Uptrend"
	SignalDistributionDowntrend = "Distribution Downtrend"
	SignalVolumeBreakout        = "Volume Breakout"
	SignalVolumeBreakdown       = "Volume Breakdown"
	SignalMomentumBuilding      = "Momentum Building"
	SignalSellingMomentum       = "Selling Momentum"
	SignalOverboughtDryVolume   = "Overbought Dry Volume"
	SignalVolumeAnomaly         = "Volume Anomaly"
)

const (
	neutralScore       = 50
	maxPatternRunDays  = 10
	shakeoutDays       = 2
	breakoutDays       = 1
	ceilingLookback    = 10
	ceilingTolerance   = 0.98
	highVolumeMultiple = 1.3
)

// flowContext holds the measurements shared by every check
type flowContext struct {
	s     *model.PriceSeries
	n     int
	price float64
	ma20  float64

	todayVolume float64
	avgVol20    float64
	volumeRatio float64 // 5-day avg / 20-day avg

	change1  float64
	change5  float64
	change20 float64
}

func newFlowContext(s *model.PriceSeries) *flowContext {
	n := s.Len()
	c := &flowContext{
		s:           s,
		n:           n,
		price:       s.LastClose(),
		ma20:        CalculateSMA(s.Close, 20),
		todayVolume: s.Volume[n-1],
		avgVol20:    averageTail(s.Volume, 20),
		volumeRatio: volumeRatio(s.Volume),
	}
	c.change1 = c.priceChange(1)
	c.change5 = c.priceChange(5)
	c.change20 = c.priceChange(20)
	return c
}

// priceChange returns the percent change of the last close versus days bars ago
func (c *flowContext) priceChange(days int) float64 {
	ref := c.n - 1 - days
	if ref < 0 {
		ref = 0
	}
	base := c.s.Close[ref]
	if base == 0 {
		return 0
	}
	return (c.price - base) / base * 100
}

func (c *flowContext) dayChange(i int) float64 {
	if i < 1 || c.s.Close[i-1] == 0 {
		return 0
	}
	return (c.s.Close[i] - c.s.Close[i-1]) / c.s.Close[i-1] * 100
}

// ceilingHigh is the max high of the last ceilingLookback bars
func (c *flowContext) ceilingHigh() float64 {
	return maxOf(c.s.High[c.n-min(ceilingLookback, c.n):])
}

// priorRange returns the max high and min low of the 20 bars before today
func (c *flowContext) priorRange() (high, low float64) {
	start := c.n - 21
	if start < 0 {
		start = 0
	}
	return maxOf(c.s.High[start : c.n-1]), minOf(c.s.Low[start : c.n-1])
}

// backwardRun counts consecutive bars from today that satisfy match
func (c *flowContext) backwardRun(limit int, match func(i int) bool) int {
	run := 0
	for i := c.n - 1; i >= 0 && run < limit; i-- {
		if !match(i) {
			break
		}
		run++
	}
	return run
}

// flowCheck is one heuristic of the battery. A check is skipped when the check
// named in suppressedBy has already fired.
type flowCheck struct {
	name         string
	kind         model.SignalKind
	weight       int
	suppressedBy string
	eval         func(c *flowContext) (string, bool)
}

// flowChecks is evaluated in order; weights are additive
var flowChecks = []flowCheck{
	{
		name: SignalAbsorption, kind: model.SignalBullish, weight: 15,
		eval: func(c *flowContext) (string, bool) {
			ok := c.change5 > -8 && c.change5 < -2 && c.volumeRatio > 1.5
			return fmt.Sprintf("Price %.1f%% in 5 days on %.1fx volume, supply being absorbed", c.change5, c.volumeRatio), ok
		},
	},
	{
		name: SignalSilentAccumulation, kind: model.SignalBullish, weight: 12, suppressedBy: SignalAbsorption,
		eval: func(c *flowContext) (string, bool) {
			ok := math.Abs(c.change5) < 3 && c.volumeRatio > 2.0
			return fmt.Sprintf("Flat price (%+.1f%%) while volume runs %.1fx the 20-day average", c.change5, c.volumeRatio), ok
		},
	},
	{
		name: SignalWeakRally, kind: model.SignalBearish, weight: -10,
		eval: func(c *flowContext) (string, bool) {
			ok := c.change5 > 3 && c.volumeRatio < 0.7
			return fmt.Sprintf("Price up %.1f%% on thin volume (%.1fx), rally lacks participation", c.change5, c.volumeRatio), ok
		},
	},
	{
		name: SignalDistributionCeiling, kind: model.SignalBearish, weight: -18,
		eval: func(c *flowContext) (string, bool) {
			ceiling := c.ceilingHigh()
			touches := 0
			for _, h := range c.s.High[c.n-min(ceilingLookback, c.n):] {
				if h >= ceiling*ceilingTolerance {
					touches++
				}
			}
			ok := touches >= 3 && c.volumeRatio > 1.3
			return fmt.Sprintf("%d tests of the %.0f ceiling on %.1fx volume, sellers defending highs", touches, ceiling, c.volumeRatio), ok
		},
	},
	{
		name: SignalShakeout, kind: model.SignalBullish, weight: 20,
		eval: func(c *flowContext) (string, bool) {
			for i := c.n - 3; i < c.n; i++ {
				if i < 1 {
					continue
				}
				drop := c.dayChange(i)
				if drop >= -4 {
					continue
				}
				recovery := (c.price - c.s.Close[i]) / c.s.Close[i] * 100
				if recovery > 3 && c.s.Volume[i] > 2*c.avgVol20 {
					return fmt.Sprintf("%.1f%% drop on %.1fx volume recovered %.1f%%, weak hands shaken out",
						drop, c.s.Volume[i]/c.avgVol20, recovery), true
				}
			}
			return "", false
		},
	},
	{
		name: SignalUptrendConfirmed, kind: model.SignalBullish, weight: 10,
		eval: func(c *flowContext) (string, bool) {
			ok := c.change20 > 10 && c.price > c.ma20 && c.volumeRatio > 1.2
			return fmt.Sprintf("Up %.1f%% in 20 days above MA20 with rising volume (%.1fx)", c.change20, c.volumeRatio), ok
		},
	},
	{
		name: SignalDistributionDowntrend, kind: model.SignalBearish, weight: -15,
		eval: func(c *flowContext) (string, bool) {
			ok := c.change20 < -10 && c.volumeRatio > 1.5
			return fmt.Sprintf("Down %.1f%% in 20 days on heavy volume (%.1fx)", c.change20, c.volumeRatio), ok
		},
	},
	{
		name: SignalVolumeBreakout, kind: model.SignalBullish, weight: 18,
		eval: func(c *flowContext) (string, bool) {
			high, _ := c.priorRange()
			ok := c.price > high && c.todayVolume > 2*c.avgVol20
			return fmt.Sprintf("Close above the 20-day high %.0f on %.1fx volume", high, c.todayVolume/c.avgVol20), ok
		},
	},
	{
		name: SignalVolumeBreakdown, kind: model.SignalBearish, weight: -20,
		eval: func(c *flowContext) (string, bool) {
			_, low := c.priorRange()
			ok := c.price < low && c.todayVolume > 1.5*c.avgVol20
			return fmt.Sprintf("Close below the 20-day low %.0f on %.1fx volume", low, c.todayVolume/c.avgVol20), ok
		},
	},
	{
		name: SignalMomentumBuilding, kind: model.SignalBullish, weight: 8,
		eval: func(c *flowContext) (string, bool) {
			green := c.backwardRun(c.n, func(i int) bool { return c.s.Close[i] > c.s.Open[i] })
			heavy := c.highVolumeRun()
			return fmt.Sprintf("%d green days in a row, %d recent days on heavy volume", green, heavy), green >= 3 && heavy >= 2
		},
	},
	{
		name: SignalSellingMomentum, kind: model.SignalBearish, weight: -12,
		eval: func(c *flowContext) (string, bool) {
			red := c.backwardRun(c.n, func(i int) bool { return c.s.Close[i] < c.s.Open[i] })
			heavy := c.highVolumeRun()
			return fmt.Sprintf("%d red days in a row, %d recent days on heavy volume", red, heavy), red >= 3 && heavy >= 2
		},
	},
	{
		name: SignalOverboughtDryVolume, kind: model.SignalWarning, weight: -8,
		eval: func(c *flowContext) (string, bool) {
			pos := c.rangePosition()
			ok := pos > 90 && c.volumeRatio < 1.0
			return fmt.Sprintf("Price at %.0f%% of the 20-day range with drying volume (%.1fx)", pos, c.volumeRatio), ok
		},
	},
	{
		name: SignalVolumeAnomaly, kind: model.SignalWarning, weight: 0,
		eval: func(c *flowContext) (string, bool) {
			ok := c.todayVolume > 3*c.avgVol20 && math.Abs(c.change1) < 1
			return fmt.Sprintf("Volume %.1fx average with price nearly unchanged (%+.1f%%)", c.todayVolume/c.avgVol20, c.change1), ok
		},
	},
}

// highVolumeRun counts consecutive recent days above 1.3x average volume.
// Scanned independently from the green/red runs.
func (c *flowContext) highVolumeRun() int {
	return c.backwardRun(c.n, func(i int) bool { return c.s.Volume[i] > highVolumeMultiple*c.avgVol20 })
}

// rangePosition places the price inside the 20-bar high/low range (0-100)
func (c *flowContext) rangePosition() float64 {
	start := c.n - 20
	if start < 0 {
		start = 0
	}
	high, low := maxOf(c.s.High[start:]), minOf(c.s.Low[start:])
	if high <= low {
		return 50
	}
	return (c.price - low) / (high - low) * 100
}

// FlowAnalyzer scores institutional (bandar) activity from price-volume behaviour
type FlowAnalyzer struct{}

// NewFlowAnalyzer creates a new flow analyzer
func NewFlowAnalyzer() *FlowAnalyzer {
	return &FlowAnalyzer{}
}

// NeutralFlow is the result for series too short to score
func NeutralFlow() *model.FlowAnalysis {
	return &model.FlowAnalysis{
		Score:        neutralScore,
		Status:       model.StatusNeutral,
		Signals:      []model.FlowSignal{},
		Confidence:   model.ConfidenceLow,
		Pattern:      model.PatternNone,
		WarningLevel: model.WarningSafe,
	}
}

// Analyze runs the check battery against the series
func (f *FlowAnalyzer) Analyze(s *model.PriceSeries) *model.FlowAnalysis {
	if s.Len() < MinBars {
		return NeutralFlow()
	}

	c := newFlowContext(s)
	score := neutralScore
	signals := make([]model.FlowSignal, 0, 4)
	fired := make(map[string]bool)

	for _, check := range flowChecks {
		if check.suppressedBy != "" && fired[check.suppressedBy] {
			continue
		}
		desc, ok := check.eval(c)
		if !ok {
			continue
		}
		fired[check.name] = true
		score += check.weight
		signals = append(signals, model.FlowSignal{
			Kind:        check.kind,
			Name:        check.name,
			Description: desc,
			Weight:      check.weight,
		})
	}

	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	result := &model.FlowAnalysis{
		Score:      score,
		Status:     statusForScore(score),
		Signals:    signals,
		Confidence: confidenceFor(signals),
	}
	result.Pattern = selectPattern(fired)
	result.DaysSincePatternStart = c.patternAge(result.Pattern)
	result.WarningLevel = warningLevelFor(result.Status, signals)

	return result
}

// statusForScore buckets a clamped score
func statusForScore(score int) model.FlowStatus {
	switch {
	case score >= 75:
		return model.StatusStrongAccumulation
	case score >= 60:
		return model.StatusAccumulation
	case score >= 40:
		return model.StatusNeutral
	case score >= 25:
		return model.StatusDistribution
	default:
		return model.StatusStrongDistribution
	}
}

func confidenceFor(signals []model.FlowSignal) model.Confidence {
	bullish, bearish := 0, 0
	for _, s := range signals {
		switch s.Kind {
		case model.SignalBullish:
			bullish++
		case model.SignalBearish:
			bearish++
		}
	}

	diff := bullish - bearish
	if diff < 0 {
		diff = -diff
	}

	switch {
	case len(signals) >= 3 && diff >= 2:
		return model.ConfidenceHigh
	case len(signals) >= 2:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func warningLevelFor(status model.FlowStatus, signals []model.FlowSignal) model.WarningLevel {
	if status == model.StatusStrongDistribution {
		return model.WarningDanger
	}
	if status == model.StatusDistribution {
		return model.WarningCaution
	}
	for _, s := range signals {
		if s.Kind == model.SignalWarning {
			return model.WarningCaution
		}
	}
	return model.WarningSafe
}

// patternPriority: first fired signal wins
var patternPriority = []struct {
	pattern model.FlowPattern
	signals []string
}{
	{model.PatternAbsorption, []string{SignalAbsorption, SignalSilentAccumulation}},
	{model.PatternDistributionCeiling, []string{SignalDistributionCeiling}},
	{model.PatternShakeout, []string{SignalShakeout}},
	{model.PatternBreakout, []string{SignalVolumeBreakout}},
	{model.PatternMarkup, []string{SignalUptrendConfirmed}},
}

func selectPattern(fired map[string]bool) model.FlowPattern {
	for _, p := range patternPriority {
		for _, name := range p.signals {
			if fired[name] {
				return p.pattern
			}
		}
	}
	return model.PatternNone
}

// patternAge counts how many recent days match the pattern's per-day signature
func (c *flowContext) patternAge(p model.FlowPattern) int {
	switch p {
	case model.PatternShakeout:
		return shakeoutDays
	case model.PatternBreakout:
		return breakoutDays
	case model.PatternAbsorption:
		return c.backwardRun(maxPatternRunDays, func(i int) bool {
			return c.s.Volume[i] > c.avgVol20 && c.dayChange(i) < 1
		})
	case model.PatternDistributionCeiling:
		ceiling := c.ceilingHigh()
		return c.backwardRun(maxPatternRunDays, func(i int) bool {
			return c.s.Volume[i] > c.avgVol20 && c.s.High[i] >= ceiling*ceilingTolerance
		})
	case model.PatternMarkup:
		return c.backwardRun(maxPatternRunDays, func(i int) bool {
			return i > 0 && c.s.Close[i] > c.s.Close[i-1] && c.s.Volume[i] > c.avgVol20
		})
	}
	return 0
}
