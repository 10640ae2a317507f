package analyzer

import (
	"math"

	"bandar/pkg/model"
)

const (
	// RSIPeriod is the Wilder RSI lookback
	RSIPeriod = 14
	// ATRPeriod is the number of true ranges averaged for ATR
	ATRPeriod = 14
	// MinBars is the minimum series length for meaningful analysis
	MinBars = 20

	srLookback  = 60
	swingWindow = 2
)

// TechnicalAnalyzer computes the indicator snapshot of a daily series
type TechnicalAnalyzer struct{}

// NewTechnicalAnalyzer creates a new technical analyzer
func NewTechnicalAnalyzer() *TechnicalAnalyzer {
	return &TechnicalAnalyzer{}
}

// Analyze computes all indicators for the series. Returns nil for an empty series.
func (t *TechnicalAnalyzer) Analyze(s *model.PriceSeries) *model.Indicators {
	n := s.Len()
	if n == 0 {
		return nil
	}

	price := s.LastClose()
	ind := &model.Indicators{
		CurrentPrice: price,
		RSI:          CalculateRSI(s.Close, RSIPeriod),
		MA5:          CalculateSMA(s.Close, 5),
		MA20:         CalculateSMA(s.Close, 20),
		MA60:         CalculateSMA(s.Close, 60),
		ATR:          CalculateATR(s.High, s.Low, s.Close, ATRPeriod),
	}

	ind.Trend = ClassifyTrend(price, ind.MA20, ind.MA60)
	ind.Support, ind.Resistance = FindSupportResistance(s)
	ind.PricePosition = pricePosition(price, ind.Support, ind.Resistance)

	ratio := volumeRatio(s.Volume)
	ind.VolumeChangePercent = round2((ratio - 1) * 100)
	ind.VolumeFlow = classifyVolumeFlow(ind.Trend, s.Open[n-1], price, ratio)

	return ind
}

// CalculateSMA returns the mean of the last period closes.
// With fewer than period points it falls back to the last close.
func CalculateSMA(closes []float64, period int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if period <= 0 || len(closes) < period {
		return closes[len(closes)-1]
	}

	var sum float64
	for i := len(closes) - period; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(period)
}

// CalculateRSI computes the Wilder-smoothed RSI over the whole series.
// Returns 50 (neutral) when there are fewer than period+1 points.
func CalculateRSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	// Seed with the simple average of the first period deltas
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// CalculateATR returns the simple mean of the last period true ranges
func CalculateATR(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if n == 0 || period <= 0 {
		return 0
	}
	if n == 1 {
		return highs[0] - lows[0]
	}

	start := n - period
	if start < 1 {
		start = 1
	}

	var sum float64
	for i := start; i < n; i++ {
		sum += trueRange(highs[i], lows[i], closes[i-1])
	}
	return sum / float64(n-start)
}

// trueRange = max(H-L, |H-prevC|, |L-prevC|)
func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

// ClassifyTrend determines trend from price, MA20 and MA60
func ClassifyTrend(price, ma20, ma60 float64) model.Trend {
	if price > ma20 && ma20 > ma60 {
		return model.TrendUp
	}
	if price < ma20 && ma20 < ma60 {
		return model.TrendDown
	}
	return model.TrendSideways
}

// FindSupportResistance finds the nearest swing low below and swing high above the
// last close within the last 60 bars. Falls back to the window extremes when no swing
// qualifies, and to the global extremes for series shorter than MinBars.
func FindSupportResistance(s *model.PriceSeries) (support, resistance float64) {
	n := s.Len()
	if n == 0 {
		return 0, 0
	}
	if n < MinBars {
		return minOf(s.Low), maxOf(s.High)
	}

	price := s.LastClose()
	w := s.Tail(srLookback)

	foundSupport, foundResistance := false, false
	for i := swingWindow; i < w.Len()-swingWindow; i++ {
		if isSwingHigh(w.High, i) && w.High[i] > price {
			if !foundResistance || w.High[i] < resistance {
				resistance = w.High[i]
				foundResistance = true
			}
		}
		if isSwingLow(w.Low, i) && w.Low[i] < price {
			if !foundSupport || w.Low[i] > support {
				support = w.Low[i]
				foundSupport = true
			}
		}
	}

	if !foundResistance {
		resistance = maxOf(w.High)
	}
	if !foundSupport {
		support = minOf(w.Low)
	}
	return support, resistance
}

func isSwingHigh(highs []float64, i int) bool {
	for k := 1; k <= swingWindow; k++ {
		if highs[i] <= highs[i-k] || highs[i] <= highs[i+k] {
			return false
		}
	}
	return true
}

func isSwingLow(lows []float64, i int) bool {
	for k := 1; k <= swingWindow; k++ {
		if lows[i] >= lows[i-k] || lows[i] >= lows[i+k] {
			return false
		}
	}
	return true
}

// classifyVolumeFlow is the coarse accumulation/distribution read of the snapshot.
// It is independent of the flow scoring engine and the two may disagree.
func classifyVolumeFlow(trend model.Trend, open, close, ratio float64) model.VolumeFlow {
	green := close > open
	red := close < open

	switch {
	case trend == model.TrendUp && ratio > 1.1:
		return model.FlowAccumulation
	case trend == model.TrendSideways && green && ratio > 1.3:
		return model.FlowAccumulation
	case trend == model.TrendDown && red && ratio > 1.1:
		return model.FlowDistribution
	}
	return model.FlowNeutral
}

// pricePosition places price between support (0) and resistance (100)
func pricePosition(price, support, resistance float64) float64 {
	if resistance <= support {
		return 50
	}
	pos := (price - support) / (resistance - support) * 100
	return round2(math.Max(0, math.Min(100, pos)))
}

// volumeRatio is the 5-day average volume over the 20-day average volume
func volumeRatio(volumes []float64) float64 {
	avg20 := averageTail(volumes, 20)
	if avg20 == 0 {
		return 1
	}
	return averageTail(volumes, 5) / avg20
}

// averageTail averages the last n values (all values if fewer)
func averageTail(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	if n > len(values) {
		n = len(values)
	}
	var sum float64
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		if v < m {
			m = v
		}
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
