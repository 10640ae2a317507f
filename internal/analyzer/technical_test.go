package analyzer

import (
	"math"
	"math/rand"
	"testing"

	"bandar/pkg/model"
)

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		period   int
		expected float64
	}{
		{"exact window", []float64{1, 2, 3, 4, 5}, 5, 3},
		{"last n only", []float64{100, 1, 2, 3}, 3, 2},
		{"short falls back to last close", []float64{10, 20}, 5, 20},
		{"empty", nil, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateSMA(tt.closes, tt.period)
			if got != tt.expected {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestCalculateRSI(t *testing.T) {
	rising := make([]float64, 30)
	flat := make([]float64, 30)
	falling := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
		flat[i] = 100
		falling[i] = 200 - float64(i)
	}

	tests := []struct {
		name     string
		closes   []float64
		expected float64
	}{
		{"insufficient data is neutral", rising[:14], 50},
		{"only gains", rising, 100},
		{"no movement has zero loss", flat, 100},
		{"only losses", falling, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateRSI(tt.closes, RSIPeriod)
			if got != tt.expected {
				t.Errorf("Expected RSI %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestCalculateRSI_WilderRecurrence(t *testing.T) {
	// 14 alternating deltas of +2/-1 seed avgGain=1, avgLoss=0.5
	closes := []float64{100}
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			closes = append(closes, closes[len(closes)-1]+2)
		} else {
			closes = append(closes, closes[len(closes)-1]-1)
		}
	}
	// one more loss of 3: avgGain = 13/14, avgLoss = (0.5*13+3)/14
	closes = append(closes, closes[len(closes)-1]-3)

	avgGain := 13.0 / 14.0
	avgLoss := (0.5*13 + 3) / 14.0
	expected := 100 - 100/(1+avgGain/avgLoss)

	got := CalculateRSI(closes, RSIPeriod)
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("Expected RSI %f, got %f", expected, got)
	}
}

func TestCalculateRSI_Bounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		s := randomSeries(r, 20+r.Intn(100))
		rsi := CalculateRSI(s.Close, RSIPeriod)
		if rsi < 0 || rsi > 100 {
			t.Fatalf("RSI out of range: %f", rsi)
		}
	}
}

func TestCalculateATR(t *testing.T) {
	bars := flatBars(30, 100, 1000)
	s := seriesFromBars(bars)

	// every true range is high-low = 2
	atr := CalculateATR(s.High, s.Low, s.Close, ATRPeriod)
	if math.Abs(atr-2) > 1e-9 {
		t.Errorf("Expected ATR 2, got %f", atr)
	}

	// a gap counts against the previous close, and only the last 14 ranges are averaged
	bars[29] = bar{open: 110, high: 111, low: 109, close: 110, volume: 1000}
	s = seriesFromBars(bars)
	expected := (13*2.0 + 11) / 14
	atr = CalculateATR(s.High, s.Low, s.Close, ATRPeriod)
	if math.Abs(atr-expected) > 1e-9 {
		t.Errorf("Expected ATR %f, got %f", expected, atr)
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		price, ma20, ma60 float64
		expected          model.Trend
	}{
		{110, 105, 100, model.TrendUp},
		{90, 95, 100, model.TrendDown},
		{110, 95, 100, model.TrendSideways},
		{100, 100, 100, model.TrendSideways},
	}

	for _, tt := range tests {
		got := ClassifyTrend(tt.price, tt.ma20, tt.ma60)
		if got != tt.expected {
			t.Errorf("ClassifyTrend(%v, %v, %v): expected %s, got %s", tt.price, tt.ma20, tt.ma60, tt.expected, got)
		}
	}
}

func TestFindSupportResistance_Swings(t *testing.T) {
	bars := flatBars(30, 100, 1000)
	bars[10].high = 110 // swing high, further away
	bars[20].high = 105 // nearest swing high above
	bars[15].low = 90   // swing low, further away
	bars[25].low = 95   // nearest swing low below

	support, resistance := FindSupportResistance(seriesFromBars(bars))
	if resistance != 105 {
		t.Errorf("Expected resistance 105, got %f", resistance)
	}
	if support != 95 {
		t.Errorf("Expected support 95, got %f", support)
	}
}

func TestFindSupportResistance_EqualNeighboursAreNotSwings(t *testing.T) {
	bars := flatBars(30, 100, 1000)
	bars[10].high = 110
	bars[11].high = 110

	_, resistance := FindSupportResistance(seriesFromBars(bars))
	// no strict swing, so the window max is used
	if resistance != 110 {
		t.Errorf("Expected fallback resistance 110, got %f", resistance)
	}
}

func TestFindSupportResistance_Fallbacks(t *testing.T) {
	// monotonic rise: no swing high above the last close
	bars := make([]bar, 80)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = bar{open: c, high: c + 0.5, low: c - 0.5, close: c, volume: 1000}
	}
	s := seriesFromBars(bars)

	support, resistance := FindSupportResistance(s)
	if resistance != 179.5 {
		t.Errorf("Expected window max 179.5, got %f", resistance)
	}
	// window is the last 60 bars: lows start at 120 - 0.5
	if support != 119.5 {
		t.Errorf("Expected window min 119.5, got %f", support)
	}

	short := seriesFromBars(bars[:10])
	support, resistance = FindSupportResistance(short)
	if support != 99.5 || resistance != 109.5 {
		t.Errorf("Expected global extremes 99.5/109.5, got %f/%f", support, resistance)
	}
}

func TestClassifyVolumeFlow(t *testing.T) {
	tests := []struct {
		name        string
		trend       model.Trend
		open, close float64
		ratio       float64
		expected    model.VolumeFlow
	}{
		{"uptrend with volume", model.TrendUp, 100, 99, 1.2, model.FlowAccumulation},
		{"uptrend thin volume", model.TrendUp, 100, 101, 1.05, model.FlowNeutral},
		{"sideways green heavy", model.TrendSideways, 100, 101, 1.4, model.FlowAccumulation},
		{"sideways green moderate", model.TrendSideways, 100, 101, 1.2, model.FlowNeutral},
		{"sideways red heavy", model.TrendSideways, 101, 100, 1.4, model.FlowNeutral},
		{"downtrend red heavy", model.TrendDown, 101, 100, 1.2, model.FlowDistribution},
		{"downtrend green heavy", model.TrendDown, 100, 101, 1.2, model.FlowNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyVolumeFlow(tt.trend, tt.open, tt.close, tt.ratio)
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestTechnicalAnalyzer_Analyze(t *testing.T) {
	ta := NewTechnicalAnalyzer()

	if ta.Analyze(seriesFromBars(nil)) != nil {
		t.Error("Expected nil indicators for an empty series")
	}

	ind := ta.Analyze(silentAccumulationSeries())
	if ind == nil {
		t.Fatal("Expected indicators, got nil")
	}

	if math.Abs(ind.CurrentPrice-1020.8) > 1e-9 {
		t.Errorf("Expected current price 1020.8, got %f", ind.CurrentPrice)
	}
	if ind.Trend != model.TrendUp {
		t.Errorf("Expected UP trend, got %s", ind.Trend)
	}
	if ind.VolumeFlow != model.FlowAccumulation {
		t.Errorf("Expected ACCUMULATION volume flow, got %s", ind.VolumeFlow)
	}
	// 3.5M / 1.625M
	if math.Abs(ind.VolumeChangePercent-115.38) > 0.01 {
		t.Errorf("Expected volume change 115.38%%, got %f", ind.VolumeChangePercent)
	}
	if ind.PricePosition < 0 || ind.PricePosition > 100 {
		t.Errorf("Price position out of range: %f", ind.PricePosition)
	}
	if ind.Support >= ind.CurrentPrice {
		t.Errorf("Expected support below price, got %f", ind.Support)
	}
	if ind.Resistance <= ind.CurrentPrice {
		t.Errorf("Expected resistance above price, got %f", ind.Resistance)
	}
}

func TestPricePosition(t *testing.T) {
	tests := []struct {
		price, support, resistance, expected float64
	}{
		{150, 100, 200, 50},
		{90, 100, 200, 0},
		{250, 100, 200, 100},
		{150, 200, 200, 50},
	}
	for _, tt := range tests {
		got := pricePosition(tt.price, tt.support, tt.resistance)
		if got != tt.expected {
			t.Errorf("pricePosition(%v, %v, %v): expected %v, got %v", tt.price, tt.support, tt.resistance, tt.expected, got)
		}
	}
}
