package analyzer

import (
	"math/rand"
	"time"

	"bandar/pkg/model"
)

type bar struct {
	open, high, low, close, volume float64
}

func seriesFromBars(bars []bar) *model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, len(bars))
	for i, b := range bars {
		candles[i] = model.Candle{
			Time:   start.AddDate(0, 0, i),
			Open:   b.open,
			High:   b.high,
			Low:    b.low,
			Close:  b.close,
			Volume: int64(b.volume),
		}
	}
	return model.NewPriceSeries("TEST", candles)
}

// flatBars returns n bars closing at price with a +-1% range
func flatBars(n int, price, volume float64) []bar {
	bars := make([]bar, n)
	for i := range bars {
		bars[i] = bar{open: price, high: price * 1.01, low: price * 0.99, close: price, volume: volume}
	}
	return bars
}

// withCloses rewrites the last len(closes) bars as a walk from the preceding close
func withCloses(bars []bar, volume float64, closes ...float64) []bar {
	start := len(bars) - len(closes)
	for i, c := range closes {
		prev := bars[start+i-1].close
		bars[start+i] = bar{
			open:   prev,
			high:   max(prev, c) * 1.005,
			low:    min(prev, c) * 0.995,
			close:  c,
			volume: volume,
		}
	}
	return bars
}

// withVolumes sets the volume of the last len(volumes) bars
func withVolumes(bars []bar, volumes ...float64) []bar {
	start := len(bars) - len(volumes)
	for i, v := range volumes {
		bars[start+i].volume = v
	}
	return bars
}

// linearCloses returns n closes stepping by step from base (exclusive)
func linearCloses(base, step float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = base + step*float64(i+1)
	}
	return closes
}

// silentAccumulationSeries: 60 slowly rising closes around 1000, volume 3.5x over the last 5 days,
// +1% over those days
func silentAccumulationSeries() *model.PriceSeries {
	bars := make([]bar, 60)
	prev := 1000.0
	for i := range bars {
		c := 1000 + 0.2*float64(i)
		v := 1_000_000.0
		if i >= 55 {
			c = 1000 + 0.2*54 + 2*float64(i-54)
			v = 3_500_000
		}
		h := c * 1.005
		if i == 59 {
			h = c * 1.04
		}
		bars[i] = bar{open: prev, high: h, low: c * 0.995, close: c, volume: v}
		prev = c
	}
	return seriesFromBars(bars)
}

// randomSeries is a random walk used for property checks
func randomSeries(r *rand.Rand, n int) *model.PriceSeries {
	bars := make([]bar, n)
	price := 500 + r.Float64()*5000
	for i := range bars {
		open := price
		price *= 1 + (r.Float64()-0.5)*0.12
		if price < 50 {
			price = 50
		}
		high := max(open, price) * (1 + r.Float64()*0.03)
		low := min(open, price) * (1 - r.Float64()*0.03)
		bars[i] = bar{open: open, high: high, low: low, close: price, volume: float64(r.Intn(10_000_000) + 1)}
	}
	return seriesFromBars(bars)
}
