package model

import (
	"math"
	"sort"
	"time"
)

// SharesPerLot is the IDX trading unit
const SharesPerLot = 100

// Candle represents a single candlestick (OHLCV data)
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Stock represents basic stock information
type Stock struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"` // IDX
}

// PriceSeries holds daily bars as parallel arrays, oldest first.
// A series is never modified after NewPriceSeries returns it.
type PriceSeries struct {
	Symbol string      `json:"symbol"`
	Time   []time.Time `json:"time"`
	Open   []float64   `json:"open"`
	High   []float64   `json:"high"`
	Low    []float64   `json:"low"`
	Close  []float64   `json:"close"`
	Volume []float64   `json:"volume"`
}

// NewPriceSeries builds a cleaned series from candles.
// Bars with a non-positive or NaN price are dropped and the rest are sorted oldest first.
func NewPriceSeries(symbol string, candles []Candle) *PriceSeries {
	clean := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if !validPrice(c.Open) || !validPrice(c.High) || !validPrice(c.Low) || !validPrice(c.Close) {
			continue
		}
		if c.Volume < 0 {
			continue
		}
		clean = append(clean, c)
	}

	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Time.Before(clean[j].Time)
	})

	s := &PriceSeries{
		Symbol: symbol,
		Time:   make([]time.Time, len(clean)),
		Open:   make([]float64, len(clean)),
		High:   make([]float64, len(clean)),
		Low:    make([]float64, len(clean)),
		Close:  make([]float64, len(clean)),
		Volume: make([]float64, len(clean)),
	}
	for i, c := range clean {
		s.Time[i] = c.Time
		s.Open[i] = c.Open
		s.High[i] = c.High
		s.Low[i] = c.Low
		s.Close[i] = c.Close
		s.Volume[i] = float64(c.Volume)
	}
	return s
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Len returns the number of bars
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Close)
}

// LastClose returns the most recent close, or 0 for an empty series
func (s *PriceSeries) LastClose() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Close[len(s.Close)-1]
}

// Tail returns a view of the last n bars (the whole series if n >= Len)
func (s *PriceSeries) Tail(n int) *PriceSeries {
	if n >= s.Len() {
		return s
	}
	start := s.Len() - n
	return &PriceSeries{
		Symbol: s.Symbol,
		Time:   s.Time[start:],
		Open:   s.Open[start:],
		High:   s.High[start:],
		Low:    s.Low[start:],
		Close:  s.Close[start:],
		Volume: s.Volume[start:],
	}
}
