package position

import (
	"math"

	"bandar/pkg/model"
)

// Sizer converts capital constraints into whole-lot order sizes
type Sizer struct {
	TotalCapital     float64 // total account value
	MaxAllocationPct float64 // max share of TotalCapital in one symbol (e.g. 20 = 20%)
	AvailableCapital float64 // portfolio-wide uninvested capital
}

// NewSizer creates a sizer from user settings and the portfolio's available capital
func NewSizer(settings model.UserSettings, availableCapital float64) *Sizer {
	return &Sizer{
		TotalCapital:     settings.TotalCapital,
		MaxAllocationPct: settings.MaxAllocationPerStock,
		AvailableCapital: availableCapital,
	}
}

// Headroom is the allocation left for a symbol already worth positionValue
func (s *Sizer) Headroom(positionValue float64) float64 {
	return s.TotalCapital*s.MaxAllocationPct/100 - positionValue
}

// Budget is the lesser of allocation headroom and available capital.
// Returns 0 unless both are positive.
func (s *Sizer) Budget(positionValue float64) float64 {
	headroom := s.Headroom(positionValue)
	if headroom <= 0 || s.AvailableCapital <= 0 {
		return 0
	}
	return math.Min(headroom, s.AvailableCapital)
}

// LotsFor returns how many whole lots amount buys at price
func LotsFor(amount, price float64) int {
	if amount <= 0 || price <= 0 {
		return 0
	}
	return int(math.Floor(amount / (price * model.SharesPerLot)))
}

// LotValue is the cost of lots at price
func LotValue(lots int, price float64) float64 {
	return float64(lots*model.SharesPerLot) * price
}
