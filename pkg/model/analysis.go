package model

// Trend classifies price against MA20 and MA60
type Trend string

const (
	TrendUp       Trend = "UP"
	TrendDown     Trend = "DOWN"
	TrendSideways Trend = "SIDEWAYS"
)

// VolumeFlow is the coarse volume classification of the indicator snapshot
type VolumeFlow string

const (
	FlowAccumulation VolumeFlow = "ACCUMULATION"
	FlowDistribution VolumeFlow = "DISTRIBUTION"
	FlowNeutral      VolumeFlow = "NEUTRAL"
)

// Indicators is a technical snapshot of a price series
type Indicators struct {
	CurrentPrice        float64    `json:"current_price"`
	RSI                 float64    `json:"rsi"`
	MA5                 float64    `json:"ma5"`
	MA20                float64    `json:"ma20"`
	MA60                float64    `json:"ma60"`
	ATR                 float64    `json:"atr"`
	VolumeChangePercent float64    `json:"volume_change_percent"`
	Trend               Trend      `json:"trend"`
	VolumeFlow          VolumeFlow `json:"volume_flow"`
	Support             float64    `json:"support"`
	Resistance          float64    `json:"resistance"`
	PricePosition       float64    `json:"price_position"` // 0-100 between support and resistance
}

// SignalKind is the direction of a flow signal
type SignalKind string

const (
	SignalBullish SignalKind = "BULLISH"
	SignalBearish SignalKind = "BEARISH"
	SignalWarning SignalKind = "WARNING"
)

// FlowSignal is a single heuristic that fired during flow scoring
type FlowSignal struct {
	Kind        SignalKind `json:"kind"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Weight      int        `json:"weight"`
}

// FlowStatus buckets the flow score
type FlowStatus string

const (
	StatusStrongAccumulation FlowStatus = "STRONG_ACCUMULATION"
	StatusAccumulation       FlowStatus = "ACCUMULATION"
	StatusNeutral            FlowStatus = "NEUTRAL"
	StatusDistribution       FlowStatus = "DISTRIBUTION"
	StatusStrongDistribution FlowStatus = "STRONG_DISTRIBUTION"
)

// Confidence of a flow analysis
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// FlowPattern is the dominant price-volume signature. PatternNone means no pattern.
type FlowPattern string

const (
	PatternNone                FlowPattern = ""
	PatternAbsorption          FlowPattern = "ABSORPTION"
	PatternMarkup              FlowPattern = "MARKUP"
	PatternDistributionCeiling FlowPattern = "DISTRIBUTION_CEILING"
	PatternShakeout            FlowPattern = "SHAKEOUT"
	PatternBreakout            FlowPattern = "BREAKOUT"
)

// WarningLevel summarizes how risky the current flow is
type WarningLevel string

const (
	WarningSafe    WarningLevel = "SAFE"
	WarningCaution WarningLevel = "CAUTION"
	WarningDanger  WarningLevel = "DANGER"
)

// FlowAnalysis is the result of the bandarmology scoring engine
type FlowAnalysis struct {
	Score                 int          `json:"score"`
	Status                FlowStatus   `json:"status"`
	Signals               []FlowSignal `json:"signals"`
	Confidence            Confidence   `json:"confidence"`
	Pattern               FlowPattern  `json:"pattern,omitempty"`
	DaysSincePatternStart int          `json:"days_since_pattern_start"`
	WarningLevel          WarningLevel `json:"warning_level"`
}

// HasSignal reports whether a signal with the given name fired
func (f *FlowAnalysis) HasSignal(name string) bool {
	return f.Signal(name) != nil
}

// Signal returns the fired signal with the given name, or nil
func (f *FlowAnalysis) Signal(name string) *FlowSignal {
	if f == nil {
		return nil
	}
	for i := range f.Signals {
		if f.Signals[i].Name == name {
			return &f.Signals[i]
		}
	}
	return nil
}
