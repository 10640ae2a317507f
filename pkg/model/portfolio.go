package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is BUY or SELL. An empty type is read as BUY.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Transaction is a single recorded trade
type Transaction struct {
	ID        string          `json:"id,omitempty"`
	Symbol    string          `json:"symbol"`
	Type      TransactionType `json:"type,omitempty"`
	Lots      int             `json:"lots"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// EffectiveType returns the transaction type, defaulting legacy entries to BUY
func (t Transaction) EffectiveType() TransactionType {
	if t.Type == TransactionSell {
		return TransactionSell
	}
	return TransactionBuy
}

// Position is the net holding derived from the transaction log
type Position struct {
	Symbol    string          `json:"symbol"`
	TotalLots int             `json:"total_lots"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

// Shares returns the number of shares held
func (p Position) Shares() int {
	return p.TotalLots * SharesPerLot
}

// RiskTolerance of the user
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "CONSERVATIVE"
	RiskModerate     RiskTolerance = "MODERATE"
	RiskAggressive   RiskTolerance = "AGGRESSIVE"
)

// UserSettings are the user's capital and risk preferences
type UserSettings struct {
	TotalCapital          float64       `json:"total_capital" yaml:"total_capital"`
	MaxAllocationPerStock float64       `json:"max_allocation_per_stock" yaml:"max_allocation_per_stock"` // percent
	RiskTolerance         RiskTolerance `json:"risk_tolerance" yaml:"risk_tolerance"`
	TakeProfitTarget      float64       `json:"take_profit_target" yaml:"take_profit_target"` // percent
	StopLossTarget        float64       `json:"stop_loss_target" yaml:"stop_loss_target"`     // percent
}

// Action recommended for a position
type Action string

const (
	ActionStrongBuy  Action = "STRONG_BUY"
	ActionBuy        Action = "BUY"
	ActionHold       Action = "HOLD"
	ActionReduce     Action = "REDUCE"
	ActionSell       Action = "SELL"
	ActionTakeProfit Action = "TAKE_PROFIT"
)

// Urgency of a suggestion
type Urgency string

const (
	UrgencyImmediate Urgency = "IMMEDIATE"
	UrgencySoon      Urgency = "SOON"
	UrgencyWatch     Urgency = "WATCH"
	UrgencyNone      Urgency = "NONE"
)

// Suggestion is a single discrete recommendation
type Suggestion struct {
	Action          Action   `json:"action"`
	Urgency         Urgency  `json:"urgency"`
	Reason          string   `json:"reason"`
	AnalysisSummary string   `json:"analysis_summary"`
	WarningFlags    []string `json:"warning_flags"`
	IsNearExit      bool     `json:"is_near_exit"`
}

// PositionHealth is a coarse classification of a position
type PositionHealth string

const (
	HealthExcellent PositionHealth = "EXCELLENT"
	HealthGood      PositionHealth = "GOOD"
	HealthWarning   PositionHealth = "WARNING"
	HealthDanger    PositionHealth = "DANGER"
)

// PriceLevel is a price target with its distance from the current price
type PriceLevel struct {
	Price   float64 `json:"price"`
	Percent float64 `json:"percent"` // vs current price
	Reason  string  `json:"reason"`
}

// Priority of an add zone
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// AddZone is a suggested entry level and size
type AddZone struct {
	Label    string   `json:"label"`
	Price    float64  `json:"price"`
	Lots     int      `json:"lots"`
	Amount   float64  `json:"amount"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
}

// SellTrigger tells when a sell step executes
type SellTrigger string

const (
	TriggerImmediate SellTrigger = "IMMEDIATE"
	TriggerNow       SellTrigger = "NOW"
	TriggerTP1       SellTrigger = "TP1"
	TriggerTP2       SellTrigger = "TP2"
	TriggerTP3       SellTrigger = "TP3"
	TriggerStopLoss  SellTrigger = "STOP_LOSS"
)

// SellStep is one stage of a staged exit
type SellStep struct {
	Trigger     SellTrigger `json:"trigger"`
	Price       float64     `json:"price"`
	Lots        int         `json:"lots"`
	SellAll     bool        `json:"sell_all"`
	Description string      `json:"description"`
}

// TradingPlan holds exit and entry levels for a position
type TradingPlan struct {
	PositionHealth  PositionHealth `json:"position_health"`
	StopLoss        PriceLevel     `json:"stop_loss"`
	TakeProfit1     PriceLevel     `json:"take_profit_1"`
	TakeProfit2     PriceLevel     `json:"take_profit_2"`
	TakeProfit3     PriceLevel     `json:"take_profit_3"`
	AddZones        []AddZone      `json:"add_zones"`
	SellStrategy    []SellStep     `json:"sell_strategy"`
	RiskRewardRatio float64        `json:"risk_reward_ratio"`
	MaxDownside     float64        `json:"max_downside"` // percent
	MaxUpside       float64        `json:"max_upside"`   // percent
	ImmediateAction string         `json:"immediate_action"`
	ShortTermPlan   string         `json:"short_term_plan"`
	Notes           string         `json:"notes"`
}

// PortfolioItem combines a position with its full analysis
type PortfolioItem struct {
	Symbol        string        `json:"symbol"`
	Position      Position      `json:"position"`
	CurrentPrice  float64       `json:"current_price"`
	MarketValue   float64       `json:"market_value"`
	ProfitLoss    float64       `json:"profit_loss"`
	ProfitLossPct float64       `json:"profit_loss_pct"`
	Indicators    *Indicators   `json:"indicators,omitempty"`
	Flow          *FlowAnalysis `json:"flow,omitempty"`
	Suggestion    Suggestion    `json:"suggestion"`
	Plan          TradingPlan   `json:"plan"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
