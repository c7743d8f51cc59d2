// Package domain holds the core entities and cross-package interfaces for
// the weather-contract trading agent: observations, extremes, forecasts,
// signals, trades, and the exchange-agnostic market data/order contract.
package domain

import "time"

// Observation is a single station reading. Appended only, never mutated.
type Observation struct {
	ID          int64
	Station     string
	City        string
	IsPrimary   bool
	TempF       float64
	Humidity    *float64
	WindMPH     *float64
	WindDir     *float64
	PressureMB  *float64
	CloudCover  string
	ObsTime     time.Time
	CollectedAt time.Time
}

// DailyExtreme tracks the running high/low for one station on one ET day.
// Unique on (Station, DateET); a new day produces a new row rather than an
// in-place reset.
type DailyExtreme struct {
	Station       string
	DateET        string
	RunningHighF  float64
	RunningLowF   float64
	ObsCount      int
	LastUpdated   time.Time
}

// Forecast is a per-city NWS point-forecast snapshot. Latest-per-date wins.
type Forecast struct {
	City           string
	ForecastDate   string
	ForecastHighF  *float64
	ForecastLowF   *float64
	PeriodName     string
	ShortForecast  string
	CollectedAt    time.Time
}

// Prediction is the estimation-engine audit log: filled at cycle time,
// backfilled by settlement sync once the market resolves.
type Prediction struct {
	ID               int64
	City             string
	MarketType       MarketType
	EstimatedTempF   float64
	ForecastTempF    *float64
	PrimaryTempF     *float64
	SurroundingAvgF  *float64
	Confidence       float64
	ActualTempF      *float64
	ErrorF           *float64
	SettledAt        *time.Time
	CreatedAt        time.Time
}

// MarketType distinguishes the daily-high contract from the daily-low contract.
type MarketType string

const (
	MarketTypeHigh MarketType = "high"
	MarketTypeLow  MarketType = "low"
)

// Action is the order side an operator takes on a contract.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Side is the contract side: YES settles when the event occurs, NO otherwise.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// SignalSource distinguishes model-derived signals from METAR lock-in signals.
type SignalSource string

const (
	SignalSourceModel        SignalSource = "model"
	SignalSourceMetarLockin  SignalSource = "metar_lockin"
)

// SettlementResult is the terminal state of a closed or settled trade.
type SettlementResult string

const (
	SettlementWin    SettlementResult = "win"
	SettlementLoss   SettlementResult = "loss"
	SettlementClosed SettlementResult = "closed"
)

// Trade is a live or paper order row. Inserted at order placement;
// settlement fields are set only by settlement sync or the close path.
type Trade struct {
	ID                int64
	Ticker            string
	EventTicker       string
	City              string
	MarketType        MarketType
	Side              Side
	Contracts         int
	EntryPriceCents    int
	SignalSource      SignalSource
	EstimatedTempF    *float64
	ForecastTempF     *float64
	PrimaryTempF      *float64
	SurroundingAvgF   *float64
	Confidence        *float64
	EdgePct           *float64
	FloorStrike       *float64
	CapStrike         *float64
	OurProb           *float64
	MarketProb        *float64
	Settled           bool
	SettlementResult  *SettlementResult
	PnLCents          *int
	FeesCents         int
	ActualTempF       *float64
	CreatedAt         time.Time
	SettledAt         *time.Time
}

// PaperBalanceEntry is one append-only row of the paper ledger; the current
// balance is the latest row by UpdatedAt.
type PaperBalanceEntry struct {
	BalanceCents int64
	UpdatedAt    time.Time
}

// Position is a derived, live view of net exposure on one ticker.
// YES holdings are a positive qty; NO holdings are a negative qty.
type Position struct {
	Ticker             string
	PositionQtySigned  int
	MarketExposureCents int64
}
