package domain

// Signal is the transient output of the signal generator; it is never
// persisted as-is (only the resulting Trade, if the risk gate accepts it).
type Signal struct {
	City                  string
	MarketType            MarketType
	EventTicker            string
	MarketTicker           string
	Action                 Action
	Side                    Side
	SuggestedPriceCents     int // [1, 99]
	Confidence              float64
	EdgePct                 float64
	Reason                  string
	CurrentTempF            float64
	ForecastTempF           float64
	SurroundingAvgF         float64
	MarketYesPriceCents     int
	IsTomorrow              bool
	MarginF                 float64
	SignalSource            SignalSource
	Strike                  Strike
}

// Market is a single tradeable contract on the exchange.
type Market struct {
	Ticker       string
	EventTicker  string
	Status       string // "initialized", "active", "settled", "finalized"
	Result       string // "yes" or "no" once settled, empty before then
	Strike       Strike
	YesBid       int
	YesAsk       int
	NoBid        int
	NoAsk        int
}

// IsSettled reports whether the market has a terminal result.
func (m Market) IsSettled() bool {
	return (m.Status == "settled" || m.Status == "finalized") && m.Result != ""
}

// IsIlliquid reports whether the market has no two-sided quote.
func (m Market) IsIlliquid() bool {
	return m.YesBid == 0 && m.YesAsk == 100
}
