package risk

import "math"

// TradeCapConfig holds the operator-configured inputs to the daily trade cap.
type TradeCapConfig struct {
	MaxTradesPerDay      int
	BonusTradesAfterWins int
	BonusTradeCount      int
}

// TradeCapState holds the day's running state needed to compute the
// effective max, per §4.4.3.
type TradeCapState struct {
	AccountValueCents   int64
	TodayWinningTrades  int
	ProfitRuleTriggered bool
	OpenPositionsInProfit int
}

// EffectiveMax computes the day's effective trade cap.
func EffectiveMax(cfg TradeCapConfig, state TradeCapState) int {
	scale := math.Max(0.5, float64(state.AccountValueCents)/8000.0)

	baseMax := int(math.Round(float64(cfg.MaxTradesPerDay) * scale))
	if baseMax < 8 {
		baseMax = 8
	}

	effective := baseMax

	bonusThreshold := int(math.Round(float64(cfg.BonusTradesAfterWins) * scale))
	if bonusThreshold < 6 {
		bonusThreshold = 6
	}
	if state.TodayWinningTrades >= bonusThreshold {
		effective += cfg.BonusTradeCount
	}

	if state.ProfitRuleTriggered {
		effective += 10
	}

	profitThreshold := int(math.Round(17 * scale))
	if state.OpenPositionsInProfit >= profitThreshold {
		effective += 3
	}

	return effective
}

// LongshotYesOnly reports whether, given today's winning-trade count
// reaches the bonus threshold, a candidate signal is restricted to the
// longshot-YES-only bonus slot rule (YES & price <= 10).
func LongshotYesOnly(cfg TradeCapConfig, state TradeCapState, sideYes bool, priceCents int) bool {
	scale := math.Max(0.5, float64(state.AccountValueCents)/8000.0)
	bonusThreshold := int(math.Round(float64(cfg.BonusTradesAfterWins) * scale))
	if bonusThreshold < 6 {
		bonusThreshold = 6
	}
	if state.TodayWinningTrades < bonusThreshold {
		return false
	}
	return sideYes && priceCents <= 10
}
