package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultCapCfg() TradeCapConfig {
	return TradeCapConfig{MaxTradesPerDay: 12, BonusTradesAfterWins: 6, BonusTradeCount: 4}
}

func TestEffectiveMax_FloorsAtEightOnSmallAccount(t *testing.T) {
	state := TradeCapState{AccountValueCents: 1000}
	got := EffectiveMax(defaultCapCfg(), state)
	assert.Equal(t, 8, got)
}

func TestEffectiveMax_ScalesWithAccountValue(t *testing.T) {
	small := EffectiveMax(defaultCapCfg(), TradeCapState{AccountValueCents: 8000})
	large := EffectiveMax(defaultCapCfg(), TradeCapState{AccountValueCents: 16000})
	assert.Greater(t, large, small)
}

func TestEffectiveMax_AddsBonusAfterEnoughWins(t *testing.T) {
	state := TradeCapState{AccountValueCents: 8000, TodayWinningTrades: 6}
	got := EffectiveMax(defaultCapCfg(), state)
	assert.Equal(t, 16, got) // baseMax 12 + bonus 4
}

func TestEffectiveMax_AddsTenAfterProfitRuleTrigger(t *testing.T) {
	withoutTrigger := EffectiveMax(defaultCapCfg(), TradeCapState{AccountValueCents: 8000})
	withTrigger := EffectiveMax(defaultCapCfg(), TradeCapState{AccountValueCents: 8000, ProfitRuleTriggered: true})
	assert.Equal(t, withoutTrigger+10, withTrigger)
}

func TestLongshotYesOnly_FalseBelowBonusThreshold(t *testing.T) {
	state := TradeCapState{AccountValueCents: 8000, TodayWinningTrades: 2}
	assert.False(t, LongshotYesOnly(defaultCapCfg(), state, true, 8))
}

func TestLongshotYesOnly_TrueForCheapYesAfterThreshold(t *testing.T) {
	state := TradeCapState{AccountValueCents: 8000, TodayWinningTrades: 6}
	assert.True(t, LongshotYesOnly(defaultCapCfg(), state, true, 8))
}

func TestLongshotYesOnly_FalseForExpensiveYesAfterThreshold(t *testing.T) {
	state := TradeCapState{AccountValueCents: 8000, TodayWinningTrades: 6}
	assert.False(t, LongshotYesOnly(defaultCapCfg(), state, true, 50))
}

func TestLongshotYesOnly_FalseForNoSideAfterThreshold(t *testing.T) {
	state := TradeCapState{AccountValueCents: 8000, TodayWinningTrades: 6}
	assert.False(t, LongshotYesOnly(defaultCapCfg(), state, false, 8))
}
