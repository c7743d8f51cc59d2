package risk

import (
	"testing"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func modelSignal(edgePct float64) domain.Signal {
	return domain.Signal{
		City:                "nyc",
		MarketType:          domain.MarketTypeHigh,
		MarketTicker:        "NYC-HIGHTEMP-25",
		Action:              domain.ActionBuy,
		Side:                domain.SideNo,
		SuggestedPriceCents: 55,
		EdgePct:             edgePct,
		CurrentTempF:        72.0,
		ForecastTempF:       73.0,
		MarginF:             3.0,
		SignalSource:        domain.SignalSourceModel,
	}
}

func baseInput(s domain.Signal) GateInput {
	return GateInput{
		Signal:             s,
		Contracts:          2,
		PerTickerCap:       50,
		AccountValueCents:  10000,
		CapitalCapFraction: 0.40,
		TodayTradeCount:    0,
		EffectiveMaxTrades: 8,
		MinEdgeModelPct:    15,
		MinEdgeLockinPct:   1,
	}
}

func TestEvaluate_AcceptsCleanSignal(t *testing.T) {
	in := baseInput(modelSignal(20))
	outcome := Evaluate(in)
	assert.True(t, outcome.Accepted)
}

func TestEvaluate_KillSwitchBlocksEverything(t *testing.T) {
	in := baseInput(modelSignal(20))
	in.KillSwitch = true

	outcome := Evaluate(in)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "kill_switch", outcome.Layer)
}

func TestEvaluate_PerTickerCapRejectsOverflow(t *testing.T) {
	in := baseInput(modelSignal(20))
	in.ExistingContractsOnTicker = 49
	in.Contracts = 5

	outcome := Evaluate(in)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "per_ticker_cap", outcome.Layer)
}

func TestEvaluate_YesBuyProhibitedOutsideLockin(t *testing.T) {
	s := modelSignal(20)
	s.Side = domain.SideYes
	in := baseInput(s)

	outcome := Evaluate(in)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "yes_buy_prohibited", outcome.Layer)
}

func TestEvaluate_YesBuyAllowedForLockin(t *testing.T) {
	s := modelSignal(20)
	s.Side = domain.SideYes
	s.SignalSource = domain.SignalSourceMetarLockin
	s.EdgePct = 50
	in := baseInput(s)

	outcome := Evaluate(in)
	assert.True(t, outcome.Accepted)
}

func TestEvaluate_CapitalCapRejectsWhenExposureAtCap(t *testing.T) {
	in := baseInput(modelSignal(20))
	in.OpenExposureCents = 4000 // exactly 40% of 10000
	in.AccountValueCents = 10000
	in.CapitalCapFraction = 0.40

	outcome := Evaluate(in)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "capital_cap", outcome.Layer)
}

func TestEvaluate_DailyTradeCapRejectsAtLimit(t *testing.T) {
	in := baseInput(modelSignal(20))
	in.TodayTradeCount = 8
	in.EffectiveMaxTrades = 8

	outcome := Evaluate(in)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "daily_trade_cap", outcome.Layer)
}

func TestEvaluate_MinEdgeRejectsBelowThreshold(t *testing.T) {
	in := baseInput(modelSignal(10))

	outcome := Evaluate(in)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "min_edge", outcome.Layer)
}

func TestEvaluate_LockinUsesLockinMinEdge(t *testing.T) {
	s := modelSignal(5)
	s.SignalSource = domain.SignalSourceMetarLockin
	in := baseInput(s)
	in.MinEdgeLockinPct = 1

	outcome := Evaluate(in)
	assert.True(t, outcome.Accepted)
}

func TestEvaluate_SanityGateShortCircuitsBeforeCapitalCap(t *testing.T) {
	s := modelSignal(20)
	s.ForecastTempF = 100 // diverges > 20F from CurrentTempF
	in := baseInput(s)
	in.OpenExposureCents = 9999999 // would also fail capital cap

	outcome := Evaluate(in)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "sanity_divergence", outcome.Layer)
}
