package signals

import (
	"testing"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/estimation"
	"github.com/stretchr/testify/assert"
)

func TestGenerateBase_IgnoresIlliquidMarkets(t *testing.T) {
	in := BaseInput{City: "nyc", Estimate: estimation.Estimate{MeanF: 75, Confidence: 0.8}, Sigma: 3.0}
	markets := []domain.Market{
		{Ticker: "NYC-HIGHTEMP-70-80", EventTicker: "EVT", Strike: domain.NewBracket(70, 80), YesBid: 0, YesAsk: 100},
	}

	out := GenerateBase(in, markets)
	assert.Empty(t, out)
}

func TestGenerateBase_BuysYesWhenOurEstimateExceedsAsk(t *testing.T) {
	in := BaseInput{City: "nyc", Estimate: estimation.Estimate{MeanF: 85, Confidence: 0.8}, Sigma: 2.0}
	markets := []domain.Market{
		{Ticker: "NYC-HIGHTEMP-70-90", EventTicker: "EVT", Strike: domain.NewBracket(70, 90), YesBid: 10, YesAsk: 15},
	}

	out := GenerateBase(in, markets)

	assert.Len(t, out, 1)
	assert.Equal(t, domain.SideYes, out[0].Side)
	assert.Equal(t, domain.ActionBuy, out[0].Action)
}

func TestGenerateBase_SkipsThinMarginSellYesCandidate(t *testing.T) {
	// mu sits just 1F above the bracket floor, under the 3F safety margin,
	// so no NO signal should be emitted even though price diverges.
	in := BaseInput{City: "nyc", Estimate: estimation.Estimate{MeanF: 71, Confidence: 0.8}, Sigma: 5.0}
	markets := []domain.Market{
		{Ticker: "NYC-HIGHTEMP-70-90", EventTicker: "EVT", Strike: domain.NewBracket(70, 90), YesBid: 95, YesAsk: 98},
	}

	out := GenerateBase(in, markets)
	assert.Empty(t, out)
}

func TestGenerateBase_BuysNoWhenOurEstimateBelowBidWithSafeMargin(t *testing.T) {
	in := BaseInput{City: "nyc", Estimate: estimation.Estimate{MeanF: 50, Confidence: 0.8}, Sigma: 2.0}
	markets := []domain.Market{
		{Ticker: "NYC-HIGHTEMP-70-90", EventTicker: "EVT", Strike: domain.NewBracket(70, 90), YesBid: 80, YesAsk: 85},
	}

	out := GenerateBase(in, markets)

	assert.Len(t, out, 1)
	assert.Equal(t, domain.SideNo, out[0].Side)
}
