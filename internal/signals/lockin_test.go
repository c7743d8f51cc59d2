package signals

import (
	"testing"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateLockin_ImpossibleBracketYieldsNoSideSignal(t *testing.T) {
	in := LockinInput{City: "nyc", MarketType: domain.MarketTypeHigh, RunningHighF: 70.0}
	markets := []domain.Market{
		{Ticker: "NYC-HIGHTEMP-80-81", EventTicker: "EVT", Strike: domain.NewBracket(80, 81), YesBid: 40, YesAsk: 45},
	}

	out := GenerateLockin(in, markets)

	require := assert.New(t)
	require.Len(out, 1)
	require.Equal(domain.SideNo, out[0].Side)
	require.Equal(domain.SignalSourceMetarLockin, out[0].SignalSource)
}

func TestGenerateLockin_SkipsLowQuoteImpossibleBracket(t *testing.T) {
	in := LockinInput{City: "nyc", MarketType: domain.MarketTypeHigh, RunningHighF: 70.0}
	markets := []domain.Market{
		{Ticker: "NYC-HIGHTEMP-80-81", EventTicker: "EVT", Strike: domain.NewBracket(80, 81), YesBid: 5, YesAsk: 10},
	}

	out := GenerateLockin(in, markets)
	assert.Empty(t, out)
}

func TestGenerateLockin_ConfirmedBracketYieldsYesSignal(t *testing.T) {
	in := LockinInput{City: "nyc", MarketType: domain.MarketTypeHigh, RunningHighF: 75.0}
	markets := []domain.Market{
		{Ticker: "NYC-HIGHTEMP-70-80", EventTicker: "EVT", Strike: domain.NewBracket(70, 80), YesBid: 90, YesAsk: 95},
	}

	out := GenerateLockin(in, markets)

	assert.Len(t, out, 1)
	assert.Equal(t, domain.SideYes, out[0].Side)
	assert.Equal(t, domain.SignalSourceMetarLockin, out[0].SignalSource)
}

func TestGenerateLockin_IgnoresIlliquidMarkets(t *testing.T) {
	in := LockinInput{City: "nyc", MarketType: domain.MarketTypeHigh, RunningHighF: 70.0}
	markets := []domain.Market{
		{Ticker: "NYC-HIGHTEMP-80-81", EventTicker: "EVT", Strike: domain.NewBracket(80, 81), YesBid: 0, YesAsk: 100},
	}

	out := GenerateLockin(in, markets)
	assert.Empty(t, out)
}
