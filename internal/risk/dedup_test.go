package risk

import (
	"testing"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDedupGate_AcceptsWhenNoExistingPosition(t *testing.T) {
	s := domain.Signal{MarketTicker: "NYC-HIGHTEMP-25", Side: domain.SideNo, SignalSource: domain.SignalSourceModel}
	outcome := DedupGate(s, nil)
	assert.True(t, outcome.Accepted)
}

func TestDedupGate_RejectsModelSignalStackingOnModelPosition(t *testing.T) {
	s := domain.Signal{MarketTicker: "NYC-HIGHTEMP-25", Side: domain.SideNo, SignalSource: domain.SignalSourceModel}
	existing := []OpenPosition{{Ticker: "NYC-HIGHTEMP-25", Side: domain.SideNo, Contracts: 5, Settled: false}}

	outcome := DedupGate(s, existing)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "dedup_model", outcome.Layer)
}

func TestDedupGate_AllowsLockinStackingUnderCap(t *testing.T) {
	s := domain.Signal{MarketTicker: "NYC-HIGHTEMP-25", Side: domain.SideNo, SignalSource: domain.SignalSourceMetarLockin}
	existing := []OpenPosition{{Ticker: "NYC-HIGHTEMP-25", Side: domain.SideNo, Contracts: 10, Settled: false}}

	outcome := DedupGate(s, existing)
	assert.True(t, outcome.Accepted)
}

func TestDedupGate_RejectsLockinStackingAtCap(t *testing.T) {
	s := domain.Signal{MarketTicker: "NYC-HIGHTEMP-25", Side: domain.SideNo, SignalSource: domain.SignalSourceMetarLockin}
	existing := []OpenPosition{{Ticker: "NYC-HIGHTEMP-25", Side: domain.SideNo, Contracts: 25, Settled: false}}

	outcome := DedupGate(s, existing)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "dedup_lockin_cap", outcome.Layer)
}

func TestStackMultiplier_HighEdgeLockinGetsLargestMultiplier(t *testing.T) {
	s := domain.Signal{SignalSource: domain.SignalSourceMetarLockin, EdgePct: 85}
	assert.Equal(t, 5.0, StackMultiplier(s))
}

func TestStackMultiplier_MidEdgeLockinGetsMediumMultiplier(t *testing.T) {
	s := domain.Signal{SignalSource: domain.SignalSourceMetarLockin, EdgePct: 45}
	assert.Equal(t, 3.0, StackMultiplier(s))
}

func TestStackMultiplier_TomorrowNoMarginQualifies(t *testing.T) {
	s := domain.Signal{SignalSource: domain.SignalSourceModel, IsTomorrow: true, Side: domain.SideNo, EdgePct: 45, MarginF: 4.0}
	assert.Equal(t, 2.0, StackMultiplier(s))
}

func TestStackMultiplier_DefaultIsOne(t *testing.T) {
	s := domain.Signal{SignalSource: domain.SignalSourceModel, EdgePct: 20}
	assert.Equal(t, 1.0, StackMultiplier(s))
}
