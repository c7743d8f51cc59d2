package risk

import (
	"testing"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSanityGate_RejectsExtremeEdgeOnLiquidMarket(t *testing.T) {
	s := domain.Signal{SignalSource: domain.SignalSourceModel, EdgePct: 95, MarketYesPriceCents: 30}
	outcome := SanityGate(s)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "sanity_edge", outcome.Layer)
}

func TestSanityGate_AllowsExtremeEdgeForLockin(t *testing.T) {
	s := domain.Signal{SignalSource: domain.SignalSourceMetarLockin, EdgePct: 95, MarketYesPriceCents: 30}
	outcome := SanityGate(s)
	assert.True(t, outcome.Accepted)
}

func TestSanityGate_RejectsForecastDivergence(t *testing.T) {
	s := domain.Signal{SignalSource: domain.SignalSourceModel, CurrentTempF: 70, ForecastTempF: 95}
	outcome := SanityGate(s)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "sanity_divergence", outcome.Layer)
}

func TestSanityGate_RejectsThinMarginOnTodayModelSignal(t *testing.T) {
	s := domain.Signal{SignalSource: domain.SignalSourceModel, IsTomorrow: false, MarginF: 1.0}
	outcome := SanityGate(s)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "sanity_margin", outcome.Layer)
}

func TestSanityGate_AllowsThinMarginForTomorrow(t *testing.T) {
	s := domain.Signal{SignalSource: domain.SignalSourceModel, IsTomorrow: true, MarginF: 1.0}
	outcome := SanityGate(s)
	assert.True(t, outcome.Accepted)
}

func TestDivergesPrimarySurrounding_ThresholdBoundary(t *testing.T) {
	assert.False(t, DivergesPrimarySurrounding(70.0, 78.0))
	assert.True(t, DivergesPrimarySurrounding(70.0, 78.1))
}
