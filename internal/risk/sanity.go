package risk

import (
	"math"

	"github.com/kalshiwx/sentinel/internal/domain"
)

// SanityGate implements §4.4.1. Warnings (primary/surrounding divergence)
// are logged by the caller, not enforced here, since this function only
// reports hard blocks.
func SanityGate(s domain.Signal) Outcome {
	isLockin := s.SignalSource == domain.SignalSourceMetarLockin

	if !isLockin && s.EdgePct > 90 && s.MarketYesPriceCents >= 20 {
		return reject("sanity_edge", "edge exceeds 90% on a liquid market outside lock-in")
	}

	if math.Abs(s.ForecastTempF-s.CurrentTempF) > 20 {
		return reject("sanity_divergence", "forecast diverges from current primary temperature by more than 20F")
	}

	if !s.IsTomorrow && s.SignalSource == domain.SignalSourceModel && s.MarginF < 2.0 {
		return reject("sanity_margin", "margin below 2F carries bracket-edge rounding risk")
	}

	return accept()
}

// DivergesPrimarySurrounding reports the §4.4.1 warn-only condition: the
// caller logs a warning but does not block on it.
func DivergesPrimarySurrounding(primary, surrounding float64) bool {
	return math.Abs(primary-surrounding) > 8.0
}
