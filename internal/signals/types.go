// Package signals implements the base and lock-in signal-generation paths
// of §4.3: turning an estimation-engine (μ, confidence) pair and a set of
// live market quotes into candidate Signals.
package signals

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var standardNormal = distuv.Normal{Mu: 0, Sigma: 1}

// phi is the standard normal CDF, Φ(z).
func phi(z float64) float64 {
	return standardNormal.CDF(z)
}

// clampProb restricts p to [0.01, 0.99] per §4.3's clamp rule.
func clampProb(p float64) float64 {
	return math.Max(0.01, math.Min(0.99, p))
}

// priceFromProb converts a clamped probability into a 1..99 cent price.
func priceFromProb(p float64) int {
	cents := int(math.Round(p * 100))
	if cents < 1 {
		cents = 1
	}
	if cents > 99 {
		cents = 99
	}
	return cents
}
