package signals

import (
	"sort"

	"github.com/kalshiwx/sentinel/internal/domain"
)

// PostFilter drops NO signals whose underlying yes price is below 10c and
// YES signals priced under 50c, per §4.3.1's post-filter priorities. The NO
// side is keyed off the market's yes price, not the NO order's own quote.
func PostFilter(sigs []domain.Signal) []domain.Signal {
	out := sigs[:0]
	for _, s := range sigs {
		if s.Side == domain.SideNo && s.MarketYesPriceCents < 10 {
			continue
		}
		if s.Side == domain.SideYes && s.SuggestedPriceCents < 50 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// priorityScore ranks a signal for execution ordering: cheap NO longshots
// and high-conviction YES rank highest.
func priorityScore(s domain.Signal, preferredCities map[string]bool) float64 {
	var score float64
	switch {
	case s.Side == domain.SideNo && s.MarketYesPriceCents <= 25:
		score = 5
	case s.Side == domain.SideYes && s.SuggestedPriceCents >= 80:
		score = 3
	case s.Side == domain.SideNo:
		score = 2
	default:
		score = 1
	}
	if preferredCities[s.City] {
		score *= 1.3
	}
	return score
}

// SortByPriority orders signals highest-priority first.
func SortByPriority(sigs []domain.Signal, preferredCities map[string]bool) {
	sort.SliceStable(sigs, func(i, j int) bool {
		return priorityScore(sigs[i], preferredCities) > priorityScore(sigs[j], preferredCities)
	})
}
