package risk

import (
	"math"
	"math/rand"

	"github.com/kalshiwx/sentinel/internal/domain"
)

// SizingInput bundles everything §4.4.4 needs to compute a contract count.
type SizingInput struct {
	Side              domain.Side
	PriceCents        int // the per-contract risk price (yes_price for NO sizing, yes_ask for YES)
	StackMultiplier   float64
	MinEntryPriceCents int
	BalanceCents      int64
	MaxPositionPct    float64 // e.g. 5.0 meaning 5%
}

// riskBand returns the (low, high) cent band for a sizing tier, before the
// stacking multiplier is applied.
func riskBand(side domain.Side, priceCents int) (low, high float64, minContracts int) {
	switch {
	case side == domain.SideNo:
		return 175, 225, 1
	case side == domain.SideYes && priceCents >= 50:
		return 0, 175, 3
	default: // YES below 50c
		return 100, 125, 1
	}
}

// Size computes the contract count for a sized candidate signal, per
// §4.4.4. rnd supplies both the within-band draw and the anti-fingerprint
// jitter; callers pass a *rand.Rand seeded however they like (tests pass a
// fixed seed for determinism).
func Size(in SizingInput, rnd *rand.Rand) int {
	if in.PriceCents <= 0 {
		return 0
	}

	low, high, minContracts := riskBand(in.Side, in.PriceCents)
	stackMult := in.StackMultiplier
	if stackMult <= 0 {
		stackMult = 1.0
	}

	band := (low + rnd.Float64()*(high-low)) * stackMult

	contracts := int(math.Floor(band / float64(in.PriceCents)))
	if contracts < minContracts {
		contracts = minContracts
	}

	if in.MinEntryPriceCents > 0 {
		floorContracts := int(math.Ceil(float64(in.MinEntryPriceCents) / float64(in.PriceCents)))
		if contracts < floorContracts {
			contracts = floorContracts
		}
	}

	if in.MaxPositionPct > 0 && in.BalanceCents > 0 {
		maxByBalance := int(math.Floor(float64(in.BalanceCents) * in.MaxPositionPct / 100.0 / float64(in.PriceCents)))
		if contracts > maxByBalance {
			contracts = maxByBalance
		}
	}

	if contracts > 10 {
		contracts = 10
	}

	if contracts >= 3 {
		jitter := rnd.Intn(3) - 1 // -1, 0, or +1
		contracts += jitter
	}

	if contracts < 1 {
		contracts = 1
	}

	return contracts
}
