package risk

import "github.com/kalshiwx/sentinel/internal/domain"

const lockinTickerCap = 25

// DedupGate implements §4.4.2. existing holds the caller's open positions;
// no ET-day filter is applied, so an open position from an earlier day
// counts the same as one opened today.
func DedupGate(s domain.Signal, existing []OpenPosition) Outcome {
	var sameTickerSide *OpenPosition
	var totalOnTicker int
	for i := range existing {
		p := existing[i]
		if p.Ticker != s.MarketTicker {
			continue
		}
		totalOnTicker += p.Contracts
		if p.Side == s.Side && !p.Settled {
			sameTickerSide = &existing[i]
		}
	}

	if sameTickerSide == nil {
		return accept()
	}

	if s.SignalSource != domain.SignalSourceMetarLockin {
		return reject("dedup_model", "a model signal already holds this (ticker, side) today")
	}

	if totalOnTicker >= lockinTickerCap {
		return reject("dedup_lockin_cap", "lock-in stacking cap of 25 contracts per ticker reached")
	}

	return accept()
}

// StackMultiplier returns the lock-in stacking sizing multiplier for a
// signal that is stacking onto an existing position, per §4.4.2.
func StackMultiplier(s domain.Signal) float64 {
	switch {
	case s.SignalSource == domain.SignalSourceMetarLockin && s.EdgePct >= 80:
		return 5.0
	case s.SignalSource == domain.SignalSourceMetarLockin && s.EdgePct >= 40:
		return 3.0
	case s.IsTomorrow && s.Side == domain.SideNo && s.EdgePct >= 40 && s.MarginF >= 3.0:
		return 2.0
	default:
		return 1.0
	}
}
