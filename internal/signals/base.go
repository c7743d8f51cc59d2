package signals

import (
	"math"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/estimation"
)

// BaseInput bundles everything the base path needs for one (city,
// target_date, market_type) slice.
type BaseInput struct {
	City               string
	MarketType         domain.MarketType
	IsTomorrow         bool
	Estimate           estimation.Estimate
	Sigma              float64
	CurrentTempF       float64
	ForecastTempF      float64
	SurroundingAvgF    float64
	RunningHighF       *float64
	RunningLowF        *float64
	PreferredCity      bool
}

// probabilityOf computes p_us for a strike given (μ, σ), per §4.3.1.
func probabilityOf(strike domain.Strike, mu, sigma float64) float64 {
	switch strike.Kind() {
	case domain.StrikeBracket:
		f, c := domain.BracketBounds(strike)
		return phi((c+1-mu)/sigma) - phi((f-mu)/sigma)
	case domain.StrikeGreaterThan:
		f := domain.GreaterThanFloor(strike)
		return 1 - phi((f-mu)/sigma)
	case domain.StrikeLessThan:
		c := domain.LessThanCap(strike)
		return phi((c - mu) / sigma)
	default:
		return 0
	}
}

// GenerateBase evaluates the base path over a slice of live markets for one
// estimation slice and returns any signals the market quotes justify.
func GenerateBase(in BaseInput, markets []domain.Market) []domain.Signal {
	var out []domain.Signal

	for _, m := range markets {
		if m.IsIlliquid() {
			continue
		}

		pUs := clampProb(probabilityOf(m.Strike, in.Estimate.MeanF, in.Sigma))
		priceUs := priceFromProb(pUs)

		if priceUs > m.YesAsk && m.YesAsk > 0 {
			sig := buildSignal(in, m, domain.ActionBuy, domain.SideYes, m.YesAsk, pUs,
				edgePct(float64(priceUs), float64(m.YesAsk)), "estimate above yes ask")
			out = append(out, sig)
			continue
		}

		if priceUs < m.YesBid && m.YesBid > 0 {
			margin := marginFor(m.Strike, in.Estimate.MeanF)
			if margin < 3.0 {
				continue // safety gate: require min(|μ-f|,|μ-c|) >= 3F
			}

			flagged, reason := isFlagged(in, m, pUs)
			confidence := in.Estimate.Confidence

			if flagged {
				blocked, blockReason := isBlocked(in, m, margin)
				if blocked {
					_ = blockReason
					continue
				}
				confidence = math.Max(0.20, confidence-0.15)
			}

			noPrice := 100 - m.YesBid
			edge := (float64(m.YesBid) - float64(priceUs)) / float64(m.YesBid) * 100.0
			sig := buildSignal(in, m, domain.ActionBuy, domain.SideNo, noPrice, pUs, edge, reason)
			sig.Confidence = confidence
			sig.MarginF = margin
			out = append(out, sig)
		}
	}

	return out
}

func edgePct(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100.0
}

// marginFor returns min(|μ-f|, |μ-c|) for a strike, treating a missing bound
// as +Inf so one-sided strikes reduce to the distance from their one edge.
func marginFor(strike domain.Strike, mu float64) float64 {
	switch strike.Kind() {
	case domain.StrikeBracket:
		f, c := domain.BracketBounds(strike)
		return math.Min(math.Abs(mu-f), math.Abs(mu-c))
	case domain.StrikeGreaterThan:
		return math.Abs(mu - domain.GreaterThanFloor(strike))
	case domain.StrikeLessThan:
		return math.Abs(mu - domain.LessThanCap(strike))
	default:
		return 0
	}
}

// isFlagged implements the §4.3.1 enhanced-validation trigger conditions.
func isFlagged(in BaseInput, m domain.Market, pUs float64) (bool, string) {
	priceUs := float64(priceFromProb(pUs))
	edge := (float64(m.YesBid) - priceUs) / float64(m.YesBid) * 100.0

	if margin := marginFor(m.Strike, in.Estimate.MeanF); margin <= 2.0 && edge > 50 {
		return true, "sell-yes near bracket edge with high edge"
	}
	if m.YesBid >= 15 && edge > 80 && !in.IsTomorrow {
		return true, "sell-yes high quote and high edge"
	}
	if diverges(in) {
		return true, "forecast diverges from running extreme"
	}
	return false, "sell-yes vs market estimate"
}

func diverges(in BaseInput) bool {
	var running *float64
	if in.MarketType == domain.MarketTypeHigh {
		running = in.RunningHighF
	} else {
		running = in.RunningLowF
	}
	if running == nil {
		return false
	}
	return math.Abs(in.ForecastTempF-*running) > 3.0
}

// isBlocked implements the §4.3.1 blocking conditions for a flagged signal.
func isBlocked(in BaseInput, m domain.Market, margin float64) (bool, string) {
	if margin < 4.0 {
		return true, "safety margin below 4F"
	}

	if in.MarketType == domain.MarketTypeHigh && in.RunningHighF != nil {
		adj := *in.RunningHighF + 1.0
		if inBracketContinuous(m.Strike, adj) {
			return true, "rounding-adjusted running high falls inside bracket"
		}
		if *in.RunningHighF > in.Estimate.MeanF {
			return true, "running high already exceeds estimate"
		}
	}
	if in.MarketType == domain.MarketTypeLow && in.RunningLowF != nil {
		adj := *in.RunningLowF - 1.0
		if inBracketContinuous(m.Strike, adj) {
			return true, "rounding-adjusted running low falls inside bracket"
		}
		if *in.RunningLowF < in.Estimate.MeanF {
			return true, "running low already undershoots estimate"
		}
	}

	return false, ""
}

// inBracketContinuous tests v against a bracket's continuous-degree-equivalent
// span [floor, cap+1], matching the inclusive-upper-bound convention
// probabilityOf uses — not Strike.Contains's literal [floor,cap] membership.
func inBracketContinuous(strike domain.Strike, v float64) bool {
	if strike.Kind() != domain.StrikeBracket {
		return strike.Contains(v)
	}
	f, c := domain.BracketBounds(strike)
	return v >= f && v <= c+1
}

func buildSignal(in BaseInput, m domain.Market, action domain.Action, side domain.Side, priceCents int, ourProb, edge float64, reason string) domain.Signal {
	return domain.Signal{
		City:                in.City,
		MarketType:          in.MarketType,
		EventTicker:         m.EventTicker,
		MarketTicker:        m.Ticker,
		Action:              action,
		Side:                side,
		SuggestedPriceCents: priceCents,
		Confidence:          in.Estimate.Confidence,
		EdgePct:             edge,
		Reason:              reason,
		CurrentTempF:        in.CurrentTempF,
		ForecastTempF:       in.ForecastTempF,
		SurroundingAvgF:     in.SurroundingAvgF,
		MarketYesPriceCents: m.YesBid,
		IsTomorrow:          in.IsTomorrow,
		SignalSource:        domain.SignalSourceModel,
		Strike:              m.Strike,
	}
}
