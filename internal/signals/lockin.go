package signals

import (
	"github.com/kalshiwx/sentinel/internal/domain"
)

const lockinBufferF = 0.5 // conservative buffer beyond the literal observed extreme

// LockinInput bundles the locked running extreme for one city/market-type.
type LockinInput struct {
	City       string
	MarketType domain.MarketType
	RunningHighF float64
	RunningLowF  float64
}

// GenerateLockin evaluates the lock-in path (§4.3.2) over live markets for a
// city whose running extreme is locked for the relevant market type. Callers
// are responsible for window gating (high locked after 18 ET, low after 08 ET).
func GenerateLockin(in LockinInput, markets []domain.Market) []domain.Signal {
	var out []domain.Signal

	for _, m := range markets {
		if m.IsIlliquid() {
			continue
		}

		if sig, ok := impossibleBracket(in, m); ok {
			out = append(out, sig)
			continue
		}
		if sig, ok := confirmedBracket(in, m); ok {
			out = append(out, sig)
		}
	}

	return out
}

func impossibleBracket(in LockinInput, m domain.Market) (domain.Signal, bool) {
	cannotSettleYes := false
	switch m.Strike.Kind() {
	case domain.StrikeBracket:
		floor, _ := domain.BracketBounds(m.Strike)
		if in.MarketType == domain.MarketTypeHigh && floor > in.RunningHighF+lockinBufferF {
			cannotSettleYes = true
		}
	case domain.StrikeGreaterThan:
		floor := domain.GreaterThanFloor(m.Strike)
		if in.MarketType == domain.MarketTypeHigh && floor > in.RunningHighF+lockinBufferF {
			cannotSettleYes = true
		}
	}

	if m.Strike.Kind() == domain.StrikeBracket {
		_, cap := domain.BracketBounds(m.Strike)
		if in.MarketType == domain.MarketTypeLow && cap < in.RunningLowF-lockinBufferF {
			cannotSettleYes = true
		}
	}
	if m.Strike.Kind() == domain.StrikeLessThan {
		cap := domain.LessThanCap(m.Strike)
		if in.MarketType == domain.MarketTypeLow && cap < in.RunningLowF-lockinBufferF {
			cannotSettleYes = true
		}
	}

	if !cannotSettleYes || m.YesBid < 10 {
		return domain.Signal{}, false
	}

	edge := (float64(m.YesBid) - 1) / float64(m.YesBid) * 100.0

	return domain.Signal{
		City:                in.City,
		MarketType:          in.MarketType,
		EventTicker:         m.EventTicker,
		MarketTicker:        m.Ticker,
		Action:              domain.ActionBuy,
		Side:                domain.SideNo,
		SuggestedPriceCents: 100 - m.YesBid,
		Confidence:          0.95,
		EdgePct:             edge,
		Reason:              "impossible bracket given locked running extreme",
		MarketYesPriceCents: m.YesBid,
		SignalSource:        domain.SignalSourceMetarLockin,
		Strike:              m.Strike,
	}, true
}

func confirmedBracket(in LockinInput, m domain.Market) (domain.Signal, bool) {
	locked := in.RunningHighF
	if in.MarketType == domain.MarketTypeLow {
		locked = in.RunningLowF
	}

	contained := false
	switch m.Strike.Kind() {
	case domain.StrikeBracket:
		floor, cap := domain.BracketBounds(m.Strike)
		contained = locked >= floor+lockinBufferF && locked <= cap-lockinBufferF
	case domain.StrikeGreaterThan:
		floor := domain.GreaterThanFloor(m.Strike)
		contained = locked >= floor+lockinBufferF
	case domain.StrikeLessThan:
		cap := domain.LessThanCap(m.Strike)
		contained = locked <= cap-lockinBufferF
	}

	if !contained || m.YesAsk == 0 || m.YesAsk > 98 {
		return domain.Signal{}, false
	}

	edge := (99.0 - float64(m.YesAsk)) / float64(m.YesAsk) * 100.0
	if edge < 1.0 {
		return domain.Signal{}, false
	}

	return domain.Signal{
		City:                in.City,
		MarketType:          in.MarketType,
		EventTicker:         m.EventTicker,
		MarketTicker:        m.Ticker,
		Action:              domain.ActionBuy,
		Side:                domain.SideYes,
		SuggestedPriceCents: m.YesAsk,
		Confidence:          0.95,
		EdgePct:             edge,
		Reason:              "confirmed bracket given locked running extreme",
		MarketYesPriceCents: m.YesBid,
		SignalSource:        domain.SignalSourceMetarLockin,
		Strike:              m.Strike,
	}, true
}
