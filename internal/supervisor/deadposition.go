package supervisor

import (
	"fmt"

	"github.com/kalshiwx/sentinel/internal/domain"
)

// IsDead implements §4.5's dead-position decision table: whether a held
// position is mathematically unreachable given the station's current
// temperature and the ET hour, indexed by (market_type, bracket_kind, side,
// current_temp_vs_strike, hour_of_day_et). These constants are part of the
// spec and are reproduced exactly from the original decision table, adapted
// to read off the exchange's own domain.Strike rather than re-parsing
// bracket bounds out of the ticker string.
func IsDead(marketType domain.MarketType, strike domain.Strike, side domain.Side, currentTempF float64, hourET int) (bool, string) {
	switch strike.Kind() {
	case domain.StrikeBracket:
		floor, cap := domain.BracketBounds(strike)
		return deadBracket(marketType, floor, cap, side, currentTempF, hourET)
	case domain.StrikeGreaterThan:
		floor := domain.GreaterThanFloor(strike)
		return deadGreaterThan(marketType, floor, side, currentTempF, hourET)
	case domain.StrikeLessThan:
		cap := domain.LessThanCap(strike)
		return deadLessThan(marketType, cap, side, currentTempF, hourET)
	}
	return false, ""
}

func deadBracket(marketType domain.MarketType, floor, cap float64, side domain.Side, t float64, hourET int) (bool, string) {
	switch {
	case marketType == domain.MarketTypeHigh && side == domain.SideYes:
		if t > cap+2 && hourET >= 12 {
			return true, fmt.Sprintf("current %.1f°F already above bracket [%.0f-%.0f]°F — high is past this range", t, floor, cap)
		}
		if t < floor-5 && hourET >= 15 {
			return true, fmt.Sprintf("current %.1f°F, %.0f°F below bracket [%.0f-%.0f]°F at %d:00 ET — can't reach", t, floor-t, floor, cap, hourET)
		}
	case marketType == domain.MarketTypeHigh && side == domain.SideNo:
		if t >= floor && t <= cap && hourET >= 13 && hourET <= 16 {
			return true, fmt.Sprintf("current %.1f°F is in bracket [%.0f-%.0f]°F during peak hours — high likely lands here", t, floor, cap)
		}
	case marketType == domain.MarketTypeLow && side == domain.SideYes:
		if t < floor-3 && hourET >= 4 {
			return true, fmt.Sprintf("current %.1f°F already below bracket [%.0f-%.0f]°F — low already passed", t, floor, cap)
		}
		if t > cap+4 && hourET >= 2 {
			return true, fmt.Sprintf("current %.1f°F, %.0f°F above bracket [%.0f-%.0f]°F at %d:00 ET — won't cool enough", t, t-cap, floor, cap, hourET)
		}
	case marketType == domain.MarketTypeLow && side == domain.SideNo:
		if t >= floor && t <= cap && hourET >= 4 && hourET <= 7 {
			return true, fmt.Sprintf("current %.1f°F is in bracket [%.0f-%.0f]°F during coldest hours", t, floor, cap)
		}
		if t >= floor && t <= cap && hourET >= 2 {
			return true, fmt.Sprintf("current %.1f°F is in bracket [%.0f-%.0f]°F overnight — likely settling here", t, floor, cap)
		}
	}
	return false, ""
}

func deadGreaterThan(marketType domain.MarketType, floor float64, side domain.Side, t float64, hourET int) (bool, string) {
	if marketType != domain.MarketTypeHigh {
		return false, ""
	}
	switch side {
	case domain.SideYes:
		if t < floor-5 && hourET >= 15 {
			return true, fmt.Sprintf("current %.1f°F never reaching %.0f°F threshold at %d:00 ET", t, floor, hourET)
		}
	case domain.SideNo:
		if t > floor+2 && hourET >= 12 {
			return true, fmt.Sprintf("current %.1f°F already exceeded %.0f°F threshold", t, floor)
		}
	}
	return false, ""
}

func deadLessThan(marketType domain.MarketType, cap float64, side domain.Side, t float64, hourET int) (bool, string) {
	if marketType != domain.MarketTypeLow {
		return false, ""
	}
	switch side {
	case domain.SideYes:
		if t < cap-1 && hourET >= 3 {
			return true, fmt.Sprintf("current %.1f°F already below %.0f°F threshold — low already breached", t, cap)
		}
	case domain.SideNo:
		if t > cap+3 && hourET >= 5 && hourET <= 8 {
			return true, fmt.Sprintf("current %.1f°F still %.0f°F above %.0f°F threshold at %d:00 ET — low won't reach it", t, t-cap, cap, hourET)
		}
		if t > cap && t < cap+10 && hourET >= 4 && hourET <= 7 {
			return true, fmt.Sprintf("current %.1f°F in threshold range (>%.0f°F) during coldest hours — NO position dead", t, cap)
		}
	}
	return false, ""
}
