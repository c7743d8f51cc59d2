package orchestrator

import (
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/etclock"
)

// HighLockHourET is the ET hour after which a city's running high is
// considered final (§4.3.2 lock window, §GLOSSARY).
const HighLockHourET = 18

// LowLockHourET is the ET hour after which a city's running low is final.
const LowLockHourET = 8

// HighLocked reports whether the high lock window is active at hourET.
func HighLocked(hourET int) bool { return hourET >= HighLockHourET }

// LowLocked reports whether the low lock window is active at hourET.
func LowLocked(hourET int) bool { return hourET >= LowLockHourET && hourET < 24 }

// WindowEligible implements §4.4 step 8: a today-dated signal is eligible
// only inside its market type's configured trading window; a tomorrow-dated
// signal is eligible regardless of window (the early-entry edge).
func WindowEligible(s domain.Signal, windowActive func(hourET int) bool, hourET int) bool {
	if s.IsTomorrow {
		return true
	}
	return windowActive(hourET)
}

// TodayOrTomorrow returns the ET calendar date for "today" or "tomorrow".
func TodayOrTomorrow(isTomorrow bool) string {
	if isTomorrow {
		return etclock.Tomorrow()
	}
	return etclock.Today()
}
