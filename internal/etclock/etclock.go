// Package etclock centralizes the fixed UTC-5 "ET" clock used for day-keying
// and trading-window gating throughout the agent.
//
// The original system hard-codes UTC-5 with no DST adjustment (observation
// timestamps are UTC; everything else — daily extremes, trading windows,
// lock windows — is keyed on this fixed offset). We preserve that choice
// exactly rather than switching to America/New_York, per the Open Question
// resolution in SPEC_FULL.md: DST support would require parallel changes to
// window boundaries and date_et keys that the original behavior never made.
package etclock

import "time"

// Zone is the fixed ET offset: UTC-5, year-round.
var Zone = time.FixedZone("ET", -5*60*60)

// Now returns the current time in the fixed ET zone.
func Now() time.Time {
	return time.Now().In(Zone)
}

// Today returns today's ET calendar date as YYYY-MM-DD.
func Today() string {
	return Now().Format("2006-01-02")
}

// Tomorrow returns tomorrow's ET calendar date as YYYY-MM-DD.
func Tomorrow() string {
	return Now().AddDate(0, 0, 1).Format("2006-01-02")
}

// DateET formats an arbitrary instant as its ET calendar date.
func DateET(t time.Time) string {
	return t.In(Zone).Format("2006-01-02")
}

// HourET returns the hour-of-day (0-23) in ET for an instant.
func HourET(t time.Time) int {
	return t.In(Zone).Hour()
}
