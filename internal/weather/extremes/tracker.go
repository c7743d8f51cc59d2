package extremes

import (
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/etclock"
)

// Tracker is a thin convenience wrapper over Repository keyed on the
// process's fixed ET clock.
type Tracker struct {
	repo *Repository
}

// NewTracker builds a Tracker over repo.
func NewTracker(repo *Repository) *Tracker {
	return &Tracker{repo: repo}
}

// Observe feeds one new reading into today's running extreme for station.
func (t *Tracker) Observe(station string, tempF float64, observedAt time.Time) (domain.DailyExtreme, error) {
	dateET := etclock.DateET(observedAt)
	return t.repo.Update(station, dateET, tempF, observedAt)
}

// Extremes returns today's running extreme for station, or the zero value
// with ok=false if no observation has landed yet.
func (t *Tracker) Extremes(station string) (domain.DailyExtreme, bool, error) {
	return t.repo.Get(station, etclock.Today())
}

// ExtremesForDate returns the running extreme for station on an explicit
// ET date, used by tomorrow's estimation path and by settlement sync.
func (t *Tracker) ExtremesForDate(station, dateET string) (domain.DailyExtreme, bool, error) {
	return t.repo.Get(station, dateET)
}
