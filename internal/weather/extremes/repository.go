// Package extremes maintains the single-writer running high/low per station
// per ET calendar day.
package extremes

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/rs/zerolog"
)

// Repository persists DailyExtreme rows.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository builds a Repository over db.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{db: db, log: log.With().Str("repo", "extremes").Logger()}
}

// Get returns the extreme row for (station, dateET), or ok=false if absent.
func (r *Repository) Get(station, dateET string) (domain.DailyExtreme, bool, error) {
	row := r.db.QueryRow(`
		SELECT station, date_et, running_high_f, running_low_f, obs_count, last_updated
		FROM daily_extremes WHERE station = ? AND date_et = ?`, station, dateET)

	var e domain.DailyExtreme
	var lastUpdated string
	err := row.Scan(&e.Station, &e.DateET, &e.RunningHighF, &e.RunningLowF, &e.ObsCount, &lastUpdated)
	if err == sql.ErrNoRows {
		return domain.DailyExtreme{}, false, nil
	}
	if err != nil {
		return domain.DailyExtreme{}, false, fmt.Errorf("querying extremes for %s/%s: %w", station, dateET, err)
	}
	e.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
	return e, true, nil
}

// Update applies a new temperature reading t for (station, dateET):
// high ← max(high, t), low ← min(low, t), count += 1. Inserts a fresh row
// (high=low=t, count=1) when the day's row does not yet exist, per §4.1.
func (r *Repository) Update(station, dateET string, t float64, observedAt time.Time) (domain.DailyExtreme, error) {
	existing, ok, err := r.Get(station, dateET)
	if err != nil {
		return domain.DailyExtreme{}, err
	}

	if !ok {
		_, err := r.db.Exec(`
			INSERT INTO daily_extremes (station, date_et, running_high_f, running_low_f, obs_count, last_updated)
			VALUES (?, ?, ?, ?, 1, ?)`,
			station, dateET, t, t, observedAt.Format(time.RFC3339))
		if err != nil {
			return domain.DailyExtreme{}, fmt.Errorf("inserting extremes for %s/%s: %w", station, dateET, err)
		}
		return domain.DailyExtreme{Station: station, DateET: dateET, RunningHighF: t, RunningLowF: t, ObsCount: 1, LastUpdated: observedAt}, nil
	}

	high := existing.RunningHighF
	if t > high {
		high = t
	}
	low := existing.RunningLowF
	if t < low {
		low = t
	}
	count := existing.ObsCount + 1

	_, err = r.db.Exec(`
		UPDATE daily_extremes
		SET running_high_f = ?, running_low_f = ?, obs_count = ?, last_updated = ?
		WHERE station = ? AND date_et = ?`,
		high, low, count, observedAt.Format(time.RFC3339), station, dateET)
	if err != nil {
		return domain.DailyExtreme{}, fmt.Errorf("updating extremes for %s/%s: %w", station, dateET, err)
	}

	return domain.DailyExtreme{Station: station, DateET: dateET, RunningHighF: high, RunningLowF: low, ObsCount: count, LastUpdated: observedAt}, nil
}
