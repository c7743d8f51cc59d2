// Package ingest collects per-cycle station observations and NWS forecasts.
package ingest

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/rs/zerolog"
)

const observationColumns = `id, station, city, is_primary, temp_f, humidity, wind_mph, wind_dir, pressure_mb, cloud_cover, obs_time, collected_at`

// Repository persists observations and forecasts.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository builds a Repository over db.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{db: db, log: log.With().Str("repo", "ingest").Logger()}
}

// InsertObservation appends a new observation row.
func (r *Repository) InsertObservation(obs domain.Observation) error {
	_, err := r.db.Exec(
		`INSERT INTO observations (station, city, is_primary, temp_f, humidity, wind_mph, wind_dir, pressure_mb, cloud_cover, obs_time, collected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.Station, obs.City, boolToInt(obs.IsPrimary), obs.TempF,
		obs.Humidity, obs.WindMPH, obs.WindDir, obs.PressureMB, obs.CloudCover,
		obs.ObsTime.Format(time.RFC3339), obs.CollectedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting observation for station %s: %w", obs.Station, err)
	}
	return nil
}

// LatestObservations returns the latest row per station for city.
func (r *Repository) LatestObservations(city string) ([]domain.Observation, error) {
	rows, err := r.db.Query(`
		SELECT `+observationColumns+`
		FROM observations o
		WHERE o.city = ? AND o.id = (
			SELECT MAX(id) FROM observations WHERE station = o.station AND city = o.city
		)
		ORDER BY o.station`, city)
	if err != nil {
		return nil, fmt.Errorf("querying latest observations for %s: %w", city, err)
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

func scanObservation(rows *sql.Rows) (domain.Observation, error) {
	var obs domain.Observation
	var isPrimary int
	var obsTime, collectedAt string
	if err := rows.Scan(
		&obs.ID, &obs.Station, &obs.City, &isPrimary, &obs.TempF,
		&obs.Humidity, &obs.WindMPH, &obs.WindDir, &obs.PressureMB, &obs.CloudCover,
		&obsTime, &collectedAt,
	); err != nil {
		return domain.Observation{}, fmt.Errorf("scanning observation: %w", err)
	}
	obs.IsPrimary = isPrimary != 0
	obs.ObsTime, _ = time.Parse(time.RFC3339, obsTime)
	obs.CollectedAt, _ = time.Parse(time.RFC3339, collectedAt)
	return obs, nil
}

// InsertForecast appends a new forecast snapshot.
func (r *Repository) InsertForecast(f domain.Forecast) error {
	_, err := r.db.Exec(
		`INSERT INTO forecasts (city, forecast_date, forecast_high_f, forecast_low_f, period_name, short_forecast, collected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.City, f.ForecastDate, f.ForecastHighF, f.ForecastLowF, f.PeriodName, f.ShortForecast,
		f.CollectedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting forecast for %s: %w", f.City, err)
	}
	return nil
}

// LatestForecast returns the most recently collected forecast for city on
// dateET, or the zero value with ok=false if none exists.
func (r *Repository) LatestForecast(city, dateET string) (domain.Forecast, bool, error) {
	row := r.db.QueryRow(`
		SELECT city, forecast_date, forecast_high_f, forecast_low_f, period_name, short_forecast, collected_at
		FROM forecasts
		WHERE city = ? AND forecast_date = ?
		ORDER BY collected_at DESC
		LIMIT 1`, city, dateET)

	var f domain.Forecast
	var collectedAt string
	err := row.Scan(&f.City, &f.ForecastDate, &f.ForecastHighF, &f.ForecastLowF, &f.PeriodName, &f.ShortForecast, &collectedAt)
	if err == sql.ErrNoRows {
		return domain.Forecast{}, false, nil
	}
	if err != nil {
		return domain.Forecast{}, false, fmt.Errorf("querying latest forecast for %s/%s: %w", city, dateET, err)
	}
	f.CollectedAt, _ = time.Parse(time.RFC3339, collectedAt)
	return f, true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
