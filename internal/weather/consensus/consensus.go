// Package consensus computes the multi-source forecast consensus used for
// tomorrow's estimate (§4.2 step 4) and caches the provider readings gathered
// for each (city, target date, market type); once stored, a cached set is
// reused by every later estimate for that key and is not refreshed.
package consensus

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Reading is one provider's forecast, tagged with its source name.
type Reading struct {
	Source string
	High   *float64
	Low    *float64
}

// Result is the computed median consensus across available providers.
type Result struct {
	HighF          *float64
	LowF           *float64
	ProviderCount  int
	HighQuality    bool // true when at least two providers reported a value
}

// Cache persists per-(city, date, market_type) provider readings as msgpack,
// keyed by a UNIQUE(city, target_date, market_type) row.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCache builds a Cache over db.
func NewCache(db *sql.DB, log zerolog.Logger) *Cache {
	return &Cache{db: db, log: log.With().Str("component", "consensus-cache").Logger()}
}

// Store persists the set of readings gathered for one (city, targetDate, marketType).
func (c *Cache) Store(city, targetDate string, marketType domain.MarketType, readings []Reading) error {
	payload, err := msgpack.Marshal(readings)
	if err != nil {
		return fmt.Errorf("encoding consensus readings: %w", err)
	}
	_, err = c.db.Exec(`
		INSERT INTO consensus_cache (city, target_date, market_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(city, target_date, market_type) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		city, targetDate, string(marketType), payload, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("caching consensus readings: %w", err)
	}
	return nil
}

// Load retrieves a previously cached reading set, if present.
func (c *Cache) Load(city, targetDate string, marketType domain.MarketType) ([]Reading, bool, error) {
	row := c.db.QueryRow(`
		SELECT payload FROM consensus_cache WHERE city = ? AND target_date = ? AND market_type = ?`,
		city, targetDate, string(marketType))

	var payload []byte
	if err := row.Scan(&payload); err == sql.ErrNoRows {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("loading cached consensus readings: %w", err)
	}

	var readings []Reading
	if err := msgpack.Unmarshal(payload, &readings); err != nil {
		return nil, false, fmt.Errorf("decoding cached consensus readings: %w", err)
	}
	return readings, true, nil
}

// Gather polls every configured provider for (lat, lon, targetDate),
// tolerating individual provider failures, and returns the readings that
// succeeded.
func Gather(ctx context.Context, providers []domain.WeatherProvider, lat, lon float64, targetDate string, log zerolog.Logger) []Reading {
	readings := make([]Reading, 0, len(providers))
	for _, p := range providers {
		pf, err := p.Forecast(ctx, lat, lon, targetDate)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("skipping provider for consensus")
			continue
		}
		readings = append(readings, Reading{Source: p.Name(), High: pf.HighF, Low: pf.LowF})
	}
	return readings
}

// Compute derives the median-based consensus from a set of readings.
// HighQuality requires at least two providers to have reported a value for
// the relevant market type.
func Compute(readings []Reading, marketType domain.MarketType) Result {
	var values []float64
	for _, r := range readings {
		var v *float64
		if marketType == domain.MarketTypeHigh {
			v = r.High
		} else {
			v = r.Low
		}
		if v != nil {
			values = append(values, *v)
		}
	}

	if len(values) == 0 {
		return Result{}
	}

	median := medianOf(values)
	result := Result{ProviderCount: len(values), HighQuality: len(values) >= 2}
	if marketType == domain.MarketTypeHigh {
		result.HighF = &median
	} else {
		result.LowF = &median
	}
	return result
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}
