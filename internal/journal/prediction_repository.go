package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/rs/zerolog"
)

// PredictionRepository persists the estimation-engine audit log.
type PredictionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPredictionRepository builds a PredictionRepository over db.
func NewPredictionRepository(db *sql.DB, log zerolog.Logger) *PredictionRepository {
	return &PredictionRepository{db: db, log: log.With().Str("repo", "predictions").Logger()}
}

// Create inserts a prediction row at cycle time.
func (r *PredictionRepository) Create(p domain.Prediction) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO predictions (city, market_type, estimated_temp_f, forecast_temp_f, primary_temp_f, surrounding_avg_f, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.City, string(p.MarketType), p.EstimatedTempF, p.ForecastTempF, p.PrimaryTempF, p.SurroundingAvgF, p.Confidence,
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting prediction for %s: %w", p.City, err)
	}
	return res.LastInsertId()
}

// BackfillSettlement fills actual_temp_f/error_f/settled_at for predictions
// made for (city, marketType) on dateET, once the market has settled.
func (r *PredictionRepository) BackfillSettlement(city string, marketType domain.MarketType, dateET string, actualTempF float64, settledAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE predictions
		SET actual_temp_f = ?, error_f = ? - estimated_temp_f, settled_at = ?
		WHERE city = ? AND market_type = ? AND substr(created_at, 1, 10) = ? AND settled_at IS NULL`,
		actualTempF, actualTempF, settledAt.Format(time.RFC3339), city, string(marketType), dateET,
	)
	if err != nil {
		return fmt.Errorf("backfilling predictions for %s/%s: %w", city, marketType, err)
	}
	return nil
}

// SettledSince returns settled predictions for (city, marketType) created at
// or after since, ordered oldest first, for use by the recalibration job's
// bias/sigma regression.
func (r *PredictionRepository) SettledSince(city string, marketType domain.MarketType, since time.Time) ([]domain.Prediction, error) {
	rows, err := r.db.Query(`
		SELECT id, city, market_type, estimated_temp_f, forecast_temp_f, primary_temp_f, surrounding_avg_f, confidence, actual_temp_f, error_f, settled_at, created_at
		FROM predictions
		WHERE city = ? AND market_type = ? AND settled_at IS NOT NULL AND created_at >= ?
		ORDER BY created_at ASC`,
		city, string(marketType), since.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("querying settled predictions for %s/%s: %w", city, marketType, err)
	}
	defer rows.Close()

	var out []domain.Prediction
	for rows.Next() {
		var p domain.Prediction
		var marketTypeStr, createdAt string
		var settledAt sql.NullString
		if err := rows.Scan(
			&p.ID, &p.City, &marketTypeStr, &p.EstimatedTempF, &p.ForecastTempF, &p.PrimaryTempF, &p.SurroundingAvgF,
			&p.Confidence, &p.ActualTempF, &p.ErrorF, &settledAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		p.MarketType = domain.MarketType(marketTypeStr)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if settledAt.Valid {
			parsed, _ := time.Parse(time.RFC3339, settledAt.String)
			p.SettledAt = &parsed
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Unsettled returns predictions awaiting settlement backfill.
func (r *PredictionRepository) Unsettled() ([]domain.Prediction, error) {
	rows, err := r.db.Query(`
		SELECT id, city, market_type, estimated_temp_f, forecast_temp_f, primary_temp_f, surrounding_avg_f, confidence, actual_temp_f, error_f, settled_at, created_at
		FROM predictions WHERE settled_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying unsettled predictions: %w", err)
	}
	defer rows.Close()

	var out []domain.Prediction
	for rows.Next() {
		var p domain.Prediction
		var marketType, createdAt string
		var settledAt sql.NullString
		if err := rows.Scan(
			&p.ID, &p.City, &marketType, &p.EstimatedTempF, &p.ForecastTempF, &p.PrimaryTempF, &p.SurroundingAvgF,
			&p.Confidence, &p.ActualTempF, &p.ErrorF, &settledAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		p.MarketType = domain.MarketType(marketType)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if settledAt.Valid {
			parsed, _ := time.Parse(time.RFC3339, settledAt.String)
			p.SettledAt = &parsed
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
