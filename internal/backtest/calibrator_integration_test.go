package backtest

import (
	"context"
	"testing"
	"time"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/estimation"
	"github.com/kalshiwx/sentinel/internal/journal"
	sentinelTesting "github.com/kalshiwx/sentinel/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrator_Recalibrate_SkipsSparseCity(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	predictions := journal.NewPredictionRepository(db.Conn(), zerolog.Nop())
	cfg := &cfgdomain.Config{Cities: map[string]cfgdomain.CityConfig{
		"nyc": {FloorF: 30},
	}}

	baseline := estimation.HighBiases["nyc"]

	calibrator := NewCalibrator(predictions, cfg, zerolog.Nop())
	require.NoError(t, calibrator.Recalibrate(context.Background()))

	assert.Equal(t, baseline, estimation.HighBiases["nyc"])
}

func TestCalibrator_Recalibrate_UpdatesBiasWithEnoughSamples(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	predictions := journal.NewPredictionRepository(db.Conn(), zerolog.Nop())
	cfg := &cfgdomain.Config{Cities: map[string]cfgdomain.CityConfig{
		"austin": {FloorF: 40},
	}}

	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		createdAt := now.Add(-time.Duration(i) * 24 * time.Hour)
		pred := sentinelTesting.NewPredictionFixture("austin", domain.MarketTypeHigh, 3.0, createdAt)
		_, err := predictions.Create(pred)
		require.NoError(t, err)

		dateET := createdAt.Format("2006-01-02")
		err = predictions.BackfillSettlement("austin", domain.MarketTypeHigh, dateET, pred.EstimatedTempF+3.0, createdAt.Add(20*time.Hour))
		require.NoError(t, err)
	}

	calibrator := NewCalibrator(predictions, cfg, zerolog.Nop())
	require.NoError(t, calibrator.Recalibrate(context.Background()))

	assert.InDelta(t, 3.0, estimation.HighBiases["austin"], 0.5)
}
