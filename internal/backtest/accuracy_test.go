package backtest

import (
	"testing"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
	sentinelTesting "github.com/kalshiwx/sentinel/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerCityAccuracy_ComputesMAERMSEAndBias(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	predictions := journal.NewPredictionRepository(db.Conn(), zerolog.Nop())
	now := time.Now().UTC()

	errs := []float64{2.0, -2.0, 2.0}
	for i, e := range errs {
		createdAt := now.Add(-time.Duration(i) * 24 * time.Hour)
		pred := sentinelTesting.NewPredictionFixture("chicago", domain.MarketTypeHigh, e, createdAt)
		_, err := predictions.Create(pred)
		require.NoError(t, err)
		dateET := createdAt.Format("2006-01-02")
		require.NoError(t, predictions.BackfillSettlement("chicago", domain.MarketTypeHigh, dateET, pred.EstimatedTempF-e, createdAt.Add(20*time.Hour)))
	}

	results, err := PerCityAccuracy(predictions, []string{"chicago"}, map[string]float64{"chicago": 4.0}, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "chicago", got.City)
	assert.Equal(t, 3, got.Samples)
	assert.InDelta(t, 2.0, got.MAEf, 1e-9)
	assert.InDelta(t, 4.0, got.CurrentSigma, 1e-9)
}

func TestPerCityAccuracy_SkipsCityWithNoSettledData(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	predictions := journal.NewPredictionRepository(db.Conn(), zerolog.Nop())

	results, err := PerCityAccuracy(predictions, []string{"denver"}, map[string]float64{"denver": 3.0}, time.Now().UTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, results)
}
