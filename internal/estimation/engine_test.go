package estimation

import (
	"testing"
	"time"

	"github.com/kalshiwx/sentinel/internal/etclock"
	"github.com/stretchr/testify/assert"
)

func TestEstimateTodayHigh_RoundingBufferLiftsEstimateToRunningHighPlusOne(t *testing.T) {
	e := &Engine{}
	runningHigh := 70.0

	est := e.estimateTodayHigh("nyc", 65.0, 65.0, nil, &runningHigh, 3)

	assert.GreaterOrEqual(t, est.MeanF, 71.0)
}

func TestEstimateTodayHigh_RunningHighAboveEstimateLiftsConfidence(t *testing.T) {
	e := &Engine{}
	runningHigh := 90.0
	forecast := 80.0

	est := e.estimateTodayHigh("nyc", 88.0, 88.0, &forecast, &runningHigh, 3)

	assert.Equal(t, 91.0, est.MeanF) // running high + rounding buffer wins over forecast
	assert.GreaterOrEqual(t, est.Confidence, 0.6)
}

func TestEstimateTodayHigh_PrimaryNearNudgePullsEstimateTowardPrimary(t *testing.T) {
	e := &Engine{}
	forecast := 76.0 // within 2F of primary 75, triggers the nudge

	est := e.estimateTodayHigh("nyc", 75.0, 75.0, &forecast, nil, 3)

	assert.NotEqual(t, 76.0, est.MeanF)
}

func TestEstimateTodayHigh_SurroundingDeltaPullsEstimateUp(t *testing.T) {
	e := &Engine{}
	forecast := 70.0

	withoutDelta := e.estimateTodayHigh("nyc", 70.0, 70.0, &forecast, nil, 3)
	withDelta := e.estimateTodayHigh("nyc", 70.0, 74.0, &forecast, nil, 3)

	assert.Greater(t, withDelta.MeanF, withoutDelta.MeanF)
}

func TestEstimateTodayHigh_BiasAppliesAdditively(t *testing.T) {
	SetCalibration("biastest-high", 2.5, 0, 0)
	e := &Engine{}
	forecast := 70.0

	base := e.estimateTodayHigh("nowhere-high", 70.0, 70.0, &forecast, nil, 3)
	biased := e.estimateTodayHigh("biastest-high", 70.0, 70.0, &forecast, nil, 3)

	assert.InDelta(t, base.MeanF+2.5, biased.MeanF, 0.001)
}

func TestEstimateTodayLow_RoundingBufferCapsEstimateAtRunningLowMinusOne(t *testing.T) {
	e := &Engine{}
	runningLow := 40.0

	est := e.estimateTodayLow("nyc", 45.0, 45.0, nil, &runningLow, 3, 0, "")

	assert.LessOrEqual(t, est.MeanF, 39.0)
}

func TestEstimateTodayLow_RunningLowBelowEstimateLiftsConfidence(t *testing.T) {
	e := &Engine{}
	runningLow := 30.0
	forecast := 40.0

	est := e.estimateTodayLow("nyc", 32.0, 32.0, &forecast, &runningLow, 3, 0, "")

	assert.InDelta(t, 0.6, est.Confidence-confidenceHourBump(), 1e-9)
}

func TestEstimateTodayLow_ClearAndCalmCoolsEstimate(t *testing.T) {
	e := &Engine{}
	forecast := 40.0

	calm := e.estimateTodayLow("nyc", 40.0, 40.0, &forecast, nil, 3, 5.0, "CLR")
	neutral := e.estimateTodayLow("nyc", 40.0, 40.0, &forecast, nil, 3, 5.0, "SCT")

	assert.InDelta(t, neutral.MeanF-1.5, calm.MeanF, 0.001)
}

func TestEstimateTodayLow_CloudyAndWindyWarmsEstimate(t *testing.T) {
	e := &Engine{}
	// primaryT held above the adjusted estimate so the overnight
	// primaryT-override branch never fires regardless of wall-clock hour.
	forecast := 40.0

	windy := e.estimateTodayLow("nyc", 50.0, 50.0, &forecast, nil, 3, 15.0, "OVC")
	neutral := e.estimateTodayLow("nyc", 50.0, 50.0, &forecast, nil, 3, 15.0, "SCT")

	assert.InDelta(t, neutral.MeanF+1.5, windy.MeanF, 0.001)
}

func TestEstimateTodayLow_ClearButWindyDoesNotCool(t *testing.T) {
	e := &Engine{}
	forecast := 40.0

	notCalm := e.estimateTodayLow("nyc", 40.0, 40.0, &forecast, nil, 3, 12.0, "CLR")
	neutral := e.estimateTodayLow("nyc", 40.0, 40.0, &forecast, nil, 3, 12.0, "SCT")

	assert.InDelta(t, neutral.MeanF, notCalm.MeanF, 0.001)
}

func TestEstimateTodayLow_BiasAppliesAdditively(t *testing.T) {
	SetCalibration("biastest-low", 0, -1.5, 0)
	e := &Engine{}
	forecast := 40.0

	base := e.estimateTodayLow("nowhere-low", 40.0, 40.0, &forecast, nil, 3, 0, "")
	biased := e.estimateTodayLow("biastest-low", 40.0, 40.0, &forecast, nil, 3, 0, "")

	assert.InDelta(t, base.MeanF-1.5, biased.MeanF, 0.001)
}

func TestIsClearAndCalm_RequiresBothClearSkyAndLowWind(t *testing.T) {
	assert.True(t, isClearAndCalm("CLR", 5))
	assert.True(t, isClearAndCalm("SKC", 7.9))
	assert.False(t, isClearAndCalm("CLR", 8))
	assert.False(t, isClearAndCalm("OVC", 5))
}

func TestIsCloudyAndWindy_RequiresBothOvercastAndHighWind(t *testing.T) {
	assert.True(t, isCloudyAndWindy("OVC", 11))
	assert.True(t, isCloudyAndWindy("BKN", 10.1))
	assert.False(t, isCloudyAndWindy("OVC", 10))
	assert.False(t, isCloudyAndWindy("FEW", 20))
}

// confidenceHourBump isolates the hour-of-day confidence term so the
// running-low test above doesn't have to special-case the test run time.
func confidenceHourBump() float64 {
	hour := etclock.HourET(time.Now())
	switch {
	case hour >= 12 && hour < 16:
		return 0.2
	case hour >= 10 && hour < 18:
		return 0.1
	default:
		return 0
	}
}
