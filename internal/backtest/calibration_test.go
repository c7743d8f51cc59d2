package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOlsInterceptSlope_FlatErrors(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{2.0, 2.0, 2.0, 2.0, 2.0}

	intercept, slope := olsInterceptSlope(x, y)

	assert.InDelta(t, 2.0, intercept, 1e-9)
	assert.InDelta(t, 0.0, slope, 1e-9)
}

func TestOlsInterceptSlope_DetectsDrift(t *testing.T) {
	// error grows by exactly 1 per day starting at 0.
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{0, 1, 2, 3, 4}

	intercept, slope := olsInterceptSlope(x, y)

	assert.InDelta(t, 0.0, intercept, 1e-9)
	assert.InDelta(t, 1.0, slope, 1e-9)
}

func TestRecommendedSigma_ClampsToFloor(t *testing.T) {
	// near-zero spread should clamp up to the 2.5 floor.
	errs := []float64{1.0, 1.0, 1.0, 1.0}
	assert.Equal(t, 2.5, recommendedSigma(errs))
}

func TestRecommendedSigma_ClampsToCeiling(t *testing.T) {
	errs := []float64{-20, 20, -18, 18, -22, 22}
	assert.Equal(t, 6.0, recommendedSigma(errs))
}

func TestRecommendedSigma_NoSamples(t *testing.T) {
	assert.Equal(t, 4.0, recommendedSigma(nil))
}

func TestStddev_SingleSample(t *testing.T) {
	assert.Equal(t, 0.0, stddev([]float64{5.0}))
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.0, mean([]float64{1, 2, 3}), 1e-9)
	assert.Equal(t, 0.0, mean(nil))
}
