package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhi_StandardNormalMidpoint(t *testing.T) {
	assert.InDelta(t, 0.5, phi(0), 0.0001)
}

func TestClampProb_ClampsToBounds(t *testing.T) {
	assert.Equal(t, 0.01, clampProb(-5))
	assert.Equal(t, 0.99, clampProb(5))
	assert.InDelta(t, 0.5, clampProb(0.5), 0.0001)
}

func TestPriceFromProb_RoundsToCents(t *testing.T) {
	assert.Equal(t, 50, priceFromProb(0.5))
	assert.Equal(t, 1, priceFromProb(0.001))
	assert.Equal(t, 99, priceFromProb(0.999))
}
