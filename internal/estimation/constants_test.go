package estimation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetCalibration_UpdatesAllThreeTables(t *testing.T) {
	SetCalibration("TST", 1.5, 0.5, 3.0)

	assert.Equal(t, 1.5, biasFor(HighBiases, "TST"))
	assert.Equal(t, 0.5, biasFor(LowBiases, "TST"))
	assert.Equal(t, 3.0, floorFor("TST", 0))
}

func TestFloorFor_ConfiguredFloorWins(t *testing.T) {
	SetCalibration("TST2", 0, 0, 3.0)
	assert.Equal(t, 28.0, floorFor("TST2", 28.0))
}

func TestBiasFor_UnknownCityDefaultsZero(t *testing.T) {
	assert.Equal(t, 0.0, biasFor(HighBiases, "NOWHERE"))
}

// TestCalibration_ConcurrentAccess exercises the mutex added so the
// scheduler's recalibration job and the orchestrator cycle can both touch
// these tables without a data race.
func TestCalibration_ConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetCalibration("NYC", 3.0, 1.5, 3.5)
		}()
		go func() {
			defer wg.Done()
			_ = biasFor(HighBiases, "NYC")
			_ = floorFor("NYC", 0)
		}()
	}
	wg.Wait()
}
