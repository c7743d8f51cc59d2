package estimation

import "sync"

var calibrationMu sync.RWMutex

// HighBiases are per-city static bias corrections for today's high estimate,
// calibrated from historical residuals (§4.2 step 5). Values are additive
// degrees Fahrenheit.
var HighBiases = map[string]float64{
	"MIA": 5.0,
	"ATL": 5.0,
	"NYC": 3.0,
	"DC":  2.5,
	"BOS": 2.0,
	"PHI": 2.5,
}

// LowBiases are per-city static bias corrections for today's low estimate.
var LowBiases = map[string]float64{
	"MIA": 2.0,
	"ATL": 2.0,
	"NYC": 1.5,
	"DC":  1.5,
	"BOS": 1.0,
	"PHI": 1.0,
}

// CityFloor is the minimum σ (standard deviation) used when pricing
// settlement probability for a city (§4.2 step 8).
var CityFloor = map[string]float64{
	"ATL": 5.0,
	"MIA": 4.5,
	"NYC": 3.5,
	"DC":  3.5,
	"BOS": 2.5,
	"PHI": 2.5,
}

func biasFor(table map[string]float64, city string) float64 {
	calibrationMu.RLock()
	defer calibrationMu.RUnlock()
	if v, ok := table[city]; ok {
		return v
	}
	return 0
}

func floorFor(city string, configuredFloor float64) float64 {
	if configuredFloor > 0 {
		return configuredFloor
	}
	calibrationMu.RLock()
	defer calibrationMu.RUnlock()
	if v, ok := CityFloor[city]; ok {
		return v
	}
	return 3.5
}

// SetCalibration overwrites one city's bias/floor parameters in place, used
// by internal/backtest's nightly recalibration job. Guarded by the same
// mutex biasFor/floorFor read under, since the scheduler's cron goroutine
// and the orchestrator cycle's goroutine run concurrently against these
// package-level tables.
func SetCalibration(city string, highBias, lowBias, floor float64) {
	calibrationMu.Lock()
	defer calibrationMu.Unlock()
	HighBiases[city] = highBias
	LowBiases[city] = lowBias
	CityFloor[city] = floor
}
