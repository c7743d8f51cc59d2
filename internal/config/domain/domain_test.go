package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Cities: map[string]CityConfig{
			"nyc": {Station: "KNYC", HighSeriesTag: "KXHIGHNY", LowSeriesTag: "KXLOWNY"},
		},
		Risk: RiskConfig{MaxCapitalFraction: 0.40, ProfitRuleFraction: 0.10},
	}
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsNoCities(t *testing.T) {
	cfg := validConfig()
	cfg.Cities = nil
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsCityMissingStation(t *testing.T) {
	cfg := validConfig()
	cfg.Cities["austin"] = CityConfig{HighSeriesTag: "X", LowSeriesTag: "Y"}
	assert.Error(t, cfg.Validate())
}

func TestValidate_SkipsDisabledCityValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Cities["austin"] = CityConfig{} // would fail validation if checked
	cfg.DisabledCities = []string{"austin"}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadCapitalFraction(t *testing.T) {
	cfg := validConfig()
	cfg.Risk.MaxCapitalFraction = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsZeroProfitRuleFraction(t *testing.T) {
	cfg := validConfig()
	cfg.Risk.ProfitRuleFraction = 0
	assert.Error(t, cfg.Validate())
}

func TestActiveCities_ExcludesDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Cities["austin"] = CityConfig{Station: "KAUS", HighSeriesTag: "A", LowSeriesTag: "B"}
	cfg.DisabledCities = []string{"austin"}

	active := cfg.ActiveCities()

	assert.Len(t, active, 1)
	_, ok := active["nyc"]
	assert.True(t, ok)
}

func TestWindowActive_SimpleWindow(t *testing.T) {
	cfg := Config{TradingWindows: []TradingWindow{{Start: 8, End: 18}}}
	assert.True(t, cfg.WindowActive(10))
	assert.False(t, cfg.WindowActive(20))
}

func TestWindowActive_WrapsPastMidnight(t *testing.T) {
	cfg := Config{TradingWindows: []TradingWindow{{Start: 22, End: 2}}}
	assert.True(t, cfg.WindowActive(23))
	assert.True(t, cfg.WindowActive(1))
	assert.False(t, cfg.WindowActive(12))
}
