package backtest

import (
	"testing"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestKellyFraction_ZeroAvgLoss(t *testing.T) {
	assert.Equal(t, 0.0, kellyFraction(0.6, 100, 0))
}

func TestKellyFraction_StandardCase(t *testing.T) {
	// b = 1, p = 0.6, q = 0.4 -> (1*0.6 - 0.4)/1 = 0.2
	f := kellyFraction(0.6, 100, 100)
	assert.InDelta(t, 0.2, f, 1e-9)
}

func TestKellyRisk_ClampsToBankroll(t *testing.T) {
	risk := kellyRisk(100, 5.0) // absurdly large kelly fraction
	assert.Equal(t, 100, risk)
}

func TestKellyRisk_NeverZero(t *testing.T) {
	risk := kellyRisk(100, 0)
	assert.Equal(t, 1, risk)
}

func TestMedianInt_OddAndEven(t *testing.T) {
	assert.Equal(t, 3, medianInt([]int{5, 1, 3}))
	assert.Equal(t, 0, medianInt(nil))
}

func TestSplitWinsLosses(t *testing.T) {
	win, loss := 100, -50
	trades := []domain.Trade{
		{PnLCents: &win},
		{PnLCents: &loss},
		{PnLCents: nil},
	}

	wins, losses := splitWinsLosses(trades)

	assert.Equal(t, []int{100}, wins)
	assert.Equal(t, []int{-50}, losses)
}

func TestRunMonteCarlo_DeterministicAcrossRuns(t *testing.T) {
	win, loss := 80, -60
	trades := []domain.Trade{
		{PnLCents: &win}, {PnLCents: &win}, {PnLCents: &win},
		{PnLCents: &loss}, {PnLCents: &loss},
	}
	cfg := MonteCarloConfig{StartingBankrollCents: 10000, Simulations: 200, TradesPerPath: 50, Seed: 7}

	first := RunMonteCarlo(trades, cfg)
	second := RunMonteCarlo(trades, cfg)

	assert.Equal(t, first, second)
	assert.InDelta(t, 60.0, first.WinRatePct, 0.1)
}

func TestRunMonteCarlo_FallsBackToParametricWithNoHistory(t *testing.T) {
	cfg := DefaultMonteCarloConfig()
	cfg.Simulations = 50
	cfg.TradesPerPath = 10

	result := RunMonteCarlo(nil, cfg)

	assert.Equal(t, 72.0, result.WinRatePct)
}
