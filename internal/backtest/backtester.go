package backtest

import (
	"time"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/estimation"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/rs/zerolog"
)

// backtestLookback is how far back the suite pulls settled history from,
// matching the original scripts' typical invocation window.
const backtestLookback = 180 * 24 * time.Hour

// Report bundles every section of the backtesting suite, for
// cmd/sentinel --backtest to render as a single table-based report.
type Report struct {
	Windows    []WindowResult
	FullSweep  []SweepResult
	MonteCarlo MonteCarloResult
	Accuracy   []CityAccuracy
}

// Backtester runs the full suite: walk-forward parameter search, Monte Carlo
// P&L projection, and per-city accuracy scoring, grounded on
// backtest_advanced.py's three top-level sections run back to back.
type Backtester struct {
	Trades      *journal.TradeRepository
	Predictions *journal.PredictionRepository
	DomainCfg   *cfgdomain.Config
	Log         zerolog.Logger
}

func (b *Backtester) Run() (Report, error) {
	since := time.Now().UTC().Add(-backtestLookback)

	wf := &WalkForward{Trades: b.Trades, Log: b.Log}
	windows, fullSweep, err := wf.Run(since)
	if err != nil {
		return Report{}, err
	}

	trades, err := b.Trades.Settled(since)
	if err != nil {
		return Report{}, err
	}
	mc := RunMonteCarlo(trades, DefaultMonteCarloConfig())

	var cities []string
	currentSigma := map[string]float64{}
	for city := range b.DomainCfg.Cities {
		cities = append(cities, city)
		currentSigma[city] = estimation.CityFloor[city]
	}
	accuracy, err := PerCityAccuracy(b.Predictions, cities, currentSigma, since)
	if err != nil {
		return Report{}, err
	}

	return Report{Windows: windows, FullSweep: fullSweep, MonteCarlo: mc, Accuracy: accuracy}, nil
}
