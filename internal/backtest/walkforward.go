package backtest

import (
	"sort"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/rs/zerolog"
)

// SweepParams mirrors backtest_advanced.py's parameter grid. Only MinEdgePct
// filters trades in scoreParams; Sigma and MarginOfSafety are carried in the
// grid and the results but are not applied when scoring.
type SweepParams struct {
	Sigma         float64
	MinEdgePct    float64
	MarginOfSafety float64
}

// SweepResult scores one parameter combination against a set of settled
// trades.
type SweepResult struct {
	Params   SweepParams
	Trades   int
	Wins     int
	WinRatePct float64
	PnLCents int
}

// defaultGrid reproduces backtest_advanced.py's walk_forward_optimization
// parameter grid.
func defaultGrid() []SweepParams {
	var grid []SweepParams
	for _, sigma := range []float64{2.0, 2.5, 3.0, 3.5, 4.0, 5.0} {
		for _, edge := range []float64{5, 10, 15, 20, 30} {
			for _, mos := range []float64{0, 5, 10} {
				grid = append(grid, SweepParams{Sigma: sigma, MinEdgePct: edge, MarginOfSafety: mos})
			}
		}
	}
	return grid
}

// WalkForward re-scores every historical settled trade under each candidate
// parameter set, splitting the history into sequential train/test windows
// (60% train / 20% test, sliding by the test window), mirroring
// backtest_advanced.py's walk_forward_optimization. It falls back to a
// single full-history sweep when there isn't enough settled history to form
// a single window, exactly as the original does for a cold-started agent.
type WalkForward struct {
	Trades *journal.TradeRepository
	Log    zerolog.Logger
}

// WindowResult reports one walk-forward window's chosen parameters and its
// out-of-sample performance.
type WindowResult struct {
	TrainFrom, TrainTo time.Time
	TestFrom, TestTo   time.Time
	Best               SweepParams
	TrainPnLCents      int
	OOSTrades          int
	OOSPnLCents        int
	OOSWinRatePct      float64
}

// Run loads every settled trade since `since` and either walk-forward
// optimizes (enough distinct trading days) or sweeps the whole history once.
func (w *WalkForward) Run(since time.Time) ([]WindowResult, []SweepResult, error) {
	trades, err := w.Trades.Settled(since)
	if err != nil {
		return nil, nil, err
	}

	days := distinctDays(trades)
	if len(days) < 7 {
		w.Log.Info().Int("days", len(days)).Msg("insufficient history for walk-forward, running full-history sweep")
		return nil, sweep(trades, defaultGrid()), nil
	}

	trainSize := maxInt(5, len(days)*6/10)
	testSize := maxInt(2, len(days)*2/10)
	step := maxInt(1, testSize)

	var windows []WindowResult
	grid := defaultGrid()
	for i := 0; i+trainSize+testSize <= len(days); i += step {
		trainDays := days[i : i+trainSize]
		testDays := days[i+trainSize : i+trainSize+testSize]

		trainTrades := tradesOnDays(trades, trainDays)
		testTrades := tradesOnDays(trades, testDays)

		best := bestOf(sweep(trainTrades, grid))

		oos := scoreParams(testTrades, best.Params)
		windows = append(windows, WindowResult{
			TrainFrom: trainDays[0], TrainTo: trainDays[len(trainDays)-1],
			TestFrom: testDays[0], TestTo: testDays[len(testDays)-1],
			Best:          best.Params,
			TrainPnLCents: best.PnLCents,
			OOSTrades:     oos.Trades,
			OOSPnLCents:   oos.PnLCents,
			OOSWinRatePct: oos.WinRatePct,
		})
	}
	return windows, nil, nil
}

func sweep(trades []domain.Trade, grid []SweepParams) []SweepResult {
	results := make([]SweepResult, 0, len(grid))
	for _, p := range grid {
		results = append(results, scoreParams(trades, p))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].PnLCents > results[j].PnLCents })
	return results
}

// scoreParams replays history under params p: a trade "would have been
// taken" if its recorded edge at entry meets p.MinEdgePct, using the edge
// actually logged on the trade row
// rather than resimulating the estimation engine from scratch (the
// settlement-time edge/our_prob fields already capture what the signal
// generator computed live).
func scoreParams(trades []domain.Trade, p SweepParams) SweepResult {
	var r SweepResult
	r.Params = p
	for _, t := range trades {
		if t.EdgePct == nil || *t.EdgePct < p.MinEdgePct {
			continue
		}
		if t.PnLCents == nil {
			continue
		}
		r.Trades++
		r.PnLCents += *t.PnLCents
		if *t.PnLCents > 0 {
			r.Wins++
		}
	}
	if r.Trades > 0 {
		r.WinRatePct = float64(r.Wins) / float64(r.Trades) * 100.0
	}
	return r
}

func bestOf(results []SweepResult) SweepResult {
	if len(results) == 0 {
		return SweepResult{}
	}
	return results[0]
}

func distinctDays(trades []domain.Trade) []time.Time {
	seen := map[string]time.Time{}
	for _, t := range trades {
		key := t.CreatedAt.Format("2006-01-02")
		if _, ok := seen[key]; !ok {
			day, _ := time.Parse("2006-01-02", key)
			seen[key] = day
		}
	}
	out := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func tradesOnDays(trades []domain.Trade, days []time.Time) []domain.Trade {
	daySet := map[string]bool{}
	for _, d := range days {
		daySet[d.Format("2006-01-02")] = true
	}
	var out []domain.Trade
	for _, t := range trades {
		if daySet[t.CreatedAt.Format("2006-01-02")] {
			out = append(out, t)
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
