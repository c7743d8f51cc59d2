package backtest

import (
	"testing"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func tradeAt(createdAt time.Time, edgePct float64, pnlCents int) domain.Trade {
	edge := edgePct
	pnl := pnlCents
	return domain.Trade{CreatedAt: createdAt, EdgePct: &edge, PnLCents: &pnl}
}

func TestScoreParams_FiltersByMinEdge(t *testing.T) {
	now := time.Now().UTC()
	trades := []domain.Trade{
		tradeAt(now, 20, 100),
		tradeAt(now, 5, -50),
	}

	result := scoreParams(trades, SweepParams{MinEdgePct: 15})

	assert.Equal(t, 1, result.Trades)
	assert.Equal(t, 100, result.PnLCents)
	assert.Equal(t, 1, result.Wins)
	assert.Equal(t, 100.0, result.WinRatePct)
}

func TestScoreParams_NoQualifyingTrades(t *testing.T) {
	now := time.Now().UTC()
	trades := []domain.Trade{tradeAt(now, 5, 100)}

	result := scoreParams(trades, SweepParams{MinEdgePct: 15})

	assert.Equal(t, 0, result.Trades)
	assert.Equal(t, 0.0, result.WinRatePct)
}

func TestDistinctDays_DedupsAndSorts(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []domain.Trade{
		tradeAt(base.Add(48*time.Hour), 10, 1),
		tradeAt(base, 10, 1),
		tradeAt(base.Add(5*time.Hour), 10, 1), // same day as base
	}

	days := distinctDays(trades)

	assert.Len(t, days, 2)
	assert.True(t, days[0].Before(days[1]))
}

func TestBestOf_EmptyResults(t *testing.T) {
	assert.Equal(t, SweepResult{}, bestOf(nil))
}

func TestSweep_SortsByPnLDescending(t *testing.T) {
	now := time.Now().UTC()
	trades := []domain.Trade{
		tradeAt(now, 50, 500),
	}
	grid := []SweepParams{
		{MinEdgePct: 60}, // excludes the trade -> 0 pnl
		{MinEdgePct: 10}, // includes it -> 500 pnl
	}

	results := sweep(trades, grid)

	assert.Equal(t, 500, results[0].PnLCents)
}

func TestDefaultGrid_MatchesExpectedSize(t *testing.T) {
	// 6 sigmas x 5 edges x 3 margins, mirroring backtest_advanced.py's grid.
	assert.Len(t, defaultGrid(), 6*5*3)
}
