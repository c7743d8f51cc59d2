package backtest

import (
	"testing"
	"time"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
	sentinelTesting "github.com/kalshiwx/sentinel/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBacktester_Run_ProducesFullHistorySweepWhenSparse(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	trades := journal.NewTradeRepository(db.Conn(), zerolog.Nop())
	predictions := journal.NewPredictionRepository(db.Conn(), zerolog.Nop())
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		trade := sentinelTesting.NewTradeFixture("nyc", domain.MarketTypeHigh, 75, 18, now.Add(-time.Duration(i)*24*time.Hour))
		_, err := trades.Create(trade)
		require.NoError(t, err)
	}

	cfg := &cfgdomain.Config{Cities: map[string]cfgdomain.CityConfig{"nyc": {FloorF: 32}}}
	bt := &Backtester{Trades: trades, Predictions: predictions, DomainCfg: cfg, Log: zerolog.Nop()}

	report, err := bt.Run()
	require.NoError(t, err)

	assert.Empty(t, report.Windows, "fewer than 7 distinct days should skip windowed walk-forward")
	assert.NotEmpty(t, report.FullSweep)
	// every fixture trade is a winner, so there's nothing to bootstrap losses
	// from and RunMonteCarlo falls back to the cold-start parametric mode.
	assert.Equal(t, 72.0, report.MonteCarlo.WinRatePct)
}
