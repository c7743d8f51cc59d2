package journal

import (
	"testing"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	sentinelTesting "github.com/kalshiwx/sentinel/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeRepository_CreateAndSettled(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	repo := NewTradeRepository(db.Conn(), zerolog.Nop())
	now := time.Now().UTC()

	old := sentinelTesting.NewTradeFixture("nyc", domain.MarketTypeHigh, 100, 20, now.Add(-10*24*time.Hour))
	recent := sentinelTesting.NewTradeFixture("nyc", domain.MarketTypeHigh, -50, 12, now.Add(-1*time.Hour))

	_, err := repo.Create(old)
	require.NoError(t, err)
	_, err = repo.Create(recent)
	require.NoError(t, err)

	settled, err := repo.Settled(now.Add(-5 * 24 * time.Hour))
	require.NoError(t, err)

	require.Len(t, settled, 1)
	assert.Equal(t, -50, *settled[0].PnLCents)
}

func TestTradeRepository_OpenByTickerSide_ExcludesSettled(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	repo := NewTradeRepository(db.Conn(), zerolog.Nop())
	now := time.Now().UTC()

	settled := sentinelTesting.NewTradeFixture("denver", domain.MarketTypeLow, 10, 15, now)
	settled.Ticker = "DENVER-LOWTEMP"

	open := settled
	open.Settled = false
	open.SettlementResult = nil
	open.PnLCents = nil
	open.SettledAt = nil

	_, err := repo.Create(settled)
	require.NoError(t, err)
	_, err = repo.Create(open)
	require.NoError(t, err)

	rows, err := repo.OpenByTickerSide("DENVER-LOWTEMP", domain.SideYes)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.False(t, rows[0].Settled)
}

func TestTradeRepository_CountToday(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	repo := NewTradeRepository(db.Conn(), zerolog.Nop())
	now := time.Now().UTC()
	trade := sentinelTesting.NewTradeFixture("miami", domain.MarketTypeHigh, 10, 10, now)
	_, err := repo.Create(trade)
	require.NoError(t, err)

	count, err := repo.CountToday(now.Format("2006-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
