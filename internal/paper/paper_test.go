package paper

import (
	"testing"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
	sentinelTesting "github.com/kalshiwx/sentinel/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_BalanceSeedsDefaultWhenEmpty(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	ledger := NewLedger(db.Conn(), zerolog.Nop())

	balance, err := ledger.Balance()
	require.NoError(t, err)
	assert.Equal(t, startingBalanceCents, balance)
}

func TestLedger_DebitAndCreditAdjustBalance(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	ledger := NewLedger(db.Conn(), zerolog.Nop())

	after, err := ledger.Debit(500)
	require.NoError(t, err)
	assert.Equal(t, startingBalanceCents-500, after)

	after, err = ledger.Credit(200)
	require.NoError(t, err)
	assert.Equal(t, startingBalanceCents-300, after)
}

func TestTrades_OpenDebitsAndCreatesRow(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	repo := journal.NewPaperTradeRepository(db.Conn(), zerolog.Nop())
	ledger := NewLedger(db.Conn(), zerolog.Nop())
	trades := NewTrades(repo, ledger, zerolog.Nop())

	trade := sentinelTesting.NewTradeFixture("nyc", domain.MarketTypeHigh, 0, 20.0, time.Now().UTC())
	trade.Contracts = 4
	trade.EntryPriceCents = 60

	id, err := trades.Open(trade)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	balance, err := ledger.Balance()
	require.NoError(t, err)
	assert.Equal(t, startingBalanceCents-240, balance)
}

func TestTrades_CloseCreditsLedgerAndClosesRow(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	repo := journal.NewPaperTradeRepository(db.Conn(), zerolog.Nop())
	ledger := NewLedger(db.Conn(), zerolog.Nop())
	trades := NewTrades(repo, ledger, zerolog.Nop())

	trade := sentinelTesting.NewTradeFixture("nyc", domain.MarketTypeHigh, 0, 20.0, time.Now().UTC())
	trade.Side = domain.SideNo
	trade.Contracts = 2
	trade.EntryPriceCents = 40
	trade.Settled = false
	trade.SettlementResult = nil
	trade.PnLCents = nil

	_, err := trades.Open(trade)
	require.NoError(t, err)

	pnl, err := trades.Close(trade.Ticker, domain.SideNo, 2, 70, time.Now().UTC())
	require.NoError(t, err)
	// NO close at yes_bid=70 credits (100-70)=30/contract; entry was 40/contract.
	assert.Equal(t, int64(-20), pnl) // (30-40)*2

	open, err := repo.AllOpen()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestPositions_AggregatesSignedQtyAndExposure(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	repo := journal.NewPaperTradeRepository(db.Conn(), zerolog.Nop())

	yes := sentinelTesting.NewTradeFixture("nyc", domain.MarketTypeHigh, 0, 20.0, time.Now().UTC())
	yes.Ticker, yes.Side, yes.Contracts, yes.EntryPriceCents = "NYC-HIGHTEMP-TEST", domain.SideYes, 3, 50
	yes.Settled, yes.SettlementResult, yes.PnLCents = false, nil, nil
	_, err := repo.Create(yes)
	require.NoError(t, err)

	no := sentinelTesting.NewTradeFixture("nyc", domain.MarketTypeHigh, 0, 20.0, time.Now().UTC())
	no.Ticker, no.Side, no.Contracts, no.EntryPriceCents = "NYC-HIGHTEMP-TEST", domain.SideNo, 1, 40
	no.Settled, no.SettlementResult, no.PnLCents = false, nil, nil
	_, err = repo.Create(no)
	require.NoError(t, err)

	positions, err := Positions(repo)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 2, positions[0].PositionQtySigned) // 3 yes - 1 no
	assert.Equal(t, int64(190), positions[0].MarketExposureCents) // 3*50 + 1*40
}
