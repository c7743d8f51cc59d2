package paper

import (
	"fmt"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/rs/zerolog"
)

// Trades mirrors orchestrator order placement/closure against paper_trades
// and paper_balance, per §4.6.
type Trades struct {
	repo   *journal.TradeRepository
	ledger *Ledger
	log    zerolog.Logger
}

// NewTrades builds a Trades mirror.
func NewTrades(repo *journal.TradeRepository, ledger *Ledger, log zerolog.Logger) *Trades {
	return &Trades{repo: repo, ledger: ledger, log: log.With().Str("component", "paper-trades").Logger()}
}

// Open debits price*contracts and inserts a new unsettled row.
func (t *Trades) Open(trade domain.Trade) (int64, error) {
	cost := int64(trade.EntryPriceCents) * int64(trade.Contracts)
	if _, err := t.ledger.Debit(cost); err != nil {
		return 0, fmt.Errorf("debiting paper balance for %s: %w", trade.Ticker, err)
	}

	id, err := t.repo.Create(trade)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Close closes up to qty contracts of (ticker, side) using FIFO allocation
// across open rows, crediting the ledger per §3/§8 property 2:
// NO close at observed yes_bid credits contracts × (100 − yes_bid).
// YES close at observed yes_bid credits contracts × yes_bid.
func (t *Trades) Close(ticker string, side domain.Side, qty int, yesBidAtClose int, now time.Time) (int64, error) {
	rows, err := t.repo.OpenByTickerSide(ticker, side)
	if err != nil {
		return 0, err
	}

	remaining := qty
	var totalPnL int64
	var totalCredit int64

	for _, row := range rows {
		if remaining <= 0 {
			break
		}
		closeAmt := row.Contracts
		if closeAmt > remaining {
			closeAmt = remaining
		}

		var creditPerContract int
		var pnlPerContract int
		if side == domain.SideNo {
			creditPerContract = 100 - yesBidAtClose
			pnlPerContract = (100 - yesBidAtClose) - row.EntryPriceCents
		} else {
			creditPerContract = yesBidAtClose
			pnlPerContract = yesBidAtClose - row.EntryPriceCents
		}

		credit := int64(creditPerContract) * int64(closeAmt)
		pnl := int64(pnlPerContract) * int64(closeAmt)

		result := domain.SettlementClosed
		if pnl > 0 {
			result = domain.SettlementWin
		} else if pnl < 0 {
			result = domain.SettlementLoss
		}

		if err := t.repo.ClosePortion(row, closeAmt, result, int(pnl), now); err != nil {
			return 0, err
		}

		totalCredit += credit
		totalPnL += pnl
		remaining -= closeAmt
	}

	if totalCredit > 0 {
		if _, err := t.ledger.Credit(totalCredit); err != nil {
			return 0, fmt.Errorf("crediting paper balance on close of %s: %w", ticker, err)
		}
	}

	return totalPnL, nil
}
