package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/kalshiwx/sentinel/internal/paper"
)

// PaperAdapter implements PositionSource, TradeOpener, and TradeCloser
// against the shadow ledger (§4.6), so the orchestrator runs identical
// control-flow code against paper and live accounts.
type PaperAdapter struct {
	Trades *paper.Trades
	Ledger *paper.Ledger
	Repo   *journal.TradeRepository
}

func (a *PaperAdapter) OpenPositions(ctx context.Context) ([]domain.Position, error) {
	return paper.Positions(a.Repo)
}

func (a *PaperAdapter) BalanceCents(ctx context.Context) (int64, error) {
	return a.Ledger.Balance()
}

func (a *PaperAdapter) Open(ctx context.Context, trade domain.Trade) error {
	_, err := a.Trades.Open(trade)
	return err
}

func (a *PaperAdapter) Close(ctx context.Context, ticker string, side domain.Side, qty int, execPriceCents int, yesBidCents int) error {
	// The shadow ledger always credits off yes_bid (§4.6), never the
	// execution price a live sweep would place on the order — this is what
	// keeps paper accounting identical regardless of which sweep
	// (profit-rule liquidation at no_ask, cut-losers/take-profit at no_bid)
	// triggered the close.
	_, err := a.Trades.Close(ticker, side, qty, yesBidCents, time.Now().UTC())
	return err
}

// LiveAdapter implements PositionSource, TradeOpener, and TradeCloser
// against the real exchange account, journaling every fill the same way
// PaperAdapter journals paper fills.
type LiveAdapter struct {
	Exchange domain.ExchangeClient
	Repo     *journal.TradeRepository
}

func (a *LiveAdapter) OpenPositions(ctx context.Context) ([]domain.Position, error) {
	return a.Exchange.Positions(ctx)
}

func (a *LiveAdapter) BalanceCents(ctx context.Context) (int64, error) {
	return a.Exchange.Balance(ctx)
}

func (a *LiveAdapter) Open(ctx context.Context, trade domain.Trade) error {
	order := domain.OrderRequest{
		Ticker:        trade.Ticker,
		Action:        domain.ActionBuy,
		Side:          trade.Side,
		Count:         trade.Contracts,
		Type:          domain.OrderTypeLimit,
		ClientOrderID: uuid.NewString(),
	}
	price := trade.EntryPriceCents
	if trade.Side == domain.SideYes {
		order.YesPriceCents = &price
	} else {
		order.NoPriceCents = &price
	}

	if _, err := a.Exchange.PlaceOrder(ctx, order); err != nil {
		return fmt.Errorf("placing live order for %s: %w", trade.Ticker, err)
	}

	trade.CreatedAt = time.Now().UTC()
	_, err := a.Repo.Create(trade)
	return err
}

// Close implements TradeCloser for live positions, always issuing the §8
// property-1 invariant order shape: action=sell, side matching the held
// side. qty and side are callers' derived CloseOrder fields, never
// recomputed here, so the invariant traces to a single call site
// (deriveClose) in liquidation.go.
func (a *LiveAdapter) Close(ctx context.Context, ticker string, side domain.Side, qty int, execPriceCents int, yesBidCents int) error {
	order := domain.OrderRequest{
		Ticker:        ticker,
		Action:        domain.ActionSell,
		Side:          side,
		Count:         qty,
		Type:          domain.OrderTypeLimit,
		ClientOrderID: uuid.NewString(),
	}
	if side == domain.SideYes {
		order.YesPriceCents = &execPriceCents
	} else {
		order.NoPriceCents = &execPriceCents
	}

	if _, err := a.Exchange.PlaceOrder(ctx, order); err != nil {
		return fmt.Errorf("placing live close order for %s: %w", ticker, err)
	}

	rows, err := a.Repo.OpenByTickerSide(ticker, side)
	if err != nil {
		return err
	}

	remaining := qty
	now := time.Now().UTC()
	for _, row := range rows {
		if remaining <= 0 {
			break
		}
		closeAmt := row.Contracts
		if closeAmt > remaining {
			closeAmt = remaining
		}
		// Realized pnl is booked off yesBidCents, not the order's execution
		// price, so a live trade's journal entry and its paper shadow agree
		// bit-for-bit on the same quote (§4.6).
		var pnlPerContract int
		if side == domain.SideNo {
			pnlPerContract = (100 - yesBidCents) - row.EntryPriceCents
		} else {
			pnlPerContract = yesBidCents - row.EntryPriceCents
		}
		pnl := pnlPerContract * closeAmt
		result := domain.SettlementClosed
		if pnl > 0 {
			result = domain.SettlementWin
		} else if pnl < 0 {
			result = domain.SettlementLoss
		}
		if err := a.Repo.ClosePortion(row, closeAmt, result, pnl, now); err != nil {
			return err
		}
		remaining -= closeAmt
	}

	return nil
}
