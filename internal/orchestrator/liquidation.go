package orchestrator

import (
	"context"
	"time"

	"github.com/kalshiwx/sentinel/internal/apperrors"
	"github.com/kalshiwx/sentinel/internal/domain"
)

// marketLookupSpacing paces repeated per-position quote lookups in a hot
// loop, on top of the client's own authenticated-call rate limit.
const marketLookupSpacing = 150 * time.Millisecond

// sleepSpacing waits marketLookupSpacing between successive per-position
// quote lookups, returning early with ctx.Err() if the cycle is cancelled.
func sleepSpacing(ctx context.Context) error {
	select {
	case <-time.After(marketLookupSpacing):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QuoteSource is the subset of the exchange client liquidation/sweeps need:
// a single current-quote lookup.
type QuoteSource interface {
	Market(ctx context.Context, ticker string) (domain.Market, error)
}

// CloseOrder is the fully-derived close instruction for one position. It
// exists as its own type so the §8 property-1 invariant — a close is always
// action=sell with side matching the held side, never action=buy — is
// enforced at construction time rather than left to call-site discipline.
type CloseOrder struct {
	Ticker      string
	Action      domain.Action
	Side        domain.Side
	Count       int
	PriceCents  int // execution price placed on the order
	YesBidCents int // yes_bid quote at derivation time, for paper accounting
}

// deriveClose builds the close order for a position, asserting the §8
// invariant. A YES position (positive qty) closes by selling YES; a NO
// position (negative qty) closes by selling NO. Action is always sell.
func deriveClose(p domain.Position, priceCents, yesBidCents int) (CloseOrder, error) {
	switch {
	case p.PositionQtySigned > 0:
		return CloseOrder{Ticker: p.Ticker, Action: domain.ActionSell, Side: domain.SideYes, Count: p.PositionQtySigned, PriceCents: priceCents, YesBidCents: yesBidCents}, nil
	case p.PositionQtySigned < 0:
		return CloseOrder{Ticker: p.Ticker, Action: domain.ActionSell, Side: domain.SideNo, Count: -p.PositionQtySigned, PriceCents: priceCents, YesBidCents: yesBidCents}, nil
	default:
		return CloseOrder{}, apperrors.Wrap(apperrors.ErrInvariant, "cannot derive a close order for a flat position "+p.Ticker, nil)
	}
}

// LiquidateWinningPositions implements §4.4.5: for each position, price it
// live; close only the ones currently profitable, at the side-appropriate
// quote. For NO, closing means buying back cheaper than the cost received
// per contract (no_ask < exposure/|qty|); for YES, it means the bid is
// above cost (yes_bid > exposure/qty). Everything else is left open.
func LiquidateWinningPositions(ctx context.Context, quotes QuoteSource, closer TradeCloser, positions []domain.Position) ([]CloseOrder, error) {
	var issued []CloseOrder

	for i, p := range positions {
		if p.PositionQtySigned == 0 {
			continue
		}

		if i > 0 {
			if err := sleepSpacing(ctx); err != nil {
				return issued, nil
			}
		}

		m, err := quotes.Market(ctx, p.Ticker)
		if err != nil {
			continue // per §7 TransientIO: skip this unit, never abort the sweep
		}

		var profitable bool
		var closePrice int
		if p.PositionQtySigned < 0 {
			qty := -p.PositionQtySigned
			costPerContract := float64(p.MarketExposureCents) / float64(qty)
			profitable = float64(m.NoAsk) < costPerContract
			closePrice = m.NoAsk
		} else {
			costPerContract := float64(p.MarketExposureCents) / float64(p.PositionQtySigned)
			profitable = float64(m.YesBid) > costPerContract
			closePrice = m.YesBid
		}

		if !profitable {
			continue
		}

		order, err := deriveClose(p, closePrice, m.YesBid)
		if err != nil {
			return issued, err
		}

		if err := closer.Close(ctx, order.Ticker, order.Side, order.Count, order.PriceCents, order.YesBidCents); err != nil {
			continue
		}
		issued = append(issued, order)
	}

	return issued, nil
}

// CutLosers implements §4.4: a position whose unrealized loss is at least
// 42% of its cost basis is closed if a usable bid (>= 2c) exists on the
// side that closes it.
func CutLosers(ctx context.Context, quotes QuoteSource, closer TradeCloser, positions []domain.Position) ([]CloseOrder, error) {
	const lossThreshold = 0.42
	const minBid = 2

	var issued []CloseOrder

	for i, p := range positions {
		if p.PositionQtySigned == 0 || p.MarketExposureCents <= 0 {
			continue
		}

		if i > 0 {
			if err := sleepSpacing(ctx); err != nil {
				return issued, nil
			}
		}

		m, err := quotes.Market(ctx, p.Ticker)
		if err != nil {
			continue
		}

		var valueNow, bid int
		var qty int
		if p.PositionQtySigned < 0 {
			qty = -p.PositionQtySigned
			bid = m.NoBid
			valueNow = qty * bid
		} else {
			qty = p.PositionQtySigned
			bid = m.YesBid
			valueNow = qty * bid
		}

		lossFrac := (float64(p.MarketExposureCents) - float64(valueNow)) / float64(p.MarketExposureCents)
		if lossFrac < lossThreshold || bid < minBid {
			continue
		}

		order, err := deriveClose(p, bid, m.YesBid)
		if err != nil {
			return issued, err
		}
		if err := closer.Close(ctx, order.Ticker, order.Side, order.Count, order.PriceCents, order.YesBidCents); err != nil {
			continue
		}
		issued = append(issued, order)
	}

	return issued, nil
}

// TakeProfits implements the §4.4 take-profit sweep: a position whose gain
// from cost basis is at or above takeProfitPct closes at the prevailing bid
// on the side that closes it.
func TakeProfits(ctx context.Context, quotes QuoteSource, closer TradeCloser, positions []domain.Position, takeProfitPct float64) ([]CloseOrder, error) {
	var issued []CloseOrder

	for i, p := range positions {
		if p.PositionQtySigned == 0 || p.MarketExposureCents <= 0 {
			continue
		}

		if i > 0 {
			if err := sleepSpacing(ctx); err != nil {
				return issued, nil
			}
		}

		m, err := quotes.Market(ctx, p.Ticker)
		if err != nil {
			continue
		}

		var valueNow int
		var qty int
		var bid int
		if p.PositionQtySigned < 0 {
			qty = -p.PositionQtySigned
			bid = m.NoBid
			valueNow = qty * bid
		} else {
			qty = p.PositionQtySigned
			bid = m.YesBid
			valueNow = qty * bid
		}

		gainPct := (float64(valueNow) - float64(p.MarketExposureCents)) / float64(p.MarketExposureCents) * 100.0
		if gainPct < takeProfitPct || bid <= 0 {
			continue
		}

		order, err := deriveClose(p, bid, m.YesBid)
		if err != nil {
			return issued, err
		}
		if err := closer.Close(ctx, order.Ticker, order.Side, order.Count, order.PriceCents, order.YesBidCents); err != nil {
			continue
		}
		issued = append(issued, order)
	}

	return issued, nil
}
