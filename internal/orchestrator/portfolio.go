package orchestrator

import (
	"context"

	"github.com/kalshiwx/sentinel/internal/domain"
)

// AccountValueCents computes A = cash + mark-to-market(open positions), per
// §4.4 step 4. NO positions mark to their liquidation value
// (qty × (100 − yes_bid)); YES positions mark to qty × yes_bid.
func AccountValueCents(ctx context.Context, quotes QuoteSource, cashCents int64, positions []domain.Position) int64 {
	value := cashCents
	for i, p := range positions {
		if p.PositionQtySigned == 0 {
			continue
		}
		if i > 0 {
			if err := sleepSpacing(ctx); err != nil {
				return value
			}
		}
		m, err := quotes.Market(ctx, p.Ticker)
		if err != nil {
			continue
		}
		if p.PositionQtySigned < 0 {
			qty := -p.PositionQtySigned
			value += int64(qty) * int64(100-m.YesBid)
		} else {
			value += int64(p.PositionQtySigned) * int64(m.YesBid)
		}
	}
	return value
}

// UnrealizedPnLCents is mark-to-market value minus cost basis, summed
// across all open positions.
func UnrealizedPnLCents(ctx context.Context, quotes QuoteSource, positions []domain.Position) int64 {
	var pnl int64
	for i, p := range positions {
		if p.PositionQtySigned == 0 {
			continue
		}
		if i > 0 {
			if err := sleepSpacing(ctx); err != nil {
				return pnl
			}
		}
		m, err := quotes.Market(ctx, p.Ticker)
		if err != nil {
			continue
		}
		var value int64
		if p.PositionQtySigned < 0 {
			qty := -p.PositionQtySigned
			value = int64(qty) * int64(100-m.YesBid)
		} else {
			value = int64(p.PositionQtySigned) * int64(m.YesBid)
		}
		pnl += value - p.MarketExposureCents
	}
	return pnl
}

// OpenExposureCents sums cost basis across every open position, used by the
// risk gate's capital cap in live mode (paper mode sums directly off the
// ledger instead, see internal/paper.OpenExposureCents).
func OpenExposureCents(positions []domain.Position) int64 {
	var total int64
	for _, p := range positions {
		total += p.MarketExposureCents
	}
	return total
}

// ProfitRuleThreshold is §4.4 step 4/§9's authoritative 10% figure — not the
// 80% figure that appears only in a stale docstring in the original source.
const ProfitRuleThreshold = 0.10

// ProfitRuleTriggered reports whether the whole-portfolio unrealized-profit
// trigger fires this cycle: unrealized P&L ≥ 10% of account value A.
func ProfitRuleTriggered(unrealizedPnLCents, accountValueCents int64) bool {
	if accountValueCents <= 0 {
		return false
	}
	return float64(unrealizedPnLCents) >= ProfitRuleThreshold*float64(accountValueCents)
}

// OpenPositionsInProfit counts positions whose mark-to-market value exceeds
// cost basis, used by §4.4.3's +3 bonus-slot rule.
func OpenPositionsInProfit(ctx context.Context, quotes QuoteSource, positions []domain.Position) int {
	count := 0
	for i, p := range positions {
		if p.PositionQtySigned == 0 {
			continue
		}
		if i > 0 {
			if err := sleepSpacing(ctx); err != nil {
				return count
			}
		}
		m, err := quotes.Market(ctx, p.Ticker)
		if err != nil {
			continue
		}
		var value int64
		if p.PositionQtySigned < 0 {
			qty := -p.PositionQtySigned
			value = int64(qty) * int64(100-m.YesBid)
		} else {
			value = int64(p.PositionQtySigned) * int64(m.YesBid)
		}
		if value > p.MarketExposureCents {
			count++
		}
	}
	return count
}
