// Package orchestrator implements the per-cycle trading control loop of
// §4.4: jitter, settlement sync, portfolio sweeps, weather ingest, signal
// generation, and execution, each step isolated so a single step's failure
// never aborts the cycle (mirroring the teacher's per-job isolation in
// internal/work/processor.go, generalized from "one job" to "one cycle
// step").
package orchestrator

import (
	"context"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/estimation"
)

// PositionSource abstracts "where do open positions and cash balance come
// from" so the same cycle logic runs against either the paper mirror or the
// live exchange account, per §4.4's "computed from the paper ledger in
// paper mode, from positions+balance in live."
type PositionSource interface {
	OpenPositions(ctx context.Context) ([]domain.Position, error)
	BalanceCents(ctx context.Context) (int64, error)
}

// TradeCloser abstracts closing a position at an observed quote, mirroring
// §4.4.5's close-order invariant identically in paper and live modes.
type TradeCloser interface {
	// Close issues a sell order for qty contracts of (ticker, side).
	// execPriceCents is what actually gets placed on the order (no_ask for
	// the profit-rule liquidation sweep, no_bid for cut-losers/take-profit,
	// yes_bid for any YES close). yesBidCents is the yes_bid quote at the
	// same instant and is what the paper ledger credits against regardless
	// of side, per §4.6's "credit contracts × (100 − yes_bid)" rule — the
	// live order's execution price and the paper mirror's accounting price
	// are allowed to diverge by the bid/ask spread, exactly as a live close
	// and its paper shadow would.
	Close(ctx context.Context, ticker string, side domain.Side, qty int, execPriceCents int, yesBidCents int) error
}

// TradeOpener abstracts placing a new entry order.
type TradeOpener interface {
	Open(ctx context.Context, trade domain.Trade) error
}

// EstimateSource is the subset of the estimation engine the cycle needs.
type EstimateSource interface {
	Estimate(ctx context.Context, city, targetDate string, marketType domain.MarketType) (estimation.Estimate, bool, error)
}

// Clock abstracts "now" so cycle-level jitter/window decisions are testable.
type Clock func() time.Time
