// Package risk implements the per-signal risk gate (§4.4), the sanity gate
// (§4.4.1), dedup/stacking (§4.4.2), the daily trade cap (§4.4.3), and
// position sizing (§4.4.4). Outcomes are expressed as a typed Accept/Reject
// result rather than an error, mirroring the teacher's TradeSafetyService
// layered-check pattern: each layer independently short-circuits and
// reports exactly which layer blocked the signal.
package risk

import (
	"fmt"

	"github.com/kalshiwx/sentinel/internal/domain"
)

// Outcome is the result of running a signal through the gate.
type Outcome struct {
	Accepted bool
	Reason   string // populated when Accepted is false
	Layer    string // which layer rejected the signal
}

func accept() Outcome { return Outcome{Accepted: true} }

func reject(layer, reason string) Outcome {
	return Outcome{Accepted: false, Layer: layer, Reason: reason}
}

// OpenPosition is the minimal view of an existing position the gate needs.
type OpenPosition struct {
	Ticker    string
	Side      domain.Side
	Contracts int
	Settled   bool
}

// GateInput bundles everything the risk gate evaluates for one candidate signal.
type GateInput struct {
	Signal    domain.Signal
	Contracts int // sized contract count for this candidate

	KillSwitch bool

	PerTickerCap int // default 50
	ExistingContractsOnTicker int

	OpenExposureCents int64
	AccountValueCents int64 // A = cash + mark-to-market(open positions)
	CapitalCapFraction float64 // default 0.40

	TodayTradeCount int
	EffectiveMaxTrades int

	MinEdgeModelPct  float64 // 15
	MinEdgeLockinPct float64 // 1

	ExistingPositions []OpenPosition
}

// Evaluate runs every layer in order and returns the first rejection, or
// Accept if every layer passes.
func Evaluate(in GateInput) Outcome {
	if in.KillSwitch {
		return reject("kill_switch", "global kill switch is engaged")
	}

	sized := in.Contracts
	if sized <= 0 {
		sized = 1
	}
	if in.ExistingContractsOnTicker+sized > in.PerTickerCap {
		return reject("per_ticker_cap", fmt.Sprintf("ticker %s would exceed per-ticker cap of %d", in.Signal.MarketTicker, in.PerTickerCap))
	}

	if in.Signal.Action == domain.ActionBuy && in.Signal.Side == domain.SideYes && in.Signal.SignalSource != domain.SignalSourceMetarLockin {
		return reject("yes_buy_prohibited", "YES buys are prohibited outside metar_lockin")
	}

	if outcome := SanityGate(in.Signal); !outcome.Accepted {
		return outcome
	}

	if outcome := DedupGate(in.Signal, in.ExistingPositions); !outcome.Accepted {
		return outcome
	}

	capFraction := in.CapitalCapFraction
	if capFraction <= 0 {
		capFraction = 0.40
	}
	if in.AccountValueCents > 0 && float64(in.OpenExposureCents) >= capFraction*float64(in.AccountValueCents) {
		return reject("capital_cap", "open exposure at or above capital cap")
	}

	if in.TodayTradeCount >= in.EffectiveMaxTrades {
		return reject("daily_trade_cap", "effective daily trade cap reached")
	}

	minEdge := in.MinEdgeModelPct
	if minEdge <= 0 {
		minEdge = 15
	}
	if in.Signal.SignalSource == domain.SignalSourceMetarLockin {
		minEdge = in.MinEdgeLockinPct
		if minEdge <= 0 {
			minEdge = 1
		}
	}
	if in.Signal.EdgePct < minEdge {
		return reject("min_edge", fmt.Sprintf("edge %.1f%% below minimum %.1f%%", in.Signal.EdgePct, minEdge))
	}

	return accept()
}
