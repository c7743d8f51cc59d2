package orchestrator

import (
	"context"
	"math/rand"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/risk"
	"github.com/rs/zerolog"
)

const (
	maxOrdersPerCycle    = 3
	maxBracketsPerEvent  = 2
	defaultPerTickerCap  = 50
)

// ExecutionState bundles the per-cycle snapshot the risk gate evaluates
// against, and is mutated in place as signals execute so each subsequent
// signal in the cycle sees the effect of the ones before it (new exposure,
// new dedup positions, a higher today-trade count) without re-querying the
// store mid-cycle.
type ExecutionState struct {
	KillSwitch          bool
	CapitalCapFraction  float64
	AccountValueCents   int64
	OpenExposureCents   int64
	TodayTradeCount     int
	EffectiveMaxTrades  int
	MinEdgeModelPct     float64
	MinEdgeLockinPct    float64
	PerTickerCap        int
	ExistingPositions   []risk.OpenPosition
	MinEntryPriceCents  int
	BalanceCents        int64
	MaxPositionPct      float64
}

// ExecuteSignals implements §4.4 step 10: at most 3 orders per cycle, at
// most 2 brackets per event, running every candidate through the risk gate
// and sizer in priority order. Returns the trades that were accepted and
// placed.
func ExecuteSignals(
	ctx context.Context,
	state *ExecutionState,
	sigs []domain.Signal,
	opener TradeOpener,
	rnd *rand.Rand,
	now time.Time,
	log zerolog.Logger,
) []domain.Trade {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(now.UnixNano()))
	}

	perTickerCap := state.PerTickerCap
	if perTickerCap <= 0 {
		perTickerCap = defaultPerTickerCap
	}

	ordersPlaced := 0
	bracketsPerEvent := make(map[string]map[string]bool)
	var executed []domain.Trade

	for _, s := range sigs {
		if ordersPlaced >= maxOrdersPerCycle {
			break
		}

		brackets := bracketsPerEvent[s.EventTicker]
		if brackets == nil {
			brackets = make(map[string]bool)
			bracketsPerEvent[s.EventTicker] = brackets
		}
		if !brackets[s.MarketTicker] && len(brackets) >= maxBracketsPerEvent {
			log.Info().Str("ticker", s.MarketTicker).Str("event", s.EventTicker).Msg("skipping signal: bracket-per-event cap reached")
			continue
		}

		existingOnTicker := 0
		for _, p := range state.ExistingPositions {
			if p.Ticker == s.MarketTicker {
				existingOnTicker += p.Contracts
			}
		}

		stackMult := risk.StackMultiplier(s)
		priceForSizing := s.SuggestedPriceCents
		if s.Side == domain.SideNo {
			priceForSizing = s.MarketYesPriceCents
		}
		contracts := risk.Size(risk.SizingInput{
			Side:               s.Side,
			PriceCents:         priceForSizing,
			StackMultiplier:    stackMult,
			MinEntryPriceCents: state.MinEntryPriceCents,
			BalanceCents:       state.BalanceCents,
			MaxPositionPct:     state.MaxPositionPct,
		}, rnd)

		outcome := risk.Evaluate(risk.GateInput{
			Signal:                    s,
			Contracts:                 contracts,
			KillSwitch:                state.KillSwitch,
			PerTickerCap:              perTickerCap,
			ExistingContractsOnTicker: existingOnTicker,
			OpenExposureCents:         state.OpenExposureCents,
			AccountValueCents:         state.AccountValueCents,
			CapitalCapFraction:        state.CapitalCapFraction,
			TodayTradeCount:           state.TodayTradeCount,
			EffectiveMaxTrades:        state.EffectiveMaxTrades,
			MinEdgeModelPct:           state.MinEdgeModelPct,
			MinEdgeLockinPct:          state.MinEdgeLockinPct,
			ExistingPositions:         state.ExistingPositions,
		})

		if !outcome.Accepted {
			log.Info().Str("ticker", s.MarketTicker).Str("layer", outcome.Layer).Str("reason", outcome.Reason).Msg("signal rejected by risk gate")
			continue
		}

		trade := domain.Trade{
			Ticker:          s.MarketTicker,
			EventTicker:     s.EventTicker,
			City:            s.City,
			MarketType:      s.MarketType,
			Side:            s.Side,
			Contracts:       contracts,
			EntryPriceCents: s.SuggestedPriceCents,
			SignalSource:    s.SignalSource,
			Confidence:      &s.Confidence,
			EdgePct:         &s.EdgePct,
			CreatedAt:       now,
		}

		if err := opener.Open(ctx, trade); err != nil {
			log.Warn().Err(err).Str("ticker", s.MarketTicker).Msg("failed to place order")
			continue
		}

		executed = append(executed, trade)
		ordersPlaced++
		brackets[s.MarketTicker] = true
		state.TodayTradeCount++
		state.OpenExposureCents += int64(trade.EntryPriceCents) * int64(contracts)
		state.ExistingPositions = append(state.ExistingPositions, risk.OpenPosition{
			Ticker: s.MarketTicker, Side: s.Side, Contracts: contracts,
		})
	}

	return executed
}
