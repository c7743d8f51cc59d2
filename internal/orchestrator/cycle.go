package orchestrator

import (
	"context"
	"math/rand"
	"time"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/etclock"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/kalshiwx/sentinel/internal/risk"
	"github.com/kalshiwx/sentinel/internal/signals"
	"github.com/kalshiwx/sentinel/internal/weather/extremes"
	"github.com/kalshiwx/sentinel/internal/weather/ingest"
	"github.com/rs/zerolog"
)

const defaultTakeProfitPct = 35.0

// Cycle wires every piece built elsewhere in this package into the exact
// ordered sequence of spec §4.4: jitter, settlement sync, portfolio log,
// profit rule, take-profit sweep, cut-losers sweep, weather ingest, window
// check, signal generation, execution. It runs identically against paper
// and live accounts — only the Positions/Opener/Closer implementations
// differ (see adapters.go).
type Cycle struct {
	Live bool // settlement sync only runs in live mode, per step 2

	Positions PositionSource
	Opener    TradeOpener
	Closer    TradeCloser
	Quotes    QuoteSource
	Markets   MarketSource
	Estimator EstimateSource

	Ingest          *ingest.Service
	ExtremesTracker *extremes.Tracker
	TradeRepo       *journal.TradeRepository
	PredictionRepo  *journal.PredictionRepository

	DomainCfg  *cfgdomain.Config
	KillSwitch bool
	NoJitter   bool

	Rand *rand.Rand
	Now  Clock
	Log  zerolog.Logger
}

// Result summarizes one cycle's activity for the CLI's status output.
type Result struct {
	SettlementsSynced int
	ObservationsCount int
	ProfitTriggered   bool
	Liquidations      []CloseOrder
	TakeProfits       []CloseOrder
	CutLosers         []CloseOrder
	SignalsGenerated  int
	TradesExecuted    []domain.Trade
}

// Run executes one full trading cycle. Each numbered step is isolated with
// the teacher's recover-and-log pattern (func(){ defer recover(); ... }())
// so a panic in one step never aborts the rest of the cycle.
func (c *Cycle) Run(ctx context.Context) Result {
	var res Result
	now := c.now()

	c.step("jitter", func() error { return c.jitter(ctx) })

	if c.Live {
		c.step("settlement_sync", func() error {
			n, err := SyncSettlements(ctx, c.Quotes, c.TradeRepo, c.ExtremesTracker, c.PredictionRepo, c.Log)
			res.SettlementsSynced = n
			return err
		})
	}

	var positions []domain.Position
	var cashCents int64
	var accountValue, unrealized int64
	c.step("portfolio_log", func() error {
		var err error
		positions, err = c.Positions.OpenPositions(ctx)
		if err != nil {
			return err
		}
		cashCents, err = c.Positions.BalanceCents(ctx)
		if err != nil {
			return err
		}
		accountValue = AccountValueCents(ctx, c.Quotes, cashCents, positions)
		unrealized = UnrealizedPnLCents(ctx, c.Quotes, positions)
		c.Log.Info().
			Int64("account_value_cents", accountValue).
			Int64("unrealized_pnl_cents", unrealized).
			Int("open_positions", len(positions)).
			Msg("portfolio")
		return nil
	})

	profitTriggered := ProfitRuleTriggered(unrealized, accountValue)
	res.ProfitTriggered = profitTriggered
	if profitTriggered {
		c.step("liquidate_winning_positions", func() error {
			issued, err := LiquidateWinningPositions(ctx, c.Quotes, c.Closer, positions)
			res.Liquidations = issued
			return err
		})
	}

	takeProfitPct := defaultTakeProfitPct
	if c.DomainCfg != nil && c.DomainCfg.Risk.TakeProfitPct > 0 {
		takeProfitPct = c.DomainCfg.Risk.TakeProfitPct
	}
	c.step("take_profit_sweep", func() error {
		issued, err := TakeProfits(ctx, c.Quotes, c.Closer, positions, takeProfitPct)
		res.TakeProfits = issued
		return err
	})

	c.step("cut_losers_sweep", func() error {
		issued, err := CutLosers(ctx, c.Quotes, c.Closer, positions)
		res.CutLosers = issued
		return err
	})

	c.step("weather_ingest", func() error {
		n, err := c.Ingest.CollectAll(ctx)
		res.ObservationsCount = n
		return err
	})

	var sigs []domain.Signal
	c.step("signal_generation", func() error {
		sigs = c.generateSignals(ctx, now)
		res.SignalsGenerated = len(sigs)
		return nil
	})

	c.step("execute_signals", func() error {
		res.TradesExecuted = c.execute(ctx, sigs, positions, accountValue, now)
		return nil
	})

	return res
}

// step runs fn with the teacher's recover-and-log isolation idiom: a panic
// is caught, logged, and treated as that step's failure, never propagated.
func (c *Cycle) step(name string, fn func() error) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				c.Log.Error().Interface("panic", r).Str("step", name).Msg("cycle step panicked, continuing")
			}
		}()
		err = fn()
	}()
	if err != nil {
		c.Log.Warn().Err(err).Str("step", name).Msg("cycle step failed, continuing")
	}
}

func (c *Cycle) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

func (c *Cycle) jitter(ctx context.Context) error {
	if c.NoJitter {
		return nil
	}
	r := c.Rand
	if r == nil {
		r = rand.New(rand.NewSource(c.now().UnixNano()))
	}
	d := time.Duration(r.Float64()*300) * time.Second
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
	return nil
}

// generateSignals runs §4.4 steps 8-9: for every active city and market
// type, generate today's and (when eligible) tomorrow's candidate signals,
// gated by the trading window, then post-filter and priority-sort the
// combined set.
func (c *Cycle) generateSignals(ctx context.Context, now time.Time) []domain.Signal {
	if c.DomainCfg == nil {
		return nil
	}
	hourET := etclock.HourET(now)
	preferredCities := map[string]bool{}

	var all []domain.Signal
	for city, cfg := range c.DomainCfg.ActiveCities() {
		for _, marketType := range []domain.MarketType{domain.MarketTypeHigh, domain.MarketTypeLow} {
			windowActive := c.DomainCfg.WindowActive

			var runningHigh, runningLow *float64
			if extreme, ok, err := c.ExtremesTracker.Extremes(cfg.Station); err == nil && ok {
				h, l := extreme.RunningHighF, extreme.RunningLowF
				runningHigh, runningLow = &h, &l
			}

			currentTempF, surroundingAvgF := 0.0, 0.0
			if obs, err := c.Ingest.LatestObservations(city); err == nil {
				for _, o := range obs {
					if o.IsPrimary {
						currentTempF = o.TempF
					}
				}
			}

			today := etclock.Today()
			todaySigs := GenerateCitySignals(ctx, c.Estimator, c.Markets, city, cfg, marketType, today, false,
				runningHigh, runningLow, currentTempF, surroundingAvgF, hourET, preferredCities[city], c.Log)
			for _, s := range todaySigs {
				if WindowEligible(s, windowActive, hourET) {
					all = append(all, s)
				}
			}

			tomorrow := etclock.Tomorrow()
			tomorrowSigs := GenerateCitySignals(ctx, c.Estimator, c.Markets, city, cfg, marketType, tomorrow, true,
				nil, nil, currentTempF, surroundingAvgF, hourET, preferredCities[city], c.Log)
			all = append(all, tomorrowSigs...) // tomorrow signals are always window-eligible
		}
	}

	return signals.PostFilter(all)
}

// execute runs §4.4 step 10 against the already-gathered cycle snapshot.
func (c *Cycle) execute(ctx context.Context, sigs []domain.Signal, positions []domain.Position, accountValue int64, now time.Time) []domain.Trade {
	if c.DomainCfg == nil || len(sigs) == 0 {
		return nil
	}
	riskCfg := c.DomainCfg.Risk

	dateET := etclock.Today()
	todayCount, _ := c.TradeRepo.CountToday(dateET)
	winningCount, _ := c.TradeRepo.CountWinningToday(dateET)
	inProfit := OpenPositionsInProfit(ctx, c.Quotes, positions)

	effectiveMax := risk.EffectiveMax(
		risk.TradeCapConfig{
			MaxTradesPerDay:      riskCfg.MaxDailyTrades,
			BonusTradesAfterWins: riskCfg.BonusTradesAfterWins,
			BonusTradeCount:      riskCfg.BonusTradeCount,
		},
		risk.TradeCapState{
			AccountValueCents:     accountValue,
			TodayWinningTrades:    winningCount,
			ProfitRuleTriggered:   ProfitRuleTriggered(UnrealizedPnLCents(ctx, c.Quotes, positions), accountValue),
			OpenPositionsInProfit: inProfit,
		},
	)

	existing := make([]risk.OpenPosition, 0, len(positions))
	for _, p := range positions {
		if p.PositionQtySigned == 0 {
			continue
		}
		side := domain.SideYes
		qty := p.PositionQtySigned
		if qty < 0 {
			side = domain.SideNo
			qty = -qty
		}
		existing = append(existing, risk.OpenPosition{Ticker: p.Ticker, Side: side, Contracts: qty})
	}

	openExposure := OpenExposureCents(positions)

	signals.SortByPriority(sigs, map[string]bool{})

	state := &ExecutionState{
		KillSwitch:         c.KillSwitch,
		CapitalCapFraction: riskCfg.MaxCapitalFraction,
		AccountValueCents:  accountValue,
		OpenExposureCents:  openExposure,
		TodayTradeCount:    todayCount,
		EffectiveMaxTrades: effectiveMax,
		MinEdgeModelPct:    riskCfg.MinEdgeModelPct,
		MinEdgeLockinPct:   riskCfg.MinEdgeLockinPct,
		PerTickerCap:       riskCfg.MaxPerTickerContracts,
		ExistingPositions:  existing,
		MinEntryPriceCents: riskCfg.MinEntryPriceCents,
		BalanceCents:       accountValue,
		MaxPositionPct:     riskCfg.MaxPositionPct,
	}

	return ExecuteSignals(ctx, state, sigs, c.Opener, c.Rand, now, c.Log)
}
