package supervisor

import (
	"context"
	"time"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/etclock"
	"github.com/kalshiwx/sentinel/internal/orchestrator"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	activePollInterval = 30 * time.Second
	idlePollInterval    = 300 * time.Second
	perPositionSpacing = 200 * time.Millisecond

	defaultTakeProfitPct = 35.0
)

// Supervisor implements §4.5's position supervisor: a long-running process
// independent of the orchestrator cycle, polling open positions on its own
// cadence and firing profit-rule liquidation, take-profit, and dead-position
// exits. It shares the orchestrator's PositionSource/QuoteSource/TradeCloser
// interfaces so it runs against either the paper or live account exactly the
// way the orchestrator's Cycle does (see adapters.go), but its sweep logic
// is its own — deliberately a separate implementation of the take-profit
// check from the orchestrator's, mirroring how the original price_monitor.py
// daemon duplicated kalshi_trader.py's take-profit math rather than sharing
// it, since the two processes run independently and must never block on
// each other.
type Supervisor struct {
	Positions orchestrator.PositionSource
	Quotes    orchestrator.QuoteSource
	Closer    orchestrator.TradeCloser
	Stations  domain.StationObserver

	DomainCfg *cfgdomain.Config
	PID       *PIDFile

	Log zerolog.Logger
}

// Stats accumulates lifetime counters for status reporting, mirroring the
// original monitor's self-reported stats block.
type Stats struct {
	Checks              int
	TakeProfitsTriggered int
	DeadExitsTriggered  int
	ProfitRuleTriggered int
	Errors              int
	LastCheck           time.Time
}

// Run blocks until ctx is cancelled, polling at activePollInterval while
// positions are open and idlePollInterval otherwise. It writes the PID file
// on entry and removes it on every exit path, including a panic recovery at
// the per-check level so one bad check never kills the daemon outright.
func (s *Supervisor) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	if s.PID != nil {
		if err := s.PID.Write(); err != nil {
			return stats, err
		}
		defer s.PID.Remove()
	}

	s.Log.Info().
		Float64("take_profit_pct", s.takeProfitPct()).
		Dur("active_interval", activePollInterval).
		Dur("idle_interval", idlePollInterval).
		Msg("position supervisor started")

	for {
		n := s.checkOnceSafe(ctx, &stats)

		interval := idlePollInterval
		if n > 0 {
			interval = activePollInterval
		}

		if !s.sleepInterruptible(ctx, interval) {
			s.Log.Info().Msg("position supervisor stopping")
			return stats, nil
		}
	}
}

// sleepInterruptible sleeps in 1s increments, per the original's
// responsive-shutdown loop, returning false as soon as ctx is cancelled.
func (s *Supervisor) sleepInterruptible(ctx context.Context, d time.Duration) bool {
	ticks := int(d / time.Second)
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Second):
		}
	}
	return true
}

func (s *Supervisor) checkOnceSafe(ctx context.Context, stats *Stats) int {
	var n int
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error().Interface("panic", r).Msg("supervisor check panicked, continuing")
			stats.Errors++
		}
	}()
	n = s.checkOnce(ctx, stats)
	return n
}

func (s *Supervisor) checkOnce(ctx context.Context, stats *Stats) int {
	stats.Checks++
	stats.LastCheck = time.Now().UTC()

	s.logSelfHealth()

	positions, err := s.Positions.OpenPositions(ctx)
	if err != nil {
		s.Log.Warn().Err(err).Msg("supervisor: failed to fetch positions")
		stats.Errors++
		return 0
	}

	var open []domain.Position
	for _, p := range positions {
		if p.PositionQtySigned != 0 {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return 0
	}

	s.Log.Info().Int("open_positions", len(open)).Msg("supervisor: checking open positions")

	if s.checkProfitRule(ctx, open, stats) {
		s.Log.Info().Msg("supervisor: profit rule fired, skipping individual position checks this pass")
		return len(open)
	}

	for i, p := range open {
		if i > 0 {
			if !s.sleepSpacing(ctx) {
				break
			}
		}
		s.checkPosition(ctx, p, stats)
	}

	return len(open)
}

func (s *Supervisor) sleepSpacing(ctx context.Context) bool {
	select {
	case <-time.After(perPositionSpacing):
		return true
	case <-ctx.Done():
		return false
	}
}

// checkProfitRule mirrors §4.4 step 4's whole-portfolio trigger, independent
// of whether the orchestrator cycle has run recently — the supervisor is
// this rule's own enforcement path between cycles.
func (s *Supervisor) checkProfitRule(ctx context.Context, positions []domain.Position, stats *Stats) bool {
	cash, err := s.Positions.BalanceCents(ctx)
	if err != nil {
		s.Log.Warn().Err(err).Msg("supervisor: failed to fetch balance")
		stats.Errors++
		return false
	}

	accountValue := orchestrator.AccountValueCents(ctx, s.Quotes, cash, positions)
	unrealized := orchestrator.UnrealizedPnLCents(ctx, s.Quotes, positions)

	if !orchestrator.ProfitRuleTriggered(unrealized, accountValue) {
		return false
	}

	s.Log.Warn().
		Int64("account_value_cents", accountValue).
		Int64("unrealized_pnl_cents", unrealized).
		Msg("supervisor: profit rule triggered, liquidating winners")
	stats.ProfitRuleTriggered++

	issued, err := orchestrator.LiquidateWinningPositions(ctx, s.Quotes, s.Closer, positions)
	if err != nil {
		s.Log.Warn().Err(err).Msg("supervisor: liquidation sweep returned an error")
		stats.Errors++
	}
	s.Log.Info().Int("closed", len(issued)).Msg("supervisor: profit-rule liquidation complete")
	return true
}

// checkPosition runs take-profit first (higher priority, per the original),
// then dead-position detection, at most one close per position per pass.
func (s *Supervisor) checkPosition(ctx context.Context, p domain.Position, stats *Stats) {
	m, err := s.Quotes.Market(ctx, p.Ticker)
	if err != nil {
		s.Log.Warn().Err(err).Str("ticker", p.Ticker).Msg("supervisor: failed to price position")
		stats.Errors++
		return
	}
	if m.Status != "active" {
		return
	}

	if s.checkTakeProfit(ctx, p, m, stats) {
		return
	}
	s.checkDeadPosition(ctx, p, m, stats)
}

func (s *Supervisor) checkTakeProfit(ctx context.Context, p domain.Position, m domain.Market, stats *Stats) bool {
	if p.MarketExposureCents <= 0 {
		return false
	}

	var qty, bid int
	var side domain.Side
	if p.PositionQtySigned < 0 {
		qty, bid, side = -p.PositionQtySigned, m.NoBid, domain.SideNo
	} else {
		qty, bid, side = p.PositionQtySigned, m.YesBid, domain.SideYes
	}
	if bid <= 0 {
		return false
	}

	valueNow := int64(qty) * int64(bid)
	gainPct := (float64(valueNow) - float64(p.MarketExposureCents)) / float64(p.MarketExposureCents) * 100.0
	if gainPct < s.takeProfitPct() {
		return false
	}

	s.Log.Info().
		Str("ticker", p.Ticker).
		Float64("gain_pct", gainPct).
		Int("bid", bid).
		Msg("supervisor: take-profit triggered")
	stats.TakeProfitsTriggered++

	if err := s.Closer.Close(ctx, p.Ticker, side, qty, bid, m.YesBid); err != nil {
		s.Log.Warn().Err(err).Str("ticker", p.Ticker).Msg("supervisor: take-profit close failed")
		stats.Errors++
		return false
	}
	return true
}

func (s *Supervisor) checkDeadPosition(ctx context.Context, p domain.Position, m domain.Market, stats *Stats) {
	if s.DomainCfg == nil {
		return
	}
	info, ok := ResolveTicker(s.DomainCfg, p.Ticker)
	if !ok {
		return
	}

	obs, err := s.Stations.LatestObservation(ctx, info.Station)
	if err != nil {
		return // per §7 TransientIO: skip this unit, never abort the pass
	}

	side := domain.SideYes
	qty := p.PositionQtySigned
	if qty < 0 {
		side = domain.SideNo
		qty = -qty
	}

	hourET := etclock.HourET(time.Now())
	dead, reason := IsDead(info.MarketType, m.Strike, side, obs.TempF, hourET)
	if !dead {
		return
	}

	var bid int
	if side == domain.SideNo {
		bid = m.NoBid
	} else {
		bid = m.YesBid
	}
	if bid <= 0 {
		s.Log.Warn().Str("ticker", p.Ticker).Str("reason", reason).Msg("supervisor: dead position has no bid to exit at")
		return
	}

	s.Log.Warn().
		Str("ticker", p.Ticker).
		Str("reason", reason).
		Float64("current_temp_f", obs.TempF).
		Msg("supervisor: dead position detected, exiting")
	stats.DeadExitsTriggered++

	if err := s.Closer.Close(ctx, p.Ticker, side, qty, bid, m.YesBid); err != nil {
		s.Log.Warn().Err(err).Str("ticker", p.Ticker).Msg("supervisor: dead position exit failed")
		stats.Errors++
	}
}

func (s *Supervisor) takeProfitPct() float64 {
	if s.DomainCfg != nil && s.DomainCfg.Risk.TakeProfitPct > 0 {
		return s.DomainCfg.Risk.TakeProfitPct
	}
	return defaultTakeProfitPct
}

// logSelfHealth reports this process's own CPU/RAM usage at debug level,
// grounded on the teacher's gopsutil-based system_handlers.go stats call.
func (s *Supervisor) logSelfHealth() {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		return
	}
	memStat, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	s.Log.Debug().
		Float64("cpu_percent", cpuPercent[0]).
		Float64("ram_percent", memStat.UsedPercent).
		Msg("supervisor self-health")
}
