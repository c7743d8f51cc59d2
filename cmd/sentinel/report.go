package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kalshiwx/sentinel/internal/backtest"
	"github.com/kalshiwx/sentinel/internal/etclock"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/kalshiwx/sentinel/internal/orchestrator"
	"github.com/kalshiwx/sentinel/internal/server"
	"github.com/olekukonko/tablewriter"
)

// cycleStatusProvider adapts the live orchestrator wiring to
// server.StatusProvider so --status and the optional HTTP server share one
// code path, grounded on the teacher's single-source-of-truth status
// handlers in cmd/server/main.go.
type cycleStatusProvider struct {
	positions orchestrator.PositionSource
	quotes    orchestrator.QuoteSource
	tradeRepo *journal.TradeRepository
	live      bool
}

func (p *cycleStatusProvider) Status(ctx context.Context) (server.StatusSnapshot, error) {
	positions, err := p.positions.OpenPositions(ctx)
	if err != nil {
		return server.StatusSnapshot{}, fmt.Errorf("loading open positions: %w", err)
	}
	cash, err := p.positions.BalanceCents(ctx)
	if err != nil {
		return server.StatusSnapshot{}, fmt.Errorf("loading balance: %w", err)
	}
	unrealized := orchestrator.UnrealizedPnLCents(ctx, p.quotes, positions)
	accountValue := orchestrator.AccountValueCents(ctx, p.quotes, cash, positions)
	tradesToday, err := p.tradeRepo.CountToday(etclock.Today())
	if err != nil {
		return server.StatusSnapshot{}, fmt.Errorf("counting today's trades: %w", err)
	}

	return server.StatusSnapshot{
		Live:               p.live,
		AccountValueCents:  accountValue,
		CashCents:          cash,
		OpenPositions:      len(positions),
		UnrealizedPnLCents: unrealized,
		TradesToday:        tradesToday,
	}, nil
}

func printStatus(ctx context.Context, positions orchestrator.PositionSource, quotes orchestrator.QuoteSource) {
	openPositions, err := positions.OpenPositions(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load positions:", err)
		os.Exit(1)
	}
	cash, err := positions.BalanceCents(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load balance:", err)
		os.Exit(1)
	}

	accountValue := orchestrator.AccountValueCents(ctx, quotes, cash, openPositions)
	unrealized := orchestrator.UnrealizedPnLCents(ctx, quotes, openPositions)

	fmt.Printf("cash: %d cents   account value: %d cents   unrealized P&L: %d cents\n", cash, accountValue, unrealized)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Ticker", "Qty (signed)", "Exposure (cents)")
	for _, pos := range openPositions {
		table.Append(pos.Ticker, fmt.Sprintf("%d", pos.PositionQtySigned), fmt.Sprintf("%d", pos.MarketExposureCents))
	}
	table.Render()
}

func printPaperPortfolio(repo *journal.TradeRepository) {
	trades, err := repo.AllOpen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load paper trades:", err)
		os.Exit(1)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Ticker", "Side", "Contracts", "Entry (cents)", "P&L (cents)")
	for _, tr := range trades {
		pnl := 0
		if tr.PnLCents != nil {
			pnl = *tr.PnLCents
		}
		table.Append(tr.Ticker, string(tr.Side), fmt.Sprintf("%d", tr.Contracts), fmt.Sprintf("%d", tr.EntryPriceCents), fmt.Sprintf("%d", pnl))
	}
	table.Render()
}

func printBacktestReport(report backtest.Report) {
	fmt.Println("=== Walk-Forward Windows ===")
	wfTable := tablewriter.NewWriter(os.Stdout)
	wfTable.Header("Test From", "Test To", "Best Sigma", "OOS Trades", "OOS Win%", "OOS PnL (cents)")
	for _, w := range report.Windows {
		wfTable.Append(
			w.TestFrom.Format("2006-01-02"),
			w.TestTo.Format("2006-01-02"),
			fmt.Sprintf("%.1f", w.Best.Sigma),
			fmt.Sprintf("%d", w.OOSTrades),
			fmt.Sprintf("%.1f", w.OOSWinRatePct),
			fmt.Sprintf("%d", w.OOSPnLCents),
		)
	}
	wfTable.Render()

	fmt.Println("=== Full-History Sweep (top 10) ===")
	sweepTable := tablewriter.NewWriter(os.Stdout)
	sweepTable.Header("Sigma", "Trades", "Win%", "PnL (cents)")
	for i, s := range report.FullSweep {
		if i >= 10 {
			break
		}
		sweepTable.Append(
			fmt.Sprintf("%.1f", s.Params.Sigma),
			fmt.Sprintf("%d", s.Trades),
			fmt.Sprintf("%.1f", s.WinRatePct),
			fmt.Sprintf("%d", s.PnLCents),
		)
	}
	sweepTable.Render()

	fmt.Println("=== Monte Carlo Projection ===")
	mc := report.MonteCarlo
	fmt.Printf("win rate: %.1f%%   kelly fraction: %.3f   median end: %d cents   ruin rate: %.2f%%\n",
		mc.WinRatePct, mc.KellyFraction, mc.MedianEndCents, mc.RuinRatePct)

	fmt.Println("=== Per-City Accuracy ===")
	accTable := tablewriter.NewWriter(os.Stdout)
	accTable.Header("City", "Samples", "MAE (F)", "RMSE (F)", "Bias (F)", "Current Sigma", "Optimal Sigma")
	for _, a := range report.Accuracy {
		accTable.Append(
			a.City,
			fmt.Sprintf("%d", a.Samples),
			fmt.Sprintf("%.2f", a.MAEf),
			fmt.Sprintf("%.2f", a.RMSEf),
			fmt.Sprintf("%.2f", a.BiasF),
			fmt.Sprintf("%.2f", a.CurrentSigma),
			fmt.Sprintf("%.2f", a.OptimalSigma),
		)
	}
	accTable.Render()
}
