package backtest

import (
	"math/rand"
	"sort"

	"github.com/kalshiwx/sentinel/internal/domain"
)

// MonteCarloConfig mirrors backtest_advanced.py's monte_carlo_simulation
// defaults.
type MonteCarloConfig struct {
	StartingBankrollCents int
	Simulations           int
	TradesPerPath         int
	Seed                  int64
}

// DefaultMonteCarloConfig matches the original's $150 bankroll, 10,000
// simulated paths of 500 trades.
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{StartingBankrollCents: 15000, Simulations: 10000, TradesPerPath: 500, Seed: 42}
}

// MonteCarloResult summarizes the simulated bankroll-path distribution.
type MonteCarloResult struct {
	WinRatePct      float64
	AvgWinCents     float64
	AvgLossCents    float64
	KellyFraction   float64
	MedianEndCents  int
	RuinRatePct     float64
	MedianDrawdown  int
}

// RunMonteCarlo bootstrap-resamples historical settled trade outcomes —
// drawing, with replacement, from the actual recorded win/loss sizes rather
// than generating synthetic P&L from a parametric distribution — to project
// a forward bankroll-path distribution, per backtest_advanced.py's
// monte_carlo_simulation. The resampling itself uses a locally seeded
// *rand.Rand (never the global math/rand source), so two runs over the same
// trade history and config always reproduce the same result.
func RunMonteCarlo(trades []domain.Trade, cfg MonteCarloConfig) MonteCarloResult {
	wins, losses := splitWinsLosses(trades)
	if len(wins) == 0 || len(losses) == 0 {
		// Defaults from the original's cold-start fallback.
		return runMonteCarloParametric(cfg, 0.72, 66, 98)
	}

	winRate := float64(len(wins)) / float64(len(wins)+len(losses))
	avgWin := meanAbs(wins)
	avgLoss := meanAbs(losses)

	return runMonteCarloBootstrap(cfg, wins, losses, winRate, avgWin, avgLoss)
}

func splitWinsLosses(trades []domain.Trade) (wins, losses []int) {
	for _, t := range trades {
		if t.PnLCents == nil {
			continue
		}
		if *t.PnLCents > 0 {
			wins = append(wins, *t.PnLCents)
		} else {
			losses = append(losses, *t.PnLCents)
		}
	}
	return wins, losses
}

func meanAbs(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum int
	for _, v := range xs {
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return float64(sum) / float64(len(xs))
}

func runMonteCarloBootstrap(cfg MonteCarloConfig, wins, losses []int, winRate, avgWin, avgLoss float64) MonteCarloResult {
	rng := rand.New(rand.NewSource(cfg.Seed))
	kelly := kellyFraction(winRate, avgWin, avgLoss)

	endpoints := make([]int, 0, cfg.Simulations)
	drawdowns := make([]int, 0, cfg.Simulations)
	ruins := 0

	for s := 0; s < cfg.Simulations; s++ {
		bankroll := cfg.StartingBankrollCents
		peak := bankroll
		maxDD := 0

		for t := 0; t < cfg.TradesPerPath; t++ {
			if bankroll <= 0 {
				ruins++
				break
			}
			risk := kellyRisk(bankroll, kelly)

			var pnl int
			if rng.Float64() < winRate && len(wins) > 0 {
				sample := wins[rng.Intn(len(wins))]
				pnl = scaleRisk(risk, sample, avgWin)
			} else if len(losses) > 0 {
				sample := losses[rng.Intn(len(losses))]
				pnl = -scaleRisk(risk, -sample, avgLoss)
			} else {
				pnl = -risk
			}

			bankroll += pnl
			if bankroll > peak {
				peak = bankroll
			}
			if dd := peak - bankroll; dd > maxDD {
				maxDD = dd
			}
		}

		endpoints = append(endpoints, bankroll)
		drawdowns = append(drawdowns, maxDD)
	}

	return MonteCarloResult{
		WinRatePct:     winRate * 100,
		AvgWinCents:    avgWin,
		AvgLossCents:   avgLoss,
		KellyFraction:  kelly,
		MedianEndCents: medianInt(endpoints),
		RuinRatePct:    float64(ruins) / float64(cfg.Simulations) * 100,
		MedianDrawdown: medianInt(drawdowns),
	}
}

// runMonteCarloParametric is the cold-start fallback, drawing fixed-size
// wins/losses at the given rate rather than bootstrap-resampling (there is
// no history yet to resample from).
func runMonteCarloParametric(cfg MonteCarloConfig, winRate, avgWin, avgLoss float64) MonteCarloResult {
	rng := rand.New(rand.NewSource(cfg.Seed))
	kelly := kellyFraction(winRate, avgWin, avgLoss)

	endpoints := make([]int, 0, cfg.Simulations)
	drawdowns := make([]int, 0, cfg.Simulations)
	ruins := 0

	for s := 0; s < cfg.Simulations; s++ {
		bankroll := cfg.StartingBankrollCents
		peak := bankroll
		maxDD := 0

		for t := 0; t < cfg.TradesPerPath; t++ {
			if bankroll <= 0 {
				ruins++
				break
			}
			risk := kellyRisk(bankroll, kelly)
			var pnl int
			if rng.Float64() < winRate {
				pnl = int(float64(risk) * (avgWin / avgLoss))
			} else {
				pnl = -risk
			}
			bankroll += pnl
			if bankroll > peak {
				peak = bankroll
			}
			if dd := peak - bankroll; dd > maxDD {
				maxDD = dd
			}
		}
		endpoints = append(endpoints, bankroll)
		drawdowns = append(drawdowns, maxDD)
	}

	return MonteCarloResult{
		WinRatePct:     winRate * 100,
		AvgWinCents:    avgWin,
		AvgLossCents:   avgLoss,
		KellyFraction:  kelly,
		MedianEndCents: medianInt(endpoints),
		RuinRatePct:    float64(ruins) / float64(cfg.Simulations) * 100,
		MedianDrawdown: medianInt(drawdowns),
	}
}

// kellyFraction is the standard Kelly criterion f* = (bp - q) / b, where b is
// the win/loss payout ratio, per backtest_advanced.py's computation.
func kellyFraction(winRate, avgWin, avgLoss float64) float64 {
	if avgLoss <= 0 {
		return 0
	}
	b := avgWin / avgLoss
	p := winRate
	q := 1 - p
	if b <= 0 {
		return 0
	}
	return (b*p - q) / b
}

// kellyRisk sizes the next trade's risk at half-Kelly of current bankroll,
// the original's conservative default position size, never exceeding the
// bankroll itself.
func kellyRisk(bankroll int, kelly float64) int {
	risk := int(float64(bankroll) * kelly / 2)
	if risk < 1 {
		risk = 1
	}
	if risk > bankroll {
		risk = bankroll
	}
	return risk
}

// scaleRisk scales a bootstrap-sampled historical P&L magnitude to the
// current trade's risk size, proportional to the historical average so a
// single outlier trade doesn't dominate every simulated path.
func scaleRisk(risk, sample int, avg float64) int {
	if avg <= 0 {
		return risk
	}
	return int(float64(risk) * float64(sample) / avg)
}

func medianInt(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}
