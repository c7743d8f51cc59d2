// Package backtest supplies the walk-forward parameter search, Monte Carlo
// P&L simulation, and per-city bias/sigma recalibration that
// original_source/trading/weather-bot/{backtest.py,backtest_advanced.py,
// auto_calibrate.py} implement in Python, grounded on the teacher's
// internal/modules/optimization package (mv_optimizer.go, returns.go) for
// the general "load historical series, score candidates, pick the best"
// shape, generalized from portfolio-weight optimization to per-city
// temperature-bias calibration.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/estimation"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// minCalibrationSamples mirrors auto_calibrate.py's implicit floor: with
// fewer settled predictions than this, a city's existing bias/floor is left
// untouched rather than fit to noise.
const minCalibrationSamples = 8

// calibrationLookback is how far back SettledSince pulls predictions from,
// matching auto_calibrate.py's --days 30 default.
const calibrationLookback = 30 * 24 * time.Hour

// Calibrator re-derives per-city bias and sigma from the accumulated
// estimate-vs-actual error recorded in the predictions table, replacing
// auto_calibrate.py's ad-hoc CLI script with a function the scheduler can
// run nightly.
type Calibrator struct {
	Predictions *journal.PredictionRepository
	DomainCfg   *cfgdomain.Config
	Log         zerolog.Logger

	now func() time.Time
}

func NewCalibrator(predictions *journal.PredictionRepository, cfg *cfgdomain.Config, log zerolog.Logger) *Calibrator {
	return &Calibrator{Predictions: predictions, DomainCfg: cfg, Log: log.With().Str("component", "calibrator").Logger()}
}

func (c *Calibrator) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now().UTC()
}

// Recalibrate implements scheduler.Recalibrator: for every configured city
// and market type, fit an intercept-and-slope OLS regression of settlement error
// against a linear day-index (detecting both the steady-state bias and any
// drift within the lookback window) and push the fitted bias into
// internal/estimation's live tables, alongside a clamped sigma derived from
// the residual standard deviation.
func (c *Calibrator) Recalibrate(ctx context.Context) error {
	if c.DomainCfg == nil {
		return fmt.Errorf("recalibrate: no domain config")
	}
	since := c.clock().Add(-calibrationLookback)

	for city := range c.DomainCfg.Cities {
		highBias, highN, err := c.fitCityBias(city, domain.MarketTypeHigh, since)
		if err != nil {
			c.Log.Warn().Err(err).Str("city", city).Msg("high-bias calibration failed")
			continue
		}
		lowBias, lowN, err := c.fitCityBias(city, domain.MarketTypeLow, since)
		if err != nil {
			c.Log.Warn().Err(err).Str("city", city).Msg("low-bias calibration failed")
			continue
		}

		if highN < minCalibrationSamples && lowN < minCalibrationSamples {
			c.Log.Debug().Str("city", city).Int("high_n", highN).Int("low_n", lowN).Msg("too few samples, skipping calibration")
			continue
		}

		allErrs, err := c.errorsSince(city, since)
		if err != nil {
			c.Log.Warn().Err(err).Str("city", city).Msg("failed to load combined errors")
			continue
		}
		sigma := recommendedSigma(allErrs)

		current := estimation.HighBiases[city]
		currentLow := estimation.LowBiases[city]
		if highN >= minCalibrationSamples {
			current = highBias
		}
		if lowN >= minCalibrationSamples {
			currentLow = lowBias
		}

		estimation.SetCalibration(city, current, currentLow, sigma)
		c.Log.Info().
			Str("city", city).
			Float64("high_bias", current).
			Float64("low_bias", currentLow).
			Float64("sigma", sigma).
			Int("high_samples", highN).
			Int("low_samples", lowN).
			Msg("calibration updated")
	}
	return nil
}

// fitCityBias regresses settlement error (actual − estimated) against a
// day-index over the lookback window and returns the intercept — the
// regression's estimate of "today's" bias, which tracks recent drift better
// than a flat historical mean while degrading gracefully to the mean when
// there's no real trend in the residuals.
func (c *Calibrator) fitCityBias(city string, marketType domain.MarketType, since time.Time) (float64, int, error) {
	preds, err := c.Predictions.SettledSince(city, marketType, since)
	if err != nil {
		return 0, 0, err
	}

	var days []float64
	var errs []float64
	for _, p := range preds {
		if p.ErrorF == nil {
			continue
		}
		dayIdx := p.CreatedAt.Sub(c.clock()).Hours() / 24.0
		days = append(days, dayIdx)
		errs = append(errs, *p.ErrorF)
	}
	n := len(errs)
	if n == 0 {
		return 0, 0, nil
	}
	if n < 2 {
		return errs[0], n, nil
	}

	intercept, _ := olsInterceptSlope(days, errs)
	return intercept, n, nil
}

// errorsSince pulls both high and low settlement errors for a city, used for
// the combined sigma estimate (auto_calibrate.py pools high+low errors when
// computing the recommended standard deviation).
func (c *Calibrator) errorsSince(city string, since time.Time) ([]float64, error) {
	var out []float64
	for _, mt := range []domain.MarketType{domain.MarketTypeHigh, domain.MarketTypeLow} {
		preds, err := c.Predictions.SettledSince(city, mt, since)
		if err != nil {
			return nil, err
		}
		for _, p := range preds {
			if p.ErrorF != nil {
				out = append(out, *p.ErrorF)
			}
		}
	}
	return out, nil
}

// olsInterceptSlope fits y = a + b*x by ordinary least squares using gonum's
// normal-equation solve, returning (intercept, slope).
func olsInterceptSlope(x, y []float64) (float64, float64) {
	n := len(x)
	design := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1.0)
		design.Set(i, 1, x[i])
	}
	target := mat.NewVecDense(n, y)

	var xtx mat.Dense
	xtx.Mul(design.T(), design)
	var xty mat.VecDense
	xty.MulVec(design.T(), target)

	var coeffs mat.VecDense
	if err := coeffs.SolveVec(&xtx, &xty); err != nil {
		return mean(y), 0
	}
	return coeffs.AtVec(0), coeffs.AtVec(1)
}

// recommendedSigma mirrors auto_calibrate.py's calculate_optimal_std_dev:
// 1.5x the observed residual standard deviation, clamped to [2.5, 6.0]°F.
func recommendedSigma(errs []float64) float64 {
	if len(errs) == 0 {
		return 4.0
	}
	sd := stddev(errs)
	s := sd * 1.5
	if s < 2.5 {
		s = 2.5
	}
	if s > 6.0 {
		s = 6.0
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sumSq float64
	for _, v := range xs {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}
