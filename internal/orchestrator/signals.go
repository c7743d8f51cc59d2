package orchestrator

import (
	"context"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/estimation"
	"github.com/kalshiwx/sentinel/internal/signals"
	"github.com/rs/zerolog"
)

// MarketSource lists open markets for a city's series ticker.
type MarketSource interface {
	Markets(ctx context.Context, eventTicker, seriesTicker, status string) ([]domain.Market, error)
}

// GenerateCitySignals produces every candidate signal (base + lock-in) for
// one city/market-type/target-date slice, implementing §4.4 step 9's inner
// loop. hourET gates the lock-in path: the running extreme is only treated
// as locked after its configured hour.
func GenerateCitySignals(
	ctx context.Context,
	estimator EstimateSource,
	markets MarketSource,
	city string,
	cfg cfgdomain.CityConfig,
	marketType domain.MarketType,
	targetDate string,
	isTomorrow bool,
	runningHigh, runningLow *float64,
	currentTempF, surroundingAvgF float64,
	hourET int,
	preferredCity bool,
	log zerolog.Logger,
) []domain.Signal {
	seriesTicker := cfg.HighSeriesTag
	if marketType == domain.MarketTypeLow {
		seriesTicker = cfg.LowSeriesTag
	}

	openMarkets, err := markets.Markets(ctx, "", seriesTicker, "open")
	if err != nil {
		log.Warn().Err(err).Str("city", city).Str("series", seriesTicker).Msg("signal generation: failed to list markets")
		return nil
	}
	if len(openMarkets) == 0 {
		return nil
	}

	var out []domain.Signal

	locked := (marketType == domain.MarketTypeHigh && !isTomorrow && HighLocked(hourET) && runningHigh != nil) ||
		(marketType == domain.MarketTypeLow && !isTomorrow && LowLocked(hourET) && runningLow != nil)

	if locked {
		lockinIn := signals.LockinInput{City: city, MarketType: marketType}
		if runningHigh != nil {
			lockinIn.RunningHighF = *runningHigh
		}
		if runningLow != nil {
			lockinIn.RunningLowF = *runningLow
		}
		out = append(out, signals.GenerateLockin(lockinIn, openMarkets)...)
	}

	est, ok, err := estimator.Estimate(ctx, city, targetDate, marketType)
	if err != nil {
		log.Warn().Err(err).Str("city", city).Str("market_type", string(marketType)).Msg("signal generation: estimate failed")
	} else if ok {
		sigma := estimation.Sigma(city, est.Confidence, cfg.FloorF)
		baseIn := signals.BaseInput{
			City:            city,
			MarketType:      marketType,
			IsTomorrow:      isTomorrow,
			Estimate:        est,
			Sigma:           sigma,
			CurrentTempF:    currentTempF,
			ForecastTempF:   est.MeanF,
			SurroundingAvgF: surroundingAvgF,
			RunningHighF:    runningHigh,
			RunningLowF:     runningLow,
			PreferredCity:   preferredCity,
		}
		out = append(out, signals.GenerateBase(baseIn, openMarkets)...)
	}

	return out
}
