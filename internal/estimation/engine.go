// Package estimation implements the temperature-estimation algorithm of
// §4.2: combining live observations, running extremes, and forecast
// consensus into a (μ, confidence) pair consumed by the signal generator.
package estimation

import (
	"context"
	"fmt"
	"time"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/etclock"
	"github.com/kalshiwx/sentinel/internal/weather/consensus"
	"github.com/rs/zerolog"
)

// Estimate is the engine's output: a mean estimate and a confidence in
// [0, 1]. σ is deliberately NOT part of this struct — it is derived at
// consumption time by the signal generator (§4.2 step 8).
type Estimate struct {
	MeanF      float64
	Confidence float64
}

// ObservationSource is the subset of the ingest service the engine depends on.
type ObservationSource interface {
	LatestObservations(city string) ([]domain.Observation, error)
	LatestForecast(city, dateET string) (domain.Forecast, bool, error)
}

// ExtremeSource is the subset of the extremes tracker the engine depends on.
type ExtremeSource interface {
	ExtremesForDate(station, dateET string) (domain.DailyExtreme, bool, error)
}

// Engine computes temperature estimates for a city/target-date/market-type.
type Engine struct {
	obs        ObservationSource
	extremes   ExtremeSource
	providers  []domain.WeatherProvider
	cache      *consensus.Cache
	cities     map[string]cfgdomain.CityConfig
	stations   map[string]string // city -> primary settlement station
	log        zerolog.Logger
}

// New builds an Engine.
func New(
	obs ObservationSource,
	extremes ExtremeSource,
	providers []domain.WeatherProvider,
	cache *consensus.Cache,
	cities map[string]cfgdomain.CityConfig,
	primaryStations map[string]string,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		obs: obs, extremes: extremes, providers: providers, cache: cache,
		cities: cities, stations: primaryStations,
		log: log.With().Str("component", "estimation").Logger(),
	}
}

// Estimate computes (μ, confidence) for (city, targetDate, marketType). It
// returns ok=false (no error) when the inputs are insufficient to produce
// an estimate, per §4.2's error conditions: a missing primary temperature
// yields no estimate at all.
func (e *Engine) Estimate(ctx context.Context, city, targetDate string, marketType domain.MarketType) (Estimate, bool, error) {
	cfg, ok := e.cities[city]
	if !ok {
		return Estimate{}, false, fmt.Errorf("city %s is not configured", city)
	}
	station := e.stations[city]

	observations, err := e.obs.LatestObservations(city)
	if err != nil {
		return Estimate{}, false, fmt.Errorf("loading observations for %s: %w", city, err)
	}

	primaryT, surroundingAvg, havePrimary := splitPrimarySurrounding(observations, station)
	if !havePrimary {
		// Missing primary temp → no estimate, per §4.2 error conditions.
		return Estimate{}, false, nil
	}
	primaryWindMPH, primaryCloudCover := primarySkyConditions(observations, station)

	isTomorrow := targetDate == etclock.Tomorrow()

	forecast, haveForecast, err := e.obs.LatestForecast(city, targetDate)
	if err != nil {
		return Estimate{}, false, fmt.Errorf("loading forecast for %s: %w", city, err)
	}

	var forecastTemp *float64
	if haveForecast {
		if marketType == domain.MarketTypeHigh {
			forecastTemp = forecast.ForecastHighF
		} else {
			forecastTemp = forecast.ForecastLowF
		}
	}

	var runningExtreme *float64
	var obsCount int
	if station != "" {
		extreme, haveExtreme, err := e.extremes.ExtremesForDate(station, targetDate)
		if err != nil {
			return Estimate{}, false, fmt.Errorf("loading extremes for %s: %w", station, err)
		}
		if haveExtreme {
			obsCount = extreme.ObsCount
			if marketType == domain.MarketTypeHigh {
				runningExtreme = &extreme.RunningHighF
			} else {
				runningExtreme = &extreme.RunningLowF
			}
		}
	}

	if isTomorrow {
		return e.estimateTomorrow(ctx, city, cfg, targetDate, marketType, forecastTemp)
	}

	if marketType == domain.MarketTypeHigh {
		return e.estimateTodayHigh(city, primaryT, surroundingAvg, forecastTemp, runningExtreme, obsCount), true, nil
	}
	return e.estimateTodayLow(city, primaryT, surroundingAvg, forecastTemp, runningExtreme, obsCount, primaryWindMPH, primaryCloudCover), true, nil
}

func splitPrimarySurrounding(observations []domain.Observation, primaryStation string) (primaryT float64, surroundingAvg float64, ok bool) {
	var surroundingSum float64
	var surroundingCount int
	found := false

	for _, o := range observations {
		if o.IsPrimary || o.Station == primaryStation {
			primaryT = o.TempF
			found = true
			continue
		}
		surroundingSum += o.TempF
		surroundingCount++
	}

	if !found {
		return 0, 0, false
	}
	if surroundingCount > 0 {
		surroundingAvg = surroundingSum / float64(surroundingCount)
	} else {
		surroundingAvg = primaryT
	}
	return primaryT, surroundingAvg, true
}

// primarySkyConditions pulls wind speed and sky cover off the primary
// station's latest reading, for the §4.2 step 6 clear/calm vs cloudy/windy
// adjustment. Either return may be zero-value when the primary observation
// didn't carry that field.
func primarySkyConditions(observations []domain.Observation, primaryStation string) (windMPH float64, cloudCover string) {
	for _, o := range observations {
		if o.IsPrimary || o.Station == primaryStation {
			if o.WindMPH != nil {
				windMPH = *o.WindMPH
			}
			cloudCover = o.CloudCover
			return windMPH, cloudCover
		}
	}
	return 0, ""
}

func (e *Engine) estimateTodayHigh(city string, primaryT, surroundingAvg float64, forecastTemp, runningHigh *float64, obsCount int) Estimate {
	var estimatedH float64
	confidence := 0.5

	switch {
	case forecastTemp != nil:
		estimatedH = *forecastTemp
	case runningHigh != nil:
		estimatedH = *runningHigh
	default:
		estimatedH = primaryT
	}

	if runningHigh != nil {
		if *runningHigh > estimatedH {
			estimatedH = *runningHigh
			confidence += 0.1
		}
		// Rounding buffer: accounts for +/-1F C/F rounding ambiguity in METAR.
		if floor := *runningHigh + 1.0; estimatedH < floor {
			estimatedH = floor
		}
	}

	if estimatedH-primaryT <= 2.0 && estimatedH-primaryT >= -2.0 {
		estimatedH += 0.7 * (primaryT - (estimatedH - 2.0))
	}

	delta := surroundingAvg - primaryT
	if delta > 1.5 {
		estimatedH += delta * 0.5
	} else if delta < -1.5 {
		estimatedH += delta * 0.3
	}

	estimatedH += biasFor(HighBiases, city)

	hour := etclock.HourET(time.Now())
	if hour >= 12 && hour < 16 {
		confidence += 0.2
	} else if hour >= 10 && hour < 18 {
		confidence += 0.1
	}

	return Estimate{MeanF: estimatedH, Confidence: clampConfidence(confidence)}
}

func (e *Engine) estimateTodayLow(city string, primaryT, surroundingAvg float64, forecastTemp, runningLow *float64, obsCount int, windMPH float64, cloudCover string) Estimate {
	var estimatedL float64
	confidence := 0.5

	switch {
	case forecastTemp != nil:
		estimatedL = *forecastTemp
	case runningLow != nil:
		estimatedL = *runningLow
	default:
		estimatedL = primaryT
	}

	if runningLow != nil {
		if *runningLow < estimatedL {
			estimatedL = *runningLow
			confidence += 0.1
		}
		// Rounding buffer, inverse direction of the high-side buffer.
		if ceiling := *runningLow - 1.0; estimatedL > ceiling {
			estimatedL = ceiling
		}
	}

	switch {
	case isClearAndCalm(cloudCover, windMPH):
		estimatedL -= 1.5
	case isCloudyAndWindy(cloudCover, windMPH):
		estimatedL += 1.5
	}

	hour := etclock.HourET(time.Now())
	if hour >= 20 || hour < 4 {
		if primaryT < estimatedL {
			estimatedL = primaryT
		}
	}

	estimatedL += biasFor(LowBiases, city)

	if hour >= 12 && hour < 16 {
		confidence += 0.2
	} else if hour >= 10 && hour < 18 {
		confidence += 0.1
	}

	return Estimate{MeanF: estimatedL, Confidence: clampConfidence(confidence)}
}

// isClearAndCalm and isCloudyAndWindy implement the §4.2 step 6 sky/wind
// adjustment, grounded on the original signal generator's cloud_cover/
// wind_mph thresholds: clear-and-calm skies radiate heat faster overnight
// (cooler low), cloudy-and-windy skies trap it (warmer low).
func isClearAndCalm(cloudCover string, windMPH float64) bool {
	switch cloudCover {
	case "CLR", "FEW", "SKC":
		return windMPH < 8
	default:
		return false
	}
}

func isCloudyAndWindy(cloudCover string, windMPH float64) bool {
	switch cloudCover {
	case "OVC", "BKN":
		return windMPH > 10
	default:
		return false
	}
}

func (e *Engine) estimateTomorrow(ctx context.Context, city string, cfg cfgdomain.CityConfig, targetDate string, marketType domain.MarketType, nwsForecast *float64) (Estimate, bool, error) {
	readings, cached, err := e.cache.Load(city, targetDate, marketType)
	if err != nil {
		e.log.Warn().Err(err).Str("city", city).Msg("failed to load consensus cache, gathering fresh")
	}
	if !cached {
		readings = consensus.Gather(ctx, e.providers, cfg.Latitude, cfg.Longitude, targetDate, e.log)
		if err := e.cache.Store(city, targetDate, marketType, readings); err != nil {
			e.log.Warn().Err(err).Str("city", city).Msg("failed to cache consensus readings")
		}
	}

	result := consensus.Compute(readings, marketType)

	var mean float64
	confidence := 0.4

	switch {
	case result.HighF != nil && marketType == domain.MarketTypeHigh:
		mean = *result.HighF
		if result.HighQuality {
			confidence = 0.5
		}
	case result.LowF != nil && marketType == domain.MarketTypeLow:
		mean = *result.LowF
		if result.HighQuality {
			confidence = 0.5
		}
	case nwsForecast != nil:
		mean = *nwsForecast
	default:
		return Estimate{}, false, nil
	}

	if marketType == domain.MarketTypeHigh {
		mean += biasFor(HighBiases, city)
	} else {
		mean += biasFor(LowBiases, city)
	}

	return Estimate{MeanF: mean, Confidence: confidence}, true, nil
}

// Sigma derives σ for pricing at consumption time (§4.2 step 8):
// σ = max(city_floor[city], 4.0 − 2×confidence).
func Sigma(city string, confidence float64, configuredFloor float64) float64 {
	floor := floorFor(city, configuredFloor)
	dynamic := 4.0 - 2.0*confidence
	if dynamic > floor {
		return dynamic
	}
	return floor
}

func clampConfidence(c float64) float64 {
	if c > 1.0 {
		return 1.0
	}
	if c < 0 {
		return 0
	}
	return c
}
