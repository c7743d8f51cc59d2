package ingest

import (
	"context"
	"time"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/etclock"
	"github.com/kalshiwx/sentinel/internal/weather/extremes"
	"github.com/rs/zerolog"
)

// StationConfig pairs a station id with whether it is the city's official
// settlement (primary) station. Primary/surrounding separation is a fixed
// per-city config, per §4.1.
type StationConfig struct {
	Station   string
	IsPrimary bool
}

// Service collects per-cycle station observations and NWS point forecasts,
// and feeds every new reading into the extremes tracker.
type Service struct {
	repo      *Repository
	tracker   *extremes.Tracker
	observer  domain.StationObserver
	forecaster domain.WeatherProvider
	cities    map[string]cfgdomain.CityConfig
	stations  map[string][]StationConfig // city -> stations
	log       zerolog.Logger
}

// New builds an ingest Service. stations maps each configured city to its
// primary + surrounding station list.
func New(
	repo *Repository,
	tracker *extremes.Tracker,
	observer domain.StationObserver,
	forecaster domain.WeatherProvider,
	cities map[string]cfgdomain.CityConfig,
	stations map[string][]StationConfig,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo: repo, tracker: tracker, observer: observer, forecaster: forecaster,
		cities: cities, stations: stations,
		log: log.With().Str("component", "ingest").Logger(),
	}
}

// CollectAll ingests one snapshot per configured station and today/tomorrow
// forecast periods for every city. Each external call retries at most once
// with fixed backoff then is skipped; a single station's failure never
// aborts the cycle, per §4.1 failure semantics.
func (s *Service) CollectAll(ctx context.Context) (int, error) {
	count := 0
	now := time.Now().UTC()

	for city, stations := range s.stations {
		for _, st := range stations {
			obs, err := s.collectStation(ctx, city, st, now)
			if err != nil {
				s.log.Warn().Err(err).Str("city", city).Str("station", st.Station).Msg("skipping station for this cycle")
				continue
			}
			count++
			if st.IsPrimary {
				if _, err := s.tracker.Observe(st.Station, obs.TempF, obs.ObsTime); err != nil {
					s.log.Warn().Err(err).Str("station", st.Station).Msg("failed to update running extremes")
				}
			}
		}

		if cityCfg, ok := s.cities[city]; ok {
			s.collectForecast(ctx, city, cityCfg, now)
		}
	}

	return count, nil
}

func (s *Service) collectStation(ctx context.Context, city string, st StationConfig, now time.Time) (domain.Observation, error) {
	obs, err := withRetry(func() (domain.Observation, error) {
		return s.observer.LatestObservation(ctx, st.Station)
	})
	if err != nil {
		return domain.Observation{}, err
	}

	obs.City = city
	obs.IsPrimary = st.IsPrimary
	obs.CollectedAt = now

	if err := s.repo.InsertObservation(obs); err != nil {
		return domain.Observation{}, err
	}
	return obs, nil
}

func (s *Service) collectForecast(ctx context.Context, city string, cfg cfgdomain.CityConfig, now time.Time) {
	for _, targetDate := range []string{etclock.Today(), etclock.Tomorrow()} {
		pf, err := withRetry(func() (domain.ProviderForecast, error) {
			return s.forecaster.Forecast(ctx, cfg.Latitude, cfg.Longitude, targetDate)
		})
		if err != nil {
			s.log.Warn().Err(err).Str("city", city).Str("date", targetDate).Msg("skipping forecast for this cycle")
			continue
		}

		if err := s.repo.InsertForecast(domain.Forecast{
			City:          city,
			ForecastDate:  targetDate,
			ForecastHighF: pf.HighF,
			ForecastLowF:  pf.LowF,
			CollectedAt:   now,
		}); err != nil {
			s.log.Warn().Err(err).Str("city", city).Msg("failed to persist forecast")
		}
	}
}

// LatestObservations implements the §4.1 contract.
func (s *Service) LatestObservations(city string) ([]domain.Observation, error) {
	return s.repo.LatestObservations(city)
}

// LatestForecast implements the §4.1 contract. dateET defaults to today.
func (s *Service) LatestForecast(city, dateET string) (domain.Forecast, bool, error) {
	if dateET == "" {
		dateET = etclock.Today()
	}
	return s.repo.LatestForecast(city, dateET)
}

// withRetry retries fn at most once with a fixed backoff, per the §4.1/§7
// transient-IO failure semantics shared by every external call site.
func withRetry[T any](fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		return result, nil
	}
	time.Sleep(500 * time.Millisecond)
	return fn()
}
