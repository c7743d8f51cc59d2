// Package nws implements domain.StationObserver and domain.WeatherProvider
// against api.weather.gov.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kalshiwx/sentinel/internal/apperrors"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	userAgent   = "kalshiwx-sentinel/1.0 (contact: ops@kalshiwx.example)"
	rateLimitInterval = 350 * time.Millisecond
)

// Client talks to the National Weather Service public API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// New builds an NWS client with the mandatory 10s timeout, User-Agent, and
// the provider's published rate budget (>= 350ms between requests).
func New(log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(rateLimitInterval), 1),
		log:        log.With().Str("component", "nws-client").Logger(),
	}
}

func (c *Client) Name() string { return "nws" }

type observationResponse struct {
	Properties struct {
		Temperature struct {
			Value *float64 `json:"value"` // Celsius
		} `json:"temperature"`
		Humidity struct {
			Value *float64 `json:"value"`
		} `json:"relativeHumidity"`
		WindSpeed struct {
			Value *float64 `json:"value"` // km/h
		} `json:"windSpeed"`
		WindDirection struct {
			Value *float64 `json:"value"`
		} `json:"windDirection"`
		BarometricPressure struct {
			Value *float64 `json:"value"` // Pa
		} `json:"barometricPressure"`
		CloudLayers []struct {
			Amount string `json:"amount"` // CLR, FEW, SCT, BKN, OVC, SKC, ...
		} `json:"cloudLayers"`
		Timestamp string `json:"timestamp"`
	} `json:"properties"`
}

// cloudCoverRank orders sky-cover codes from clearest to most overcast so the
// densest reported layer can stand in for overall sky condition.
var cloudCoverRank = map[string]int{
	"SKC": 0, "CLR": 0, "FEW": 1, "SCT": 2, "BKN": 3, "OVC": 4, "VV": 5,
}

// LatestObservation implements domain.StationObserver.
func (c *Client) LatestObservation(ctx context.Context, station string) (domain.Observation, error) {
	url := fmt.Sprintf("https://api.weather.gov/stations/%s/observations/latest", station)

	var out observationResponse
	if err := c.getJSON(ctx, url, &out); err != nil {
		return domain.Observation{}, err
	}

	if out.Properties.Temperature.Value == nil {
		return domain.Observation{}, apperrors.Wrap(apperrors.ErrData, "missing temperature in NWS observation", fmt.Errorf("station %s", station))
	}

	tempF := celsiusToFahrenheit(*out.Properties.Temperature.Value)

	obs := domain.Observation{
		Station:  station,
		TempF:    tempF,
		ObsTime:  parseTimeOrNow(out.Properties.Timestamp),
	}
	if out.Properties.Humidity.Value != nil {
		obs.Humidity = out.Properties.Humidity.Value
	}
	if out.Properties.WindSpeed.Value != nil {
		mph := *out.Properties.WindSpeed.Value * 0.621371
		obs.WindMPH = &mph
	}
	if out.Properties.WindDirection.Value != nil {
		obs.WindDir = out.Properties.WindDirection.Value
	}
	if out.Properties.BarometricPressure.Value != nil {
		mb := *out.Properties.BarometricPressure.Value / 100.0
		obs.PressureMB = &mb
	}
	obs.CloudCover = densestCloudLayer(out.Properties.CloudLayers)

	return obs, nil
}

// densestCloudLayer returns the most overcast layer's amount code, matching
// the single sky-condition value METAR reports use for ceiling/cover.
func densestCloudLayer(layers []struct {
	Amount string `json:"amount"`
}) string {
	best := ""
	bestRank := -1
	for _, l := range layers {
		rank, ok := cloudCoverRank[l.Amount]
		if ok && rank > bestRank {
			bestRank = rank
			best = l.Amount
		}
	}
	return best
}

type pointResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			Name             string `json:"name"`
			Temperature      int    `json:"temperature"` // Fahrenheit
			IsDaytime        bool   `json:"isDaytime"`
			ShortForecast    string `json:"shortForecast"`
			StartTime        string `json:"startTime"`
		} `json:"periods"`
	} `json:"properties"`
}

// Forecast implements domain.WeatherProvider. NWS point-forecast periods
// alternate day/night; the high is the max daytime temperature and the low
// is the min nighttime temperature among periods falling on targetDate.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, targetDate string) (domain.ProviderForecast, error) {
	pointURL := fmt.Sprintf("https://api.weather.gov/points/%.4f,%.4f", lat, lon)

	var point pointResponse
	if err := c.getJSON(ctx, pointURL, &point); err != nil {
		return domain.ProviderForecast{}, err
	}
	if point.Properties.Forecast == "" {
		return domain.ProviderForecast{}, apperrors.Wrap(apperrors.ErrData, "NWS point lookup returned no forecast URL", nil)
	}

	var fc forecastResponse
	if err := c.getJSON(ctx, point.Properties.Forecast, &fc); err != nil {
		return domain.ProviderForecast{}, err
	}

	var high, low *float64
	for _, p := range fc.Properties.Periods {
		if len(p.StartTime) < 10 || p.StartTime[:10] != targetDate {
			continue
		}
		t := float64(p.Temperature)
		if p.IsDaytime {
			if high == nil || t > *high {
				high = &t
			}
		} else {
			if low == nil || t < *low {
				low = &t
			}
		}
	}

	return domain.ProviderForecast{HighF: high, LowF: low}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrTransient, "NWS rate limiter wait failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrData, "building NWS request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransient, "NWS request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("NWS returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return apperrors.Wrap(apperrors.ErrData, fmt.Sprintf("NWS returned %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrData, "decoding NWS response", err)
	}
	return nil
}

func celsiusToFahrenheit(c float64) float64 { return c*9.0/5.0 + 32.0 }

func parseTimeOrNow(ts string) time.Time {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t
	}
	return time.Now().UTC()
}
