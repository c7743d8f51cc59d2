// Package openmeteo implements domain.WeatherProvider against the
// Open-Meteo forecast API, used as one of the consensus sources for
// tomorrow's estimate.
package openmeteo

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

const rateLimitInterval = 350 * time.Millisecond

// Client talks to the Open-Meteo public forecast API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// New builds an Open-Meteo client, rate limited to the provider's published
// free-tier budget.
func New(log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(rateLimitInterval), 1),
		log:        log.With().Str("component", "openmeteo-client").Logger(),
	}
}

func (c *Client) Name() string { return "open-meteo" }

type forecastResponse struct {
	Daily struct {
		Time            []string  `json:"time"`
		TemperatureMax  []float64 `json:"temperature_2m_max"`
		TemperatureMin  []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// Forecast implements domain.WeatherProvider.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, targetDate string) (domain.ProviderForecast, error) {
	url := fmt.Sprintf(
		"https://api.open-meteo.com/v1/forecast?latitude=%.4f&longitude=%.4f&daily=temperature_2m_max,temperature_2m_min&temperature_unit=fahrenheit&timezone=America/New_York&forecast_days=2",
		lat, lon,
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ProviderForecast{}, apperrors.Wrap(apperrors.ErrTransient, "open-meteo rate limiter wait failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ProviderForecast{}, apperrors.Wrap(apperrors.ErrData, "building open-meteo request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ProviderForecast{}, apperrors.Wrap(apperrors.ErrTransient, "open-meteo request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return domain.ProviderForecast{}, apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("open-meteo returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return domain.ProviderForecast{}, apperrors.Wrap(apperrors.ErrData, fmt.Sprintf("open-meteo returned %d", resp.StatusCode), nil)
	}

	var out forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ProviderForecast{}, apperrors.Wrap(apperrors.ErrData, "decoding open-meteo response", err)
	}

	for i, date := range out.Daily.Time {
		if date != targetDate {
			continue
		}
		var high, low *float64
		if i < len(out.Daily.TemperatureMax) {
			h := out.Daily.TemperatureMax[i]
			high = &h
		}
		if i < len(out.Daily.TemperatureMin) {
			l := out.Daily.TemperatureMin[i]
			low = &l
		}
		return domain.ProviderForecast{HighF: high, LowF: low}, nil
	}

	return domain.ProviderForecast{}, apperrors.Wrap(apperrors.ErrData, "target date not present in open-meteo response", nil)
}
