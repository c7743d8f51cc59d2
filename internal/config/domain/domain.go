// Package domain loads the structured trading-domain configuration: the
// cities the agent watches, their station mappings, trading windows, risk
// limits, and Kalshi series identifiers.
//
// This sits alongside internal/config the way the teacher splits process
// secrets (internal/config) from structured portfolio configuration
// (internal/modules/planning/config); here the structured layer is YAML
// rather than TOML, since gopkg.in/yaml.v3 was already present in the
// teacher's dependency graph.
package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CityConfig describes one watched city: its METAR station, NWS grid point,
// and Kalshi market series for both the high and low temperature contracts.
type CityConfig struct {
	Station        string  `yaml:"station"`         // METAR station id, e.g. "KNYC"
	NWSGridOffice  string  `yaml:"nws_grid_office"`  // NWS gridpoint office, e.g. "OKX"
	NWSGridX       int     `yaml:"nws_grid_x"`
	NWSGridY       int     `yaml:"nws_grid_y"`
	Latitude       float64 `yaml:"latitude"`
	Longitude      float64 `yaml:"longitude"`
	HighSeriesTag  string  `yaml:"high_series_ticker"` // e.g. "KXHIGHNY"
	LowSeriesTag   string  `yaml:"low_series_ticker"`  // e.g. "KXLOWNY"
	FloorF         float64 `yaml:"floor_f"`             // city_floor for degenerate-bracket pricing
}

// TradingWindow is an ET hour-of-day half-open interval [Start, End).
type TradingWindow struct {
	Name  string `yaml:"name"`
	Start int    `yaml:"start_hour_et"`
	End   int    `yaml:"end_hour_et"`
}

// RiskConfig holds the numeric limits enforced by the risk gate.
type RiskConfig struct {
	MaxCapitalFraction    float64 `yaml:"max_capital_fraction"` // fraction of account value deployable at once
	MaxPerTickerContracts int     `yaml:"max_per_ticker_contracts"`
	MaxDailyTrades        int     `yaml:"max_daily_trades"`
	MinEdgeModelPct       float64 `yaml:"min_edge_pct"`          // 15, model-path signals
	MinEdgeLockinPct      float64 `yaml:"min_edge_lockin_pct"`   // 1, lock-in signals
	ProfitRuleFraction    float64 `yaml:"profit_rule_fraction"`  // 0.10 per spec, not the 0.80 docstring figure
	MinEntryPriceCents    int     `yaml:"min_entry_price"`
	MaxPositionPct        float64 `yaml:"max_position_pct"`
	MaxBracketsPerEvent   int     `yaml:"max_brackets_per_event"`
	TakeProfitPct         float64 `yaml:"take_profit_pct"`         // default 35
	BonusTradesAfterWins  int     `yaml:"bonus_trades_after_wins"`
	BonusTradeCount       int     `yaml:"bonus_trade_count"`
}

// KalshiConfig holds exchange connection parameters not treated as secrets.
type KalshiConfig struct {
	BaseURLLive string `yaml:"base_url_live"`
	BaseURLDemo string `yaml:"base_url_demo"`
}

// Config is the full structured domain configuration.
type Config struct {
	Cities            map[string]CityConfig `yaml:"cities"`
	DisabledCities     []string              `yaml:"disabled_cities"`
	TradingWindows     []TradingWindow       `yaml:"trading_windows"`
	Risk               RiskConfig            `yaml:"risk"`
	Kalshi             KalshiConfig          `yaml:"kalshi"`
	CollectorIntervalMin int                 `yaml:"collector_interval_min"`
}

// Load reads and parses the domain configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading domain config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing domain config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the structured config for internal consistency.
func (c *Config) Validate() error {
	if len(c.Cities) == 0 {
		return fmt.Errorf("domain config: at least one city is required")
	}
	disabled := make(map[string]bool, len(c.DisabledCities))
	for _, d := range c.DisabledCities {
		disabled[d] = true
	}
	for name, city := range c.Cities {
		if disabled[name] {
			continue
		}
		if city.Station == "" {
			return fmt.Errorf("domain config: city %s missing station", name)
		}
		if city.HighSeriesTag == "" || city.LowSeriesTag == "" {
			return fmt.Errorf("domain config: city %s missing series tickers", name)
		}
	}
	if c.Risk.MaxCapitalFraction <= 0 || c.Risk.MaxCapitalFraction > 1 {
		return fmt.Errorf("domain config: risk.max_capital_fraction must be in (0,1]")
	}
	if c.Risk.ProfitRuleFraction <= 0 {
		return fmt.Errorf("domain config: risk.profit_rule_fraction must be > 0")
	}
	return nil
}

// ActiveCities returns the cities not present in DisabledCities.
func (c *Config) ActiveCities() map[string]CityConfig {
	disabled := make(map[string]bool, len(c.DisabledCities))
	for _, d := range c.DisabledCities {
		disabled[d] = true
	}
	out := make(map[string]CityConfig, len(c.Cities))
	for name, city := range c.Cities {
		if !disabled[name] {
			out[name] = city
		}
	}
	return out
}

// WindowActive reports whether hourET falls within any configured trading
// window (half-open [Start, End), wrapping past midnight when End <= Start).
func (c *Config) WindowActive(hourET int) bool {
	for _, w := range c.TradingWindows {
		if w.Start <= w.End {
			if hourET >= w.Start && hourET < w.End {
				return true
			}
		} else {
			// window wraps past midnight, e.g. start=22 end=2
			if hourET >= w.Start || hourET < w.End {
				return true
			}
		}
	}
	return false
}
