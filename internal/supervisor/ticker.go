// Package supervisor implements §4.5's position supervisor: a long-running
// process independent of the orchestrator cycle that polls open positions
// and fires take-profit, dead-position, and profit-rule exits on its own
// cadence, grounded on the original price_monitor.py daemon's poll loop and
// decision table, carried over in the teacher's idiom (context-cancellable
// goroutine, PID lifecycle, structured zerolog fields).
package supervisor

import (
	"strings"

	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/domain"
)

// TickerInfo is what the supervisor can determine about a position's
// contract from its ticker alone, before any market/quote lookup: which
// city and station it settles against, and which market type (high/low)
// it is. The bracket/threshold shape itself comes from the exchange's own
// Strike on the fetched domain.Market, not from string-parsing the ticker
// (unlike the original, which had no structured strike field to read).
type TickerInfo struct {
	City       string
	Station    string
	MarketType domain.MarketType
}

// seriesPrefix returns the series-ticker portion of a market ticker, e.g.
// "KXHIGHNY-26FEB15-B36.5" -> "KXHIGHNY".
func seriesPrefix(ticker string) string {
	i := strings.Index(ticker, "-")
	if i < 0 {
		return ticker
	}
	return ticker[:i]
}

// ResolveTicker maps a market ticker to its city/station/market-type using
// the configured series tickers, rather than a hardcoded prefix table — the
// domain config is already the source of truth for which series belongs to
// which city.
func ResolveTicker(cfg *cfgdomain.Config, ticker string) (TickerInfo, bool) {
	prefix := seriesPrefix(ticker)
	for city, c := range cfg.Cities {
		switch prefix {
		case c.HighSeriesTag:
			return TickerInfo{City: city, Station: c.Station, MarketType: domain.MarketTypeHigh}, true
		case c.LowSeriesTag:
			return TickerInfo{City: city, Station: c.Station, MarketType: domain.MarketTypeLow}, true
		}
	}
	return TickerInfo{}, false
}
