package testing

import (
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
)

// NewTradeFixture returns a settled paper trade for city at the given entry
// time, win/loss determined by pnlCents, for tests of journal, backtest, and
// orchestrator settlement logic. Fields not relevant to most tests (forecast
// snapshot, confidence) are filled with plausible constants rather than left
// zero, mirroring the teacher's NewSecurityFixtures style of populated,
// ready-to-insert rows.
func NewTradeFixture(city string, marketType domain.MarketType, pnlCents int, edgePct float64, createdAt time.Time) domain.Trade {
	result := domain.SettlementWin
	if pnlCents < 0 {
		result = domain.SettlementLoss
	}
	estimated := 72.5
	forecast := 71.0
	settledAt := createdAt.Add(20 * time.Hour)
	pnl := pnlCents
	return domain.Trade{
		Ticker:         city + "-HIGHTEMP-TEST",
		EventTicker:    city + "-HIGHTEMP-TEST-EVT",
		City:           city,
		MarketType:     marketType,
		Side:           domain.SideYes,
		Contracts:      10,
		EntryPriceCents: 55,
		SignalSource:   domain.SignalSourceModel,
		EstimatedTempF: &estimated,
		ForecastTempF:  &forecast,
		Confidence:     floatPtr(0.8),
		EdgePct:        &edgePct,
		OurProb:        floatPtr(0.7),
		MarketProb:     floatPtr(0.55),
		Settled:        true,
		SettlementResult: &result,
		PnLCents:       &pnl,
		FeesCents:      1,
		ActualTempF:    floatPtr(73.0),
		CreatedAt:      createdAt,
		SettledAt:      &settledAt,
	}
}

// NewPredictionFixture returns a settled prediction row with the given
// signed error (actual - estimated), for tests of calibration and per-city
// accuracy scoring.
func NewPredictionFixture(city string, marketType domain.MarketType, errorF float64, createdAt time.Time) domain.Prediction {
	estimated := 72.0
	actual := estimated + errorF
	settledAt := createdAt.Add(20 * time.Hour)
	errCopy := errorF
	return domain.Prediction{
		City:            city,
		MarketType:      marketType,
		EstimatedTempF:  estimated,
		ForecastTempF:   floatPtr(71.5),
		PrimaryTempF:    floatPtr(72.2),
		SurroundingAvgF: floatPtr(71.8),
		Confidence:      0.75,
		ActualTempF:     &actual,
		ErrorF:          &errCopy,
		SettledAt:       &settledAt,
		CreatedAt:       createdAt,
	}
}

func floatPtr(v float64) *float64 { return &v }
