package orchestrator

import (
	"context"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/kalshiwx/sentinel/internal/weather/extremes"
	"github.com/rs/zerolog"
)

// payoutCents is the terminal per-contract payoff of a settled market: 100
// for the side that matched result, 0 for the side that didn't.
func payoutCents(side domain.Side, result string) int {
	if (side == domain.SideYes && result == "yes") || (side == domain.SideNo && result == "no") {
		return 100
	}
	return 0
}

// SyncSettlements implements §4.4 step 2: walk every unsettled trade row,
// re-fetch its market, and settle the ones that have resolved. A market
// lookup failure skips just that row — the rest of the sweep still runs,
// per §7's per-unit isolation.
func SyncSettlements(ctx context.Context, quotes QuoteSource, repo *journal.TradeRepository, tracker *extremes.Tracker, predictions *journal.PredictionRepository, log zerolog.Logger) (int, error) {
	rows, err := repo.Unsettled()
	if err != nil {
		return 0, err
	}

	settled := 0
	now := time.Now().UTC()

	for _, row := range rows {
		m, err := quotes.Market(ctx, row.Ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", row.Ticker).Msg("settlement sync: skipping unreachable market")
			continue
		}
		if !m.IsSettled() {
			continue
		}

		payout := payoutCents(row.Side, m.Result)
		pnl := (payout - row.EntryPriceCents) * row.Contracts

		result := domain.SettlementClosed
		if pnl > 0 {
			result = domain.SettlementWin
		} else if pnl < 0 {
			result = domain.SettlementLoss
		}

		if err := repo.MarkSettled(row.ID, result, pnl, nil, now); err != nil {
			log.Warn().Err(err).Int64("trade_id", row.ID).Msg("settlement sync: failed to mark trade settled")
			continue
		}
		settled++
	}

	if predictions != nil {
		if err := backfillPredictions(predictions, tracker); err != nil {
			log.Warn().Err(err).Msg("settlement sync: prediction backfill failed")
		}
	}

	return settled, nil
}

// backfillPredictions fills in actual_temp_f/error_f for predictions whose
// target day's running extreme has landed, using the station tracker as the
// source of truth for the realized high/low (the exchange only reports a
// binary yes/no settlement, not the underlying temperature).
func backfillPredictions(predictions *journal.PredictionRepository, tracker *extremes.Tracker) error {
	if tracker == nil {
		return nil
	}
	unsettled, err := predictions.Unsettled()
	if err != nil {
		return err
	}

	for _, p := range unsettled {
		dateET := p.CreatedAt.Format("2006-01-02")
		extreme, ok, err := tracker.ExtremesForDate(p.City, dateET)
		if err != nil || !ok {
			continue
		}

		var actual float64
		switch p.MarketType {
		case domain.MarketTypeHigh:
			actual = extreme.RunningHighF
		case domain.MarketTypeLow:
			actual = extreme.RunningLowF
		default:
			continue
		}

		if err := predictions.BackfillSettlement(p.City, p.MarketType, dateET, actual, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}
