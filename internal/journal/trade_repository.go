// Package journal persists the live and paper trade ledgers and the
// prediction audit log.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/rs/zerolog"
)

const tradeColumns = `id, ticker, event_ticker, city, market_type, side, contracts, entry_price_cents, signal_source,
	estimated_temp_f, forecast_temp_f, primary_temp_f, surrounding_avg_f, confidence, edge_pct,
	floor_strike, cap_strike, our_prob, market_prob, settled, settlement_result, pnl_cents, fees_cents,
	actual_temp_f, created_at, settled_at`

// TradeRepository persists Trade rows to either the live `trades` table or
// the `paper_trades` table, selected by table name at construction.
type TradeRepository struct {
	db    *sql.DB
	table string
	log   zerolog.Logger
}

// NewTradeRepository builds a TradeRepository over the live trades table.
func NewTradeRepository(db *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{db: db, table: "trades", log: log.With().Str("repo", "trades").Logger()}
}

// NewPaperTradeRepository builds a TradeRepository over the paper trades table.
func NewPaperTradeRepository(db *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{db: db, table: "paper_trades", log: log.With().Str("repo", "paper_trades").Logger()}
}

// Create inserts a new trade row and returns its assigned id.
func (r *TradeRepository) Create(t domain.Trade) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s
		(ticker, event_ticker, city, market_type, side, contracts, entry_price_cents, signal_source,
		 estimated_temp_f, forecast_temp_f, primary_temp_f, surrounding_avg_f, confidence, edge_pct,
		 floor_strike, cap_strike, our_prob, market_prob, settled, settlement_result, pnl_cents, fees_cents,
		 actual_temp_f, created_at, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.table)

	res, err := r.db.Exec(query,
		t.Ticker, t.EventTicker, t.City, string(t.MarketType), string(t.Side), t.Contracts, t.EntryPriceCents, string(t.SignalSource),
		t.EstimatedTempF, t.ForecastTempF, t.PrimaryTempF, t.SurroundingAvgF, t.Confidence, t.EdgePct,
		t.FloorStrike, t.CapStrike, t.OurProb, t.MarketProb, boolToInt(t.Settled), settlementResultOrNil(t.SettlementResult), t.PnLCents, t.FeesCents,
		t.ActualTempF, t.CreatedAt.Format(time.RFC3339), formatTimePtr(t.SettledAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting %s: %w", r.table, err)
	}
	return res.LastInsertId()
}

// Unsettled returns all rows where settled = 0.
func (r *TradeRepository) Unsettled() ([]domain.Trade, error) {
	rows, err := r.db.Query(fmt.Sprintf(`SELECT %s FROM %s WHERE settled = 0 ORDER BY created_at`, tradeColumns, r.table))
	if err != nil {
		return nil, fmt.Errorf("querying unsettled %s: %w", r.table, err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// OpenByTickerSide returns unsettled rows for (ticker, side), oldest first
// (FIFO close order per §4.6).
func (r *TradeRepository) OpenByTickerSide(ticker string, side domain.Side) ([]domain.Trade, error) {
	rows, err := r.db.Query(
		fmt.Sprintf(`SELECT %s FROM %s WHERE ticker = ? AND side = ? AND settled = 0 ORDER BY created_at ASC, id ASC`, tradeColumns, r.table),
		ticker, string(side),
	)
	if err != nil {
		return nil, fmt.Errorf("querying open trades for %s/%s: %w", ticker, side, err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// Settled returns every settled row created at or after since, oldest first,
// used by internal/backtest's historical win-rate/P&L statistics.
func (r *TradeRepository) Settled(since time.Time) ([]domain.Trade, error) {
	rows, err := r.db.Query(
		fmt.Sprintf(`SELECT %s FROM %s WHERE settled = 1 AND created_at >= ? ORDER BY created_at ASC`, tradeColumns, r.table),
		since.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("querying settled %s: %w", r.table, err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// AllOpen returns every unsettled row, used to reconstruct positions.
func (r *TradeRepository) AllOpen() ([]domain.Trade, error) {
	return r.Unsettled()
}

// MarkSettled stamps a trade as settled with its realized outcome.
func (r *TradeRepository) MarkSettled(id int64, result domain.SettlementResult, pnlCents int, actualTempF *float64, settledAt time.Time) error {
	_, err := r.db.Exec(
		fmt.Sprintf(`UPDATE %s SET settled = 1, settlement_result = ?, pnl_cents = ?, actual_temp_f = ?, settled_at = ? WHERE id = ?`, r.table),
		string(result), pnlCents, actualTempF, settledAt.Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("marking %s id=%d settled: %w", r.table, id, err)
	}
	return nil
}

// ClosePortion closes closedContracts out of an open row. If closedContracts
// equals the row's full size, the row itself is marked settled. Otherwise
// the row is split: its own contracts shrink to closedContracts and it is
// marked settled, and a new unsettled row is inserted for the remainder,
// implementing the §4.6 FIFO partial-fill rule.
func (r *TradeRepository) ClosePortion(row domain.Trade, closedContracts int, result domain.SettlementResult, pnlCents int, settledAt time.Time) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning close transaction: %w", err)
	}
	defer tx.Rollback()

	if closedContracts >= row.Contracts {
		if _, err := tx.Exec(
			fmt.Sprintf(`UPDATE %s SET settled = 1, settlement_result = ?, pnl_cents = ?, settled_at = ? WHERE id = ?`, r.table),
			string(result), pnlCents, settledAt.Format(time.RFC3339), row.ID,
		); err != nil {
			return fmt.Errorf("settling %s id=%d: %w", r.table, row.ID, err)
		}
	} else {
		remaining := row.Contracts - closedContracts
		if _, err := tx.Exec(
			fmt.Sprintf(`UPDATE %s SET contracts = ?, settled = 1, settlement_result = ?, pnl_cents = ?, settled_at = ? WHERE id = ?`, r.table),
			closedContracts, string(result), pnlCents, settledAt.Format(time.RFC3339), row.ID,
		); err != nil {
			return fmt.Errorf("splitting %s id=%d: %w", r.table, row.ID, err)
		}

		insertQuery := fmt.Sprintf(`
			INSERT INTO %s
			(ticker, event_ticker, city, market_type, side, contracts, entry_price_cents, signal_source,
			 estimated_temp_f, forecast_temp_f, primary_temp_f, surrounding_avg_f, confidence, edge_pct,
			 floor_strike, cap_strike, our_prob, market_prob, settled, settlement_result, pnl_cents, fees_cents,
			 actual_temp_f, created_at, settled_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, NULL, ?, ?, ?, NULL)`, r.table)
		if _, err := tx.Exec(insertQuery,
			row.Ticker, row.EventTicker, row.City, string(row.MarketType), string(row.Side), remaining, row.EntryPriceCents, string(row.SignalSource),
			row.EstimatedTempF, row.ForecastTempF, row.PrimaryTempF, row.SurroundingAvgF, row.Confidence, row.EdgePct,
			row.FloorStrike, row.CapStrike, row.OurProb, row.MarketProb, row.FeesCents,
			row.ActualTempF, row.CreatedAt.Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("inserting remainder for %s id=%d: %w", r.table, row.ID, err)
		}
	}

	return tx.Commit()
}

// CountToday returns the count of rows created on dateET (ET calendar day).
func (r *TradeRepository) CountToday(dateET string) (int, error) {
	var count int
	row := r.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE substr(created_at, 1, 10) = ?`, r.table), dateET)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting today's %s: %w", r.table, err)
	}
	return count, nil
}

// CountWinningToday returns the count of rows settled today as a win.
func (r *TradeRepository) CountWinningToday(dateET string) (int, error) {
	var count int
	row := r.db.QueryRow(
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE settled = 1 AND settlement_result = 'win' AND substr(settled_at, 1, 10) = ?`, r.table),
		dateET,
	)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting today's winning %s: %w", r.table, err)
	}
	return count, nil
}

func scanTrades(rows *sql.Rows) ([]domain.Trade, error) {
	var out []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var marketType, side, signalSource string
		var settled int
		var settlementResult sql.NullString
		var createdAt string
		var settledAt sql.NullString

		if err := rows.Scan(
			&t.ID, &t.Ticker, &t.EventTicker, &t.City, &marketType, &side, &t.Contracts, &t.EntryPriceCents, &signalSource,
			&t.EstimatedTempF, &t.ForecastTempF, &t.PrimaryTempF, &t.SurroundingAvgF, &t.Confidence, &t.EdgePct,
			&t.FloorStrike, &t.CapStrike, &t.OurProb, &t.MarketProb, &settled, &settlementResult, &t.PnLCents, &t.FeesCents,
			&t.ActualTempF, &createdAt, &settledAt,
		); err != nil {
			return nil, fmt.Errorf("scanning trade row: %w", err)
		}

		t.MarketType = domain.MarketType(marketType)
		t.Side = domain.Side(side)
		t.SignalSource = domain.SignalSource(signalSource)
		t.Settled = settled != 0
		if settlementResult.Valid {
			sr := domain.SettlementResult(settlementResult.String)
			t.SettlementResult = &sr
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if settledAt.Valid {
			parsed, _ := time.Parse(time.RFC3339, settledAt.String)
			t.SettledAt = &parsed
		}

		out = append(out, t)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func settlementResultOrNil(r *domain.SettlementResult) interface{} {
	if r == nil {
		return nil
	}
	return string(*r)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
