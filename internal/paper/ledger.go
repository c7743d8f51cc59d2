// Package paper implements the shadow ledger (§4.6) that mirrors every
// orchestrator action against paper_trades/paper_balance without touching
// the live exchange.
package paper

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const startingBalanceCents int64 = 10_000

// Ledger is the append-only paper_balance table; the current balance is
// always the latest row, never an in-place update.
type Ledger struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewLedger builds a Ledger over db.
func NewLedger(db *sql.DB, log zerolog.Logger) *Ledger {
	return &Ledger{db: db, log: log.With().Str("component", "paper-ledger").Logger()}
}

// Balance returns the current balance, seeding it to 10,000c if the ledger
// has never been written.
func (l *Ledger) Balance() (int64, error) {
	row := l.db.QueryRow(`SELECT balance_cents FROM paper_balance ORDER BY id DESC LIMIT 1`)
	var balance int64
	err := row.Scan(&balance)
	if err == sql.ErrNoRows {
		return startingBalanceCents, l.append(startingBalanceCents)
	}
	if err != nil {
		return 0, fmt.Errorf("reading paper balance: %w", err)
	}
	return balance, nil
}

// Debit subtracts cents and appends the new balance as a fresh row.
func (l *Ledger) Debit(cents int64) (int64, error) {
	return l.adjust(-cents)
}

// Credit adds cents and appends the new balance as a fresh row.
func (l *Ledger) Credit(cents int64) (int64, error) {
	return l.adjust(cents)
}

func (l *Ledger) adjust(delta int64) (int64, error) {
	current, err := l.Balance()
	if err != nil {
		return 0, err
	}
	next := current + delta
	if err := l.append(next); err != nil {
		return 0, err
	}
	return next, nil
}

func (l *Ledger) append(balance int64) error {
	_, err := l.db.Exec(`INSERT INTO paper_balance (balance_cents, updated_at) VALUES (?, ?)`, balance, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("appending paper balance: %w", err)
	}
	return nil
}
