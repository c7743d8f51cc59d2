package scheduler

import (
	"context"

	"github.com/kalshiwx/sentinel/internal/database"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/kalshiwx/sentinel/internal/orchestrator"
	"github.com/kalshiwx/sentinel/internal/reliability"
	"github.com/kalshiwx/sentinel/internal/weather/extremes"
	"github.com/rs/zerolog"
)

// SettlementSyncJob runs orchestrator.SyncSettlements on its own cadence,
// independent of the main trading cycle — §4.4 step 2 also runs this inline
// at the top of every live-mode cycle, but markets can settle between cycles when the
// agent is running with a long --interval, so this job exists to close that
// gap without waiting for the next full cycle.
type SettlementSyncJob struct {
	Quotes      orchestrator.QuoteSource
	TradeRepo   *journal.TradeRepository
	Predictions *journal.PredictionRepository
	Extremes    *extremes.Tracker
	Log         zerolog.Logger
}

func (j *SettlementSyncJob) Name() string { return "settlement_sync" }

func (j *SettlementSyncJob) Run() error {
	n, err := orchestrator.SyncSettlements(context.Background(), j.Quotes, j.TradeRepo, j.Extremes, j.Predictions, j.Log)
	if err != nil {
		return err
	}
	j.Log.Info().Int("settled", n).Msg("scheduled settlement sync completed")
	return nil
}

// Recalibrator is satisfied by internal/backtest's calibration entry point.
// Defined here, not imported from internal/backtest, so this package never
// has to import a backtest package that in turn wants orchestrator/journal
// types — the same duck-typed-interface convention the teacher's own
// scheduler/interfaces.go uses to avoid import cycles between schedulers and
// the services they drive.
type Recalibrator interface {
	Recalibrate(ctx context.Context) error
}

// RecalibrationJob re-derives per-city HighBiases/LowBiases/sigma from
// accumulated estimate-vs-actual error, per spec.md's calibration module.
type RecalibrationJob struct {
	Recalibrator Recalibrator
	Log          zerolog.Logger
}

func (j *RecalibrationJob) Name() string { return "nightly_recalibration" }

func (j *RecalibrationJob) Run() error {
	if err := j.Recalibrator.Recalibrate(context.Background()); err != nil {
		return err
	}
	j.Log.Info().Msg("nightly recalibration completed")
	return nil
}

// WALCheckpointJob runs a PASSIVE WAL checkpoint against the ledger database
// and warns when the WAL has grown large, grounded on the teacher's
// CheckWALCheckpointsJob (internal/scheduler/check_wal_checkpoints.go),
// narrowed from the teacher's seven parallel databases to this agent's
// single SQLite ledger file.
type WALCheckpointJob struct {
	DB  *database.DB
	Log zerolog.Logger
}

func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

func (j *WALCheckpointJob) Run() error {
	var busy, log, checkpointed int
	err := j.DB.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &log, &checkpointed)
	if err != nil {
		return err
	}
	if log > 1000 {
		j.Log.Warn().Int("wal_frames", log).Int("checkpointed", checkpointed).Msg("WAL file is large, checkpoint may be needed")
	} else {
		j.Log.Debug().Int("wal_frames", log).Msg("WAL checkpoint status OK")
	}
	return nil
}

// LedgerBackupJob uploads a fresh ledger snapshot to S3 and rotates old
// backups out, guarded at the call site by config.S3BackupEnabled since this
// is genuinely optional infrastructure, not required by any spec invariant.
type LedgerBackupJob struct {
	Service       *reliability.LedgerBackupService
	RetentionDays int
	Log           zerolog.Logger
}

func (j *LedgerBackupJob) Name() string { return "ledger_backup" }

func (j *LedgerBackupJob) Run() error {
	ctx := context.Background()
	if err := j.Service.CreateAndUpload(ctx); err != nil {
		return err
	}
	return j.Service.Rotate(ctx, j.RetentionDays)
}
