package scheduler

import (
	"context"
	"testing"

	sentinelTesting "github.com/kalshiwx/sentinel/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecalibrator struct {
	called bool
	err    error
}

func (f *fakeRecalibrator) Recalibrate(ctx context.Context) error {
	f.called = true
	return f.err
}

func TestRecalibrationJob_Run_CallsRecalibrator(t *testing.T) {
	fake := &fakeRecalibrator{}
	job := &RecalibrationJob{Recalibrator: fake, Log: zerolog.Nop()}

	require.NoError(t, job.Run())
	assert.True(t, fake.called)
	assert.Equal(t, "nightly_recalibration", job.Name())
}

func TestRecalibrationJob_Run_PropagatesError(t *testing.T) {
	fake := &fakeRecalibrator{err: assert.AnError}
	job := &RecalibrationJob{Recalibrator: fake, Log: zerolog.Nop()}

	assert.ErrorIs(t, job.Run(), assert.AnError)
}

func TestWALCheckpointJob_Run_Succeeds(t *testing.T) {
	db, cleanup := sentinelTesting.NewTestDB(t)
	defer cleanup()

	job := &WALCheckpointJob{DB: db, Log: zerolog.Nop()}

	require.NoError(t, job.Run())
	assert.Equal(t, "wal_checkpoint", job.Name())
}
