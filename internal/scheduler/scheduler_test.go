package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	calls int
	err   error
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Run() error {
	j.calls++
	return j.err
}

func TestScheduler_RunNow_InvokesJobImmediately(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "test_job"}

	err := s.RunNow(job)

	require.NoError(t, err)
	assert.Equal(t, 1, job.calls)
}

func TestScheduler_RunNow_PropagatesJobError(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "failing_job", err: assert.AnError}

	err := s.RunNow(job)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestScheduler_AddJob_RejectsInvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "bad_schedule"}

	err := s.AddJob("not a cron expression", job)

	assert.Error(t, err)
}

func TestScheduler_AddJob_RunsOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "every_second"}

	require.NoError(t, s.AddJob("@every 1s", job))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.calls >= 1 }, 3*time.Second, 50*time.Millisecond)
}
