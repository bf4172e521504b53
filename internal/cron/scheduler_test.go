package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"godsendjoseph.dev/cdn-client/internal/assets"
)

type stubSweeper struct {
	calls  int
	limit  int
	result assets.SweepResult
	err    error
}

func (s *stubSweeper) SweepExpired(ctx context.Context, limit int) (assets.SweepResult, error) {
	s.calls++
	s.limit = limit
	if _, ok := ctx.Deadline(); !ok {
		return assets.SweepResult{}, errors.New("sweep ran without a deadline")
	}
	return s.result, s.err
}

type stubNotifier struct {
	titles []string
	fields []map[string]string
}

func (n *stubNotifier) NotifyInfo(_ context.Context, title string, _ string, fields map[string]string) error {
	n.titles = append(n.titles, title)
	n.fields = append(n.fields, fields)
	return nil
}

func TestSchedulerRegistersAndRunsSweep(t *testing.T) {
	logger := zap.NewNop().Sugar()
	scheduler, err := NewScheduler(logger, "UTC")
	require.NoError(t, err)

	sweeper := &stubSweeper{result: assets.SweepResult{Found: 2, Deleted: 2}}
	notifier := &stubNotifier{}
	jobs := NewJobManager(logger, sweeper, notifier)

	scheduler.AddJob(SweepExpiredAssetsJob, "*/10 * * * *", jobs.SweepExpiredAssets(25, time.Minute))
	require.NoError(t, scheduler.Start())
	t.Cleanup(scheduler.Stop)

	registered := scheduler.GetJobs()
	require.Len(t, registered, 1)
	assert.NotEmpty(t, registered[0].JobID)

	require.NoError(t, scheduler.RunJobByName(SweepExpiredAssetsJob))
	assert.Equal(t, 1, sweeper.calls)
	assert.Equal(t, 25, sweeper.limit)
	require.Len(t, notifier.fields, 1)
	assert.Equal(t, map[string]string{"Found": "2", "Deleted": "2", "Failed": "0"}, notifier.fields[0])

	assert.Error(t, scheduler.RunJobByName("missing"))
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	scheduler, err := NewScheduler(zap.NewNop().Sugar(), "Not/AZone")
	require.NoError(t, err)

	scheduler.AddJob("broken", "every now and then", func() {})
	assert.Error(t, scheduler.RegisterJobs())
}

func TestRunJobRecoversPanics(t *testing.T) {
	scheduler, err := NewScheduler(zap.NewNop().Sugar(), "UTC")
	require.NoError(t, err)

	scheduler.AddJob("panics", "* * * * *", func() { panic("boom") })
	assert.NotPanics(t, func() {
		_ = scheduler.RunJobByName("panics")
	})
}

func TestSweepJobNotifiesOnlyWhenAssetsWereFound(t *testing.T) {
	logger := zap.NewNop().Sugar()

	tests := []struct {
		name    string
		result  assets.SweepResult
		err     error
		notices int
	}{
		{"nothing expired", assets.SweepResult{}, nil, 0},
		{"sweep failed", assets.SweepResult{}, errors.New("db down"), 0},
		{"partial sweep", assets.SweepResult{Found: 3, Deleted: 1, Failed: 2}, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &stubNotifier{}
			sweeper := &stubSweeper{result: tt.result, err: tt.err}

			NewJobManager(logger, sweeper, notifier).SweepExpiredAssets(10, time.Minute)()

			assert.Equal(t, 1, sweeper.calls)
			assert.Len(t, notifier.titles, tt.notices)
		})
	}

	t.Run("nil notifier", func(t *testing.T) {
		sweeper := &stubSweeper{result: assets.SweepResult{Found: 1, Deleted: 1}}
		assert.NotPanics(t, NewJobManager(logger, sweeper, nil).SweepExpiredAssets(10, time.Minute))
	})
}
