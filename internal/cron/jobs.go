// internal/cron/jobs.go
package cron

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"godsendjoseph.dev/cdn-client/internal/assets"
)

const SweepExpiredAssetsJob = "sweep-expired-assets"

// Sweeper is the part of assets.Service the sweep job needs.
type Sweeper interface {
	SweepExpired(ctx context.Context, limit int) (assets.SweepResult, error)
}

// Notifier receives a summary of sweeps that touched any asset.
type Notifier interface {
	NotifyInfo(ctx context.Context, title string, message string, fields map[string]string) error
}

// JobManager holds all available cron jobs
type JobManager struct {
	logger   *zap.SugaredLogger
	sweeper  Sweeper
	notifier Notifier
}

// NewJobManager creates a new job manager. notifier may be nil.
func NewJobManager(logger *zap.SugaredLogger, sweeper Sweeper, notifier Notifier) *JobManager {
	return &JobManager{
		logger:   logger,
		sweeper:  sweeper,
		notifier: notifier,
	}
}

// SweepExpiredAssets deletes up to batchSize expired assets per run, each
// run bounded by timeout.
func (j *JobManager) SweepExpiredAssets(batchSize int, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := j.sweeper.SweepExpired(ctx, batchSize)
		if err != nil {
			j.logger.Errorw("error sweeping expired assets", "error", err, "deleted", result.Deleted)
			return
		}

		if result.Found == 0 {
			return
		}

		j.logger.Infow("expired assets swept",
			"found", result.Found,
			"deleted", result.Deleted,
			"failed", result.Failed)

		if j.notifier == nil {
			return
		}

		err = j.notifier.NotifyInfo(ctx, "Expired assets swept", "", map[string]string{
			"Found":   strconv.Itoa(result.Found),
			"Deleted": strconv.Itoa(result.Deleted),
			"Failed":  strconv.Itoa(result.Failed),
		})
		if err != nil {
			j.logger.Warnw("failed to notify slack", "error", err)
		}
	}
}
