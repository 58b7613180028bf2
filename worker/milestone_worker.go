package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"treewatch/metrics"
	"treewatch/storage"
)

// MilestoneWorker periodically re-runs the tree_count badge check for every
// contributor with approved trees, so milestones reached through approvals
// are awarded without waiting for the contributor's next submission
type MilestoneWorker struct {
	store    *storage.Storage
	interval time.Duration
	logger   *logrus.Entry
}

func NewMilestoneWorker(store *storage.Storage, interval time.Duration) *MilestoneWorker {
	return &MilestoneWorker{
		store:    store,
		interval: interval,
		logger:   logrus.WithField("component", "milestone_worker"),
	}
}

// Start blocks until ctx is cancelled. A non-positive interval disables the worker.
func (mw *MilestoneWorker) Start(ctx context.Context) {
	if mw.interval <= 0 {
		mw.logger.Info("Milestone sweep disabled")
		return
	}

	mw.logger.WithField("interval", mw.interval.String()).Info("Starting milestone worker...")
	ticker := time.NewTicker(mw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := mw.Sweep(ctx); err != nil {
				mw.logger.WithError(err).Error("Milestone sweep failed")
			}
		case <-ctx.Done():
			mw.logger.Info("Stopping milestone worker...")
			return
		}
	}
}

// Sweep runs one pass. A failure for one contributor does not stop the pass;
// the last error is returned.
func (mw *MilestoneWorker) Sweep(ctx context.Context) error {
	contributors, err := mw.store.ContributorsWithApprovedTrees(ctx)
	if err != nil {
		metrics.RecordMilestoneSweep(false)
		return err
	}

	var lastErr error
	for _, userID := range contributors {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := mw.store.CheckTreeCountBadges(ctx, userID); err != nil {
			mw.logger.WithError(err).WithField("user_id", userID).Warn("Milestone check failed")
			lastErr = err
		}
	}

	metrics.RecordMilestoneSweep(lastErr == nil)
	mw.logger.WithField("contributors", len(contributors)).Debug("Milestone sweep completed")
	return lastErr
}
