package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/goalboard/backend/domain"
	"github.com/goalboard/backend/internal/infrastructure/activity"
	"github.com/goalboard/backend/usecase"
)

// ActivityConfig controls retention of the local activity log.
type ActivityConfig struct {
	Retention     time.Duration
	PruneInterval time.Duration
}

// ActivityLog records goal mutations after they commit and prunes old
// entries on a schedule. It is strictly observational: a failed append is
// logged and dropped, never propagated into the operation result.
type ActivityLog struct {
	store  *activity.Store
	logger *zap.Logger
	cron   *cron.Cron
	cfg    ActivityConfig
}

func NewActivityLog(store *activity.Store, logger *zap.Logger, cfg ActivityConfig) *ActivityLog {
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	al := &ActivityLog{
		store:  store,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.PruneInterval.Seconds()))
	if _, err := al.cron.AddFunc(schedule, func() {
		if err := al.store.Prune(time.Now().Add(-al.cfg.Retention)); err != nil {
			al.logger.Error("activity prune failed", zap.Error(err))
		}
	}); err != nil {
		// Pruning stays off until the interval is fixed; appends still work.
		al.logger.Error("activity prune schedule rejected",
			zap.String("schedule", schedule),
			zap.Error(err))
	}

	return al
}

// Start launches the prune scheduler.
func (al *ActivityLog) Start() {
	if al == nil || al.cron == nil {
		return
	}
	al.cron.Start()
	al.logger.Info("activity log started")
}

// Stop gracefully stops the scheduler.
func (al *ActivityLog) Stop(ctx context.Context) {
	if al == nil || al.cron == nil {
		return
	}
	stopCtx := al.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	al.logger.Info("activity log stopped")
}

// RecordGoal appends one mutation to the log.
func (al *ActivityLog) RecordGoal(_ context.Context, operation string, goal *domain.Goal) error {
	if al == nil || al.store == nil || goal == nil {
		return domain.ErrInvalidPayload
	}
	return al.store.Append(activity.Entry{
		UserID:    goal.OwnerID,
		GoalID:    goal.ID,
		Operation: operation,
		Title:     goal.Title,
	})
}

// Feed returns the user's most recent entries, newest first.
func (al *ActivityLog) Feed(_ context.Context, userID string, limit int) ([]activity.Entry, error) {
	if al == nil || al.store == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "activity log not configured")
	}
	return al.store.RecentByUser(userID, limit)
}

// Size returns the number of stored entries.
func (al *ActivityLog) Size() int {
	if al == nil || al.store == nil {
		return 0
	}
	size, err := al.store.Size()
	if err != nil {
		return 0
	}
	return size
}

var _ usecase.ActivityRecorder = (*ActivityLog)(nil)
