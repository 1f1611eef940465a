// Package goal implements the goal hierarchy service: depth-bounded tree
// maintenance, reparenting validation and collision-safe public identifier
// assignment.
//
// Depth and ownership validation is a read-then-write check; two concurrent
// writes touching the same subtree can race between validation and commit.
// The store's atomic single-record writes and the unique index on public_id
// keep records internally consistent, and the workload is low-contention
// personal data, so no locking is layered on top.
package goal

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goalboard/backend/domain"
	"github.com/goalboard/backend/repository"
	"github.com/goalboard/backend/usecase"
)

type UseCase struct {
	goals    repository.GoalRepository
	ids      *Allocator
	activity usecase.ActivityRecorder
	logger   *zap.Logger
}

func New(goals repository.GoalRepository, ids *Allocator, activity usecase.ActivityRecorder, logger *zap.Logger) *UseCase {
	if ids == nil {
		ids = NewAllocator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		goals:    goals,
		ids:      ids,
		activity: activity,
		logger:   logger,
	}
}

// CreateInput carries the caller-supplied fields for a new goal. Field
// validation (presence, length, format) happens at the transport layer.
type CreateInput struct {
	Title       string
	Description string
	Deadline    string
	IsPublic    bool
	ParentID    *string
	Order       int
}

// Patch carries a partial update. Nil pointers mean "leave unchanged";
// ParentSet distinguishes "detach to root" (true, nil ParentID) from
// "don't touch the parent" (false).
type Patch struct {
	Title       *string
	Description *string
	Deadline    *string
	Order       *int
	IsPublic    *bool
	ParentID    *string
	ParentSet   bool
}

func (uc *UseCase) Create(ctx context.Context, ownerID string, input CreateInput) (*domain.Goal, error) {
	if err := validateCreate(ctx, uc.goals, ownerID, input.ParentID); err != nil {
		return nil, err
	}

	goal := &domain.Goal{
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		IsPublic:    input.IsPublic,
		ParentID:    input.ParentID,
		Order:       input.Order,
	}
	if goal.IsPublic {
		publicID := uc.ids.Next()
		goal.PublicID = &publicID
	}

	created, err := uc.createWithRetry(ctx, goal)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, usecase.OperationCreate, created)
	return created, nil
}

// Get returns the goal only when it exists and belongs to the caller; any
// other outcome is the same not-found error.
func (uc *UseCase) Get(ctx context.Context, ownerID, id string) (*domain.Goal, error) {
	goal, err := uc.goals.GetByID(ctx, id)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}
	if !goal.BelongsTo(ownerID) {
		return nil, domain.ErrGoalNotFound
	}
	return goal, nil
}

func (uc *UseCase) List(ctx context.Context, ownerID string) ([]domain.Goal, error) {
	return uc.goals.ListByOwner(ctx, ownerID)
}

func (uc *UseCase) Update(ctx context.Context, ownerID, id string, patch Patch) (*domain.Goal, error) {
	current, err := uc.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	// Build the candidate record from an immutable snapshot; nothing is
	// persisted until every check has passed.
	next := *current

	if patch.ParentSet {
		if err := validateReparent(ctx, uc.goals, current, ownerID, patch.ParentID); err != nil {
			return nil, err
		}
		next.ParentID = patch.ParentID
	}

	if patch.IsPublic != nil {
		next.IsPublic = *patch.IsPublic
		if next.IsPublic {
			if next.PublicID == nil {
				publicID := uc.ids.Next()
				next.PublicID = &publicID
			}
		} else {
			next.PublicID = nil
		}
	}

	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Deadline != nil {
		next.Deadline = *patch.Deadline
	}
	if patch.Order != nil {
		next.Order = *patch.Order
	}

	if err := uc.updateWithRetry(ctx, &next); err != nil {
		return nil, err
	}
	uc.record(ctx, usecase.OperationUpdate, &next)
	return &next, nil
}

func (uc *UseCase) Remove(ctx context.Context, ownerID, id string) error {
	goal, err := uc.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	children, err := uc.goals.CountChildren(ctx, goal.ID)
	if err != nil {
		return err
	}
	if children > 0 {
		return domain.ErrHasChildren
	}

	if err := uc.goals.Delete(ctx, goal.ID); err != nil {
		return err
	}
	uc.record(ctx, usecase.OperationDelete, goal)
	return nil
}

func (uc *UseCase) ListPublic(ctx context.Context) ([]domain.PublicGoal, error) {
	return uc.goals.ListPublic(ctx)
}

func (uc *UseCase) GetByPublicID(ctx context.Context, publicID string) (*domain.PublicGoal, error) {
	goal, err := uc.goals.GetByPublicID(ctx, publicID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}
	return goal, nil
}

// createWithRetry persists a new goal, regenerating the public identifier
// exactly once if the store reports it taken. A second violation means the
// allocator is degraded, not racing, and surfaces as a conflict.
func (uc *UseCase) createWithRetry(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	created, err := uc.goals.Create(ctx, goal)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, domain.ErrPublicIDTaken) || goal.PublicID == nil {
		return nil, err
	}

	uc.logger.Warn("public id collision on create, retrying", zap.String("goal_id", goal.ID))
	publicID := uc.ids.Next()
	goal.PublicID = &publicID

	created, err = uc.goals.Create(ctx, goal)
	if errors.Is(err, domain.ErrPublicIDTaken) {
		return nil, domain.ErrPublicIDConflict
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (uc *UseCase) updateWithRetry(ctx context.Context, goal *domain.Goal) error {
	err := uc.goals.Update(ctx, goal)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrPublicIDTaken) || goal.PublicID == nil {
		return err
	}

	uc.logger.Warn("public id collision on update, retrying", zap.String("goal_id", goal.ID))
	publicID := uc.ids.Next()
	goal.PublicID = &publicID

	err = uc.goals.Update(ctx, goal)
	if errors.Is(err, domain.ErrPublicIDTaken) {
		return domain.ErrPublicIDConflict
	}
	return err
}

func (uc *UseCase) record(ctx context.Context, operation string, goal *domain.Goal) {
	if uc.activity == nil {
		return
	}
	if err := uc.activity.RecordGoal(ctx, operation, goal); err != nil {
		uc.logger.Warn("failed to record goal activity",
			zap.String("operation", operation),
			zap.String("goal_id", goal.ID),
			zap.Error(err))
	}
}
