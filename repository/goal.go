package repository

import (
	"context"

	"github.com/goalboard/backend/domain"
)

// GoalReader is the subset of goal storage the hierarchy validation walks
// over. Keeping it narrow lets validation run against fakes in tests.
type GoalReader interface {
	GetByID(ctx context.Context, id string) (*domain.Goal, error)
	ListByParent(ctx context.Context, parentID string) ([]domain.Goal, error)
	CountChildren(ctx context.Context, id string) (int, error)
}

type GoalRepository interface {
	GoalReader
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Goal, error)
	ListPublic(ctx context.Context) ([]domain.PublicGoal, error)
	GetByPublicID(ctx context.Context, publicID string) (*domain.PublicGoal, error)
	Create(ctx context.Context, goal *domain.Goal) (*domain.Goal, error)
	Update(ctx context.Context, goal *domain.Goal) error
	Delete(ctx context.Context, id string) error
}
