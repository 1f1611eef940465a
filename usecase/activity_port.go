package usecase

import (
	"context"

	"github.com/goalboard/backend/domain"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// ActivityRecorder abstracts the activity log so use cases stay storage-agnostic.
// Recording happens after a successful commit and must never influence the
// outcome of the operation itself.
type ActivityRecorder interface {
	RecordGoal(ctx context.Context, operation string, goal *domain.Goal) error
}
