package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goalboard/backend/domain"
	"github.com/goalboard/backend/repository"
)

type goalRepository struct {
	pool *pgxpool.Pool
}

// NewGoalRepository returns a Postgres-backed implementation of GoalRepository.
func NewGoalRepository(pool *pgxpool.Pool) repository.GoalRepository {
	return &goalRepository{pool: pool}
}

const goalColumns = `id, owner_id, title, description, deadline, is_public, public_id, parent_id, sort_order, created_at, updated_at`

// Matches the partial unique index in the schema.
const goalsPublicIDConstraint = "goals_public_id_key"

func (r *goalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	const query = `
	SELECT ` + goalColumns + `
	FROM goals
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanGoal(row)
}

func (r *goalRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Goal, error) {
	// Roots first, then sibling groups keyed by parent id; inside each group
	// the caller-supplied order wins, creation time breaks ties.
	const query = `
	SELECT ` + goalColumns + `
	FROM goals
	WHERE owner_id = $1
	ORDER BY parent_id ASC NULLS FIRST, sort_order ASC, created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGoals(rows)
}

func (r *goalRepository) ListByParent(ctx context.Context, parentID string) ([]domain.Goal, error) {
	const query = `
	SELECT ` + goalColumns + `
	FROM goals
	WHERE parent_id = $1
	ORDER BY sort_order ASC, created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGoals(rows)
}

func (r *goalRepository) CountChildren(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM goals WHERE parent_id = $1`
	var count int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *goalRepository) ListPublic(ctx context.Context) ([]domain.PublicGoal, error) {
	const query = `
	SELECT g.id, g.owner_id, g.title, g.description, g.deadline, g.is_public, g.public_id,
	       g.parent_id, g.sort_order, g.created_at, g.updated_at, u.email
	FROM goals g
	JOIN users u ON u.id = g.owner_id
	WHERE g.is_public
	ORDER BY g.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.PublicGoal
	for rows.Next() {
		goal, err := scanPublicGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}
	return goals, rows.Err()
}

func (r *goalRepository) GetByPublicID(ctx context.Context, publicID string) (*domain.PublicGoal, error) {
	const query = `
	SELECT g.id, g.owner_id, g.title, g.description, g.deadline, g.is_public, g.public_id,
	       g.parent_id, g.sort_order, g.created_at, g.updated_at, u.email
	FROM goals g
	JOIN users u ON u.id = g.owner_id
	WHERE g.public_id = $1 AND g.is_public
	`
	return scanPublicGoal(r.pool.QueryRow(ctx, query, publicID))
}

func (r *goalRepository) Create(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	if goal == nil {
		return nil, domain.ErrInvalidPayload
	}
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO goals (id, owner_id, title, description, deadline, is_public, public_id, parent_id, sort_order)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		goal.ID,
		goal.OwnerID,
		goal.Title,
		goal.Description,
		goal.Deadline,
		goal.IsPublic,
		nullableString(goal.PublicID),
		nullableString(goal.ParentID),
		goal.Order,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt); err != nil {
		if uniqueViolation(err, goalsPublicIDConstraint) {
			return nil, domain.ErrPublicIDTaken
		}
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	if goal == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE goals
	SET title = $2,
		description = $3,
		deadline = $4,
		is_public = $5,
		public_id = $6,
		parent_id = $7,
		sort_order = $8,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		goal.ID,
		goal.Title,
		goal.Description,
		goal.Deadline,
		goal.IsPublic,
		nullableString(goal.PublicID),
		nullableString(goal.ParentID),
		goal.Order,
	).Scan(&goal.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrGoalNotFound
		}
		if uniqueViolation(err, goalsPublicIDConstraint) {
			return domain.ErrPublicIDTaken
		}
		return err
	}

	return nil
}

func (r *goalRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM goals WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

func scanGoal(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Goal, error) {
	var goal domain.Goal
	if err := row.Scan(
		&goal.ID,
		&goal.OwnerID,
		&goal.Title,
		&goal.Description,
		&goal.Deadline,
		&goal.IsPublic,
		&goal.PublicID,
		&goal.ParentID,
		&goal.Order,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}
	return &goal, nil
}

func scanPublicGoal(row interface {
	Scan(dest ...interface{}) error
}) (*domain.PublicGoal, error) {
	var goal domain.PublicGoal
	if err := row.Scan(
		&goal.ID,
		&goal.OwnerID,
		&goal.Title,
		&goal.Description,
		&goal.Deadline,
		&goal.IsPublic,
		&goal.PublicID,
		&goal.ParentID,
		&goal.Order,
		&goal.CreatedAt,
		&goal.UpdatedAt,
		&goal.OwnerEmail,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}
	return &goal, nil
}

func collectGoals(rows pgx.Rows) ([]domain.Goal, error) {
	var goals []domain.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}
	return goals, rows.Err()
}
