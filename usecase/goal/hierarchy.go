package goal

import (
	"context"

	"github.com/goalboard/backend/domain"
	"github.com/goalboard/backend/repository"
)

// maxDepthHops caps the parent-chain walk. A valid tree never needs more
// than MaxGoalDepth hops; going past the cap means the stored chain is
// corrupt, so the walk fails instead of looping.
const maxDepthHops = domain.MaxGoalDepth + 2

// depthOf returns the depth of an already-loaded goal by walking its parent
// chain upward. Roots are depth 0.
func depthOf(ctx context.Context, goals repository.GoalReader, start *domain.Goal) (int, error) {
	if start == nil {
		return 0, domain.ErrGoalNotFound
	}
	current := start
	depth := 0
	for current.ParentID != nil {
		if depth >= maxDepthHops {
			return 0, domain.ErrTreeCorrupt
		}
		parent, err := goals.GetByID(ctx, *current.ParentID)
		if err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				// Dangling parent reference mid-chain.
				return 0, domain.ErrTreeCorrupt
			}
			return 0, err
		}
		current = parent
		depth++
	}
	return depth, nil
}

// resolveParent loads a prospective parent and checks ownership. A missing
// parent and a parent owned by someone else produce the same error so that
// probing cannot reveal other users' goals.
func resolveParent(ctx context.Context, goals repository.GoalReader, parentID, ownerID string) (*domain.Goal, error) {
	parent, err := goals.GetByID(ctx, parentID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrParentNotFound
		}
		return nil, err
	}
	if !parent.BelongsTo(ownerID) {
		return nil, domain.ErrParentNotFound
	}
	return parent, nil
}

// validateCreate checks that a new goal may be attached under parentID.
// A nil parentID always passes (new root).
func validateCreate(ctx context.Context, goals repository.GoalReader, ownerID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := resolveParent(ctx, goals, *parentID, ownerID)
	if err != nil {
		return err
	}
	depth, err := depthOf(ctx, goals, parent)
	if err != nil {
		return err
	}
	// A parent already at the maximum depth cannot take children.
	if depth >= domain.MaxGoalDepth {
		return domain.ErrDepthExceeded
	}
	return nil
}

// validateReparent checks that an existing goal, together with its current
// descendants, may be moved under newParentID. A nil newParentID always
// passes (detaching can only reduce depth).
func validateReparent(ctx context.Context, goals repository.GoalReader, g *domain.Goal, ownerID string, newParentID *string) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == g.ID {
		return domain.ErrSelfParent
	}
	parent, err := resolveParent(ctx, goals, *newParentID, ownerID)
	if err != nil {
		return err
	}
	// The new parent must not sit anywhere below the goal being moved, or
	// the committed chain would loop back on itself.
	cyclic, err := isAncestor(ctx, goals, parent, g.ID)
	if err != nil {
		return err
	}
	if cyclic {
		return domain.ErrSelfParent
	}
	parentDepth, err := depthOf(ctx, goals, parent)
	if err != nil {
		return err
	}
	below, err := maxChildDepthBelow(ctx, goals, g.ID)
	if err != nil {
		return err
	}
	if parentDepth+1+below > domain.MaxGoalDepth {
		return domain.ErrDepthExceeded
	}
	return nil
}

// isAncestor reports whether id appears in start's parent chain, start
// itself included. The walk is bounded the same way depthOf is.
func isAncestor(ctx context.Context, goals repository.GoalReader, start *domain.Goal, id string) (bool, error) {
	current := start
	for hops := 0; current != nil; hops++ {
		if hops > maxDepthHops {
			return false, domain.ErrTreeCorrupt
		}
		if current.ID == id {
			return true, nil
		}
		if current.ParentID == nil {
			return false, nil
		}
		parent, err := goals.GetByID(ctx, *current.ParentID)
		if err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return false, domain.ErrTreeCorrupt
			}
			return false, err
		}
		current = parent
	}
	return false, nil
}

// maxChildDepthBelow reports the height of the tallest descendant chain
// under the goal: 1 if any child has children of its own, else 0. One level
// of grandchildren is all that can exist given the overall bound, so no
// deeper scan is needed.
func maxChildDepthBelow(ctx context.Context, goals repository.GoalReader, id string) (int, error) {
	children, err := goals.ListByParent(ctx, id)
	if err != nil {
		return 0, err
	}
	for _, child := range children {
		count, err := goals.CountChildren(ctx, child.ID)
		if err != nil {
			return 0, err
		}
		if count > 0 {
			return 1, nil
		}
	}
	return 0, nil
}
