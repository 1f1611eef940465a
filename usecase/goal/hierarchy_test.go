package goal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalboard/backend/domain"
)

func strPtr(s string) *string { return &s }

func TestDepthOfWalksToRoot(t *testing.T) {
	repo := newFakeGoalRepo()
	repo.goals["r"] = domain.Goal{ID: "r", OwnerID: owner}
	repo.goals["c"] = domain.Goal{ID: "c", OwnerID: owner, ParentID: strPtr("r")}
	repo.goals["g"] = domain.Goal{ID: "g", OwnerID: owner, ParentID: strPtr("c")}

	for id, want := range map[string]int{"r": 0, "c": 1, "g": 2} {
		start, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		depth, err := depthOf(context.Background(), repo, start)
		require.NoError(t, err)
		assert.Equal(t, want, depth, "goal %q", id)
	}
}

func TestDepthOfFailsSafeOnCycle(t *testing.T) {
	// A cycle can only exist through store corruption; the walk must stop
	// at the hop cap instead of spinning.
	repo := newFakeGoalRepo()
	repo.goals["a"] = domain.Goal{ID: "a", OwnerID: owner, ParentID: strPtr("b")}
	repo.goals["b"] = domain.Goal{ID: "b", OwnerID: owner, ParentID: strPtr("a")}

	start, err := repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	_, err = depthOf(context.Background(), repo, start)
	assert.ErrorIs(t, err, domain.ErrTreeCorrupt)
}

func TestDepthOfFailsSafeOnDanglingParent(t *testing.T) {
	repo := newFakeGoalRepo()
	repo.goals["orphan"] = domain.Goal{ID: "orphan", OwnerID: owner, ParentID: strPtr("gone")}

	start, err := repo.GetByID(context.Background(), "orphan")
	require.NoError(t, err)
	_, err = depthOf(context.Background(), repo, start)
	assert.ErrorIs(t, err, domain.ErrTreeCorrupt)
}

func TestIsAncestor(t *testing.T) {
	repo := newFakeGoalRepo()
	repo.goals["r"] = domain.Goal{ID: "r", OwnerID: owner}
	repo.goals["c"] = domain.Goal{ID: "c", OwnerID: owner, ParentID: strPtr("r")}
	repo.goals["g"] = domain.Goal{ID: "g", OwnerID: owner, ParentID: strPtr("c")}
	repo.goals["x"] = domain.Goal{ID: "x", OwnerID: owner}

	grand, err := repo.GetByID(context.Background(), "g")
	require.NoError(t, err)

	for id, want := range map[string]bool{"g": true, "c": true, "r": true, "x": false} {
		found, err := isAncestor(context.Background(), repo, grand, id)
		require.NoError(t, err)
		assert.Equal(t, want, found, "ancestor %q", id)
	}
}

func TestMaxChildDepthBelow(t *testing.T) {
	repo := newFakeGoalRepo()
	repo.goals["r"] = domain.Goal{ID: "r", OwnerID: owner}
	repo.goals["c1"] = domain.Goal{ID: "c1", OwnerID: owner, ParentID: strPtr("r")}
	repo.goals["c2"] = domain.Goal{ID: "c2", OwnerID: owner, ParentID: strPtr("r")}

	below, err := maxChildDepthBelow(context.Background(), repo, "r")
	require.NoError(t, err)
	assert.Equal(t, 0, below)

	repo.goals["g"] = domain.Goal{ID: "g", OwnerID: owner, ParentID: strPtr("c2")}

	below, err = maxChildDepthBelow(context.Background(), repo, "r")
	require.NoError(t, err)
	assert.Equal(t, 1, below)

	below, err = maxChildDepthBelow(context.Background(), repo, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, below)
}

func TestValidateCreateDepthBound(t *testing.T) {
	repo := newFakeGoalRepo()
	repo.goals["r"] = domain.Goal{ID: "r", OwnerID: owner}
	repo.goals["c"] = domain.Goal{ID: "c", OwnerID: owner, ParentID: strPtr("r")}
	repo.goals["g"] = domain.Goal{ID: "g", OwnerID: owner, ParentID: strPtr("c")}

	assert.NoError(t, validateCreate(context.Background(), repo, owner, nil))
	assert.NoError(t, validateCreate(context.Background(), repo, owner, strPtr("r")))
	assert.NoError(t, validateCreate(context.Background(), repo, owner, strPtr("c")))
	assert.ErrorIs(t, validateCreate(context.Background(), repo, owner, strPtr("g")), domain.ErrDepthExceeded)
}

func TestAllocatorProducesUniqueTokens(t *testing.T) {
	ids := NewAllocator()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := ids.Next()
		require.NotEmpty(t, token)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
