package goal

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalboard/backend/domain"
)

// fakeGoalRepo is an in-memory stand-in for the Postgres repository. It
// mimics the store contract the service relies on, including the unique
// violation on public ids.
type fakeGoalRepo struct {
	mu       sync.Mutex
	goals    map[string]domain.Goal
	emails   map[string]string
	reserved map[string]bool
	clock    time.Time
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{
		goals:    make(map[string]domain.Goal),
		emails:   make(map[string]string),
		reserved: make(map[string]bool),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeGoalRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeGoalRepo) publicIDInUse(publicID string, exceptID string) bool {
	if f.reserved[publicID] {
		return true
	}
	for id, g := range f.goals {
		if id != exceptID && g.PublicID != nil && *g.PublicID == publicID {
			return true
		}
	}
	return false
}

func (f *fakeGoalRepo) GetByID(_ context.Context, id string) (*domain.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	copied := g
	return &copied, nil
}

func (f *fakeGoalRepo) ListByParent(_ context.Context, parentID string) ([]domain.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Goal
	for _, g := range f.goals {
		if g.ParentID != nil && *g.ParentID == parentID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeGoalRepo) CountChildren(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, g := range f.goals {
		if g.ParentID != nil && *g.ParentID == id {
			count++
		}
	}
	return count, nil
}

func (f *fakeGoalRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Goal
	for _, g := range f.goals {
		if g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := "", ""
		if out[i].ParentID != nil {
			pi = *out[i].ParentID
		}
		if out[j].ParentID != nil {
			pj = *out[j].ParentID
		}
		if pi != pj {
			return pi < pj
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeGoalRepo) ListPublic(_ context.Context) ([]domain.PublicGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PublicGoal
	for _, g := range f.goals {
		if g.IsPublic {
			out = append(out, domain.PublicGoal{Goal: g, OwnerEmail: f.emails[g.OwnerID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeGoalRepo) GetByPublicID(_ context.Context, publicID string) (*domain.PublicGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.goals {
		if g.IsPublic && g.PublicID != nil && *g.PublicID == publicID {
			return &domain.PublicGoal{Goal: g, OwnerEmail: f.emails[g.OwnerID]}, nil
		}
	}
	return nil, domain.ErrGoalNotFound
}

func (f *fakeGoalRepo) Create(_ context.Context, goal *domain.Goal) (*domain.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.PublicID != nil && f.publicIDInUse(*goal.PublicID, goal.ID) {
		return nil, domain.ErrPublicIDTaken
	}
	goal.CreatedAt = f.tick()
	goal.UpdatedAt = goal.CreatedAt
	f.goals[goal.ID] = *goal
	copied := *goal
	return &copied, nil
}

func (f *fakeGoalRepo) Update(_ context.Context, goal *domain.Goal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.goals[goal.ID]; !ok {
		return domain.ErrGoalNotFound
	}
	if goal.PublicID != nil && f.publicIDInUse(*goal.PublicID, goal.ID) {
		return domain.ErrPublicIDTaken
	}
	goal.UpdatedAt = f.tick()
	f.goals[goal.ID] = *goal
	return nil
}

func (f *fakeGoalRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.goals[id]; !ok {
		return domain.ErrGoalNotFound
	}
	delete(f.goals, id)
	return nil
}

// seqAllocator returns the scripted values in order, then falls back to
// random UUIDs.
func seqAllocator(values ...string) *Allocator {
	i := 0
	return &Allocator{generate: func() string {
		if i < len(values) {
			v := values[i]
			i++
			return v
		}
		return uuid.NewString()
	}}
}

func newTestUseCase(t *testing.T) (*UseCase, *fakeGoalRepo) {
	t.Helper()
	repo := newFakeGoalRepo()
	return New(repo, NewAllocator(), nil, nil), repo
}

const owner = "user-a"

func mustCreate(t *testing.T, uc *UseCase, ownerID string, input CreateInput) *domain.Goal {
	t.Helper()
	goal, err := uc.Create(context.Background(), ownerID, input)
	require.NoError(t, err)
	return goal
}

func TestCreateRootChildGrandchild(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	root := mustCreate(t, uc, owner, CreateInput{Title: "learn go", Deadline: "2025-12-31"})
	require.Nil(t, root.ParentID)

	child := mustCreate(t, uc, owner, CreateInput{Title: "read book", Deadline: "2025-06-30", ParentID: &root.ID})
	grand := mustCreate(t, uc, owner, CreateInput{Title: "chapter one", Deadline: "2025-02-28", ParentID: &child.ID})

	// A depth-2 goal cannot take children.
	_, err := uc.Create(ctx, owner, CreateInput{Title: "too deep", Deadline: "2025-01-31", ParentID: &grand.ID})
	assert.ErrorIs(t, err, domain.ErrDepthExceeded)
}

func TestCreateParentMissingOrForeign(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	foreign := mustCreate(t, uc, "user-b", CreateInput{Title: "theirs", Deadline: "2025-12-31"})

	missing := "no-such-id"
	_, errMissing := uc.Create(ctx, owner, CreateInput{Title: "orphan", Deadline: "2025-12-31", ParentID: &missing})
	_, errForeign := uc.Create(ctx, owner, CreateInput{Title: "trespass", Deadline: "2025-12-31", ParentID: &foreign.ID})

	// Missing and not-owned collapse to the same error so existence of
	// other users' goals never leaks.
	assert.ErrorIs(t, errMissing, domain.ErrParentNotFound)
	assert.ErrorIs(t, errForeign, domain.ErrParentNotFound)
}

func TestGetOwnershipCollapsesToNotFound(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	goal := mustCreate(t, uc, owner, CreateInput{Title: "mine", Deadline: "2025-12-31"})

	_, err := uc.Get(ctx, "user-b", goal.ID)
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)

	_, err = uc.Get(ctx, owner, "no-such-id")
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)
}

func TestReparentSelf(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	goal := mustCreate(t, uc, owner, CreateInput{Title: "loop", Deadline: "2025-12-31"})

	_, err := uc.Update(ctx, owner, goal.ID, Patch{ParentID: &goal.ID, ParentSet: true})
	assert.ErrorIs(t, err, domain.ErrSelfParent)
}

func TestReparentUnderOwnDescendant(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	root := mustCreate(t, uc, owner, CreateInput{Title: "root", Deadline: "2025-12-31"})
	child := mustCreate(t, uc, owner, CreateInput{Title: "child", Deadline: "2025-12-31", ParentID: &root.ID})

	// Moving the root under its own child would close a two-node cycle;
	// the depth arithmetic alone (1+1+0) would let it through.
	_, err := uc.Update(ctx, owner, root.ID, Patch{ParentID: &child.ID, ParentSet: true})
	assert.ErrorIs(t, err, domain.ErrSelfParent)

	// The tree is untouched and still walkable.
	kept, err := uc.Get(ctx, owner, root.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.ParentID)

	grand := mustCreate(t, uc, owner, CreateInput{Title: "grandchild", Deadline: "2025-12-31", ParentID: &child.ID})
	_, err = uc.Update(ctx, owner, root.ID, Patch{ParentID: &grand.ID, ParentSet: true})
	assert.Error(t, err)
}

func TestReparentRespectsSubtreeHeight(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	root := mustCreate(t, uc, owner, CreateInput{Title: "root", Deadline: "2025-12-31"})
	child := mustCreate(t, uc, owner, CreateInput{Title: "child", Deadline: "2025-12-31", ParentID: &root.ID})
	mustCreate(t, uc, owner, CreateInput{Title: "grandchild", Deadline: "2025-12-31", ParentID: &child.ID})

	otherRoot := mustCreate(t, uc, owner, CreateInput{Title: "other root", Deadline: "2025-12-31"})
	otherChild := mustCreate(t, uc, owner, CreateInput{Title: "other child", Deadline: "2025-12-31", ParentID: &otherRoot.ID})

	// child carries a grandchild, so under a depth-1 parent it would land
	// its subtree at depth 3.
	_, err := uc.Update(ctx, owner, child.ID, Patch{ParentID: &otherChild.ID, ParentSet: true})
	assert.ErrorIs(t, err, domain.ErrDepthExceeded)

	// Under a root the subtree still fits.
	updated, err := uc.Update(ctx, owner, child.ID, Patch{ParentID: &otherRoot.ID, ParentSet: true})
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, otherRoot.ID, *updated.ParentID)
}

func TestReparentToRootAlwaysAllowed(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	root := mustCreate(t, uc, owner, CreateInput{Title: "root", Deadline: "2025-12-31"})
	child := mustCreate(t, uc, owner, CreateInput{Title: "child", Deadline: "2025-12-31", ParentID: &root.ID})

	updated, err := uc.Update(ctx, owner, child.ID, Patch{ParentID: nil, ParentSet: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
}

func TestPublicToggleLifecycle(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	goal := mustCreate(t, uc, owner, CreateInput{Title: "shared", Deadline: "2025-12-31", IsPublic: true})
	require.NotNil(t, goal.PublicID)
	oldPublicID := *goal.PublicID

	fetched, err := uc.GetByPublicID(ctx, oldPublicID)
	require.NoError(t, err)
	assert.Equal(t, goal.ID, fetched.ID)

	// Toggling off clears the public id and kills the old link.
	off := false
	updated, err := uc.Update(ctx, owner, goal.ID, Patch{IsPublic: &off})
	require.NoError(t, err)
	assert.False(t, updated.IsPublic)
	assert.Nil(t, updated.PublicID)

	_, err = uc.GetByPublicID(ctx, oldPublicID)
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)

	// Toggling back on mints a fresh id.
	on := true
	updated, err = uc.Update(ctx, owner, goal.ID, Patch{IsPublic: &on})
	require.NoError(t, err)
	require.NotNil(t, updated.PublicID)
	assert.NotEqual(t, oldPublicID, *updated.PublicID)
}

func TestPublicIDCollisionRetriesOnce(t *testing.T) {
	repo := newFakeGoalRepo()
	repo.reserved["taken"] = true
	uc := New(repo, seqAllocator("taken", "fresh"), nil, nil)

	goal, err := uc.Create(context.Background(), owner, CreateInput{Title: "shared", Deadline: "2025-12-31", IsPublic: true})
	require.NoError(t, err)
	require.NotNil(t, goal.PublicID)
	assert.Equal(t, "fresh", *goal.PublicID)
}

func TestPublicIDDoubleCollisionConflicts(t *testing.T) {
	repo := newFakeGoalRepo()
	repo.reserved["taken-1"] = true
	repo.reserved["taken-2"] = true
	uc := New(repo, seqAllocator("taken-1", "taken-2"), nil, nil)

	_, err := uc.Create(context.Background(), owner, CreateInput{Title: "shared", Deadline: "2025-12-31", IsPublic: true})
	assert.ErrorIs(t, err, domain.ErrPublicIDConflict)

	// Nothing was committed.
	goals, listErr := uc.List(context.Background(), owner)
	require.NoError(t, listErr)
	assert.Empty(t, goals)
}

func TestUpdatePublicIDCollisionRetriesOnce(t *testing.T) {
	repo := newFakeGoalRepo()
	repo.reserved["taken"] = true
	uc := New(repo, seqAllocator("taken", "fresh"), nil, nil)
	ctx := context.Background()

	goal := mustCreate(t, uc, owner, CreateInput{Title: "private", Deadline: "2025-12-31"})

	on := true
	updated, err := uc.Update(ctx, owner, goal.ID, Patch{IsPublic: &on})
	require.NoError(t, err)
	require.NotNil(t, updated.PublicID)
	assert.Equal(t, "fresh", *updated.PublicID)
}

func TestRemoveRefusedWithChildren(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	root := mustCreate(t, uc, owner, CreateInput{Title: "root", Deadline: "2025-12-31"})
	child := mustCreate(t, uc, owner, CreateInput{Title: "child", Deadline: "2025-12-31", ParentID: &root.ID})

	err := uc.Remove(ctx, owner, root.ID)
	assert.ErrorIs(t, err, domain.ErrHasChildren)

	require.NoError(t, uc.Remove(ctx, owner, child.ID))
	require.NoError(t, uc.Remove(ctx, owner, root.ID))

	goals, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestListGroupsSiblingsByOrder(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	root := mustCreate(t, uc, owner, CreateInput{Title: "root", Deadline: "2025-12-31"})
	second := mustCreate(t, uc, owner, CreateInput{Title: "second", Deadline: "2025-12-31", ParentID: &root.ID, Order: 2})
	first := mustCreate(t, uc, owner, CreateInput{Title: "first", Deadline: "2025-12-31", ParentID: &root.ID, Order: 1})

	goals, err := uc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.Equal(t, root.ID, goals[0].ID)
	assert.Equal(t, first.ID, goals[1].ID)
	assert.Equal(t, second.ID, goals[2].ID)
}

func TestListPublicNewestFirstWithOwnerEmail(t *testing.T) {
	repo := newFakeGoalRepo()
	repo.emails[owner] = "a@example.com"
	uc := New(repo, NewAllocator(), nil, nil)
	ctx := context.Background()

	older := mustCreate(t, uc, owner, CreateInput{Title: "older", Deadline: "2025-12-31", IsPublic: true})
	newer := mustCreate(t, uc, owner, CreateInput{Title: "newer", Deadline: "2025-12-31", IsPublic: true})
	mustCreate(t, uc, owner, CreateInput{Title: "private", Deadline: "2025-12-31"})

	goals, err := uc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, newer.ID, goals[0].ID)
	assert.Equal(t, older.ID, goals[1].ID)
	assert.Equal(t, "a@example.com", goals[0].OwnerEmail)
}

func TestPublicIDPresentIffPublic(t *testing.T) {
	uc, repo := newTestUseCase(t)
	ctx := context.Background()

	root := mustCreate(t, uc, owner, CreateInput{Title: "root", Deadline: "2025-12-31", IsPublic: true})
	child := mustCreate(t, uc, owner, CreateInput{Title: "child", Deadline: "2025-12-31", ParentID: &root.ID})

	off := false
	_, err := uc.Update(ctx, owner, root.ID, Patch{IsPublic: &off})
	require.NoError(t, err)
	on := true
	_, err = uc.Update(ctx, owner, child.ID, Patch{IsPublic: &on})
	require.NoError(t, err)

	for _, g := range repo.goals {
		assert.Equal(t, g.IsPublic, g.PublicID != nil, "goal %q", g.Title)
	}
}

type countingRecorder struct {
	ops []string
}

func (c *countingRecorder) RecordGoal(_ context.Context, operation string, _ *domain.Goal) error {
	c.ops = append(c.ops, operation)
	return nil
}

func TestMutationsAreRecorded(t *testing.T) {
	repo := newFakeGoalRepo()
	recorder := &countingRecorder{}
	uc := New(repo, NewAllocator(), recorder, nil)
	ctx := context.Background()

	goal := mustCreate(t, uc, owner, CreateInput{Title: "tracked", Deadline: "2025-12-31"})
	title := "renamed"
	_, err := uc.Update(ctx, owner, goal.ID, Patch{Title: &title})
	require.NoError(t, err)
	require.NoError(t, uc.Remove(ctx, owner, goal.ID))

	assert.Equal(t, []string{"create", "update", "delete"}, recorder.ops)
}
