package domain

import "time"

// MaxGoalDepth is the deepest level a goal may occupy: 0 (root), 1 (child),
// 2 (grandchild). A goal at depth 2 may not have children.
const MaxGoalDepth = 2

// Goal represents a user-owned node in a bounded goal hierarchy.
type Goal struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Deadline    string    `json:"deadline"`
	IsPublic    bool      `json:"is_public"`
	PublicID    *string   `json:"public_id,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsRoot reports whether the goal has no parent.
func (g *Goal) IsRoot() bool {
	return g != nil && g.ParentID == nil
}

// BelongsTo reports whether the goal is owned by the given user. Callers
// treat a false result exactly like a missing record so that ownership
// mismatches never reveal that the goal exists.
func (g *Goal) BelongsTo(ownerID string) bool {
	return g != nil && ownerID != "" && g.OwnerID == ownerID
}

// PublicGoal is a goal enriched with the owner's public-facing identity,
// returned by the unauthenticated read operations.
type PublicGoal struct {
	Goal
	OwnerEmail string `json:"owner_email"`
}
