package transport

import (
	"bytes"
	"encoding/json"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type CreateGoalRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Deadline    string  `json:"deadline"`
	IsPublic    bool    `json:"is_public"`
	ParentID    *string `json:"parent_id"`
	Order       int     `json:"order"`
}

// UpdateGoalRequest is a partial update. ParentID stays raw so the handler
// can tell "field absent" (nil) apart from "set to null" (literal null,
// meaning detach to root).
type UpdateGoalRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Deadline    *string         `json:"deadline"`
	Order       *int            `json:"order"`
	IsPublic    *bool           `json:"is_public"`
	ParentID    json.RawMessage `json:"parent_id"`
}

var jsonNull = []byte("null")

// ParentPatch decodes the raw parent field: provided reports whether the
// field was present at all, id is nil when the goal should become a root.
func (r *UpdateGoalRequest) ParentPatch() (id *string, provided bool, err error) {
	if len(r.ParentID) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(r.ParentID), jsonNull) {
		return nil, true, nil
	}
	var value string
	if err := json.Unmarshal(r.ParentID, &value); err != nil {
		return nil, false, err
	}
	return &value, true, nil
}
