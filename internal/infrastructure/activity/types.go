package activity

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded goal mutation.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GoalID    string    `json:"goal_id"`
	Operation string    `json:"operation"`
	Title     string    `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	bucketKey []byte
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
}
