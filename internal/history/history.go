// Package history records the chat turns of each user.
package history

import (
	"context"
	"time"
)

const DefaultLimit = 50

type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows History. An empty ProjectID returns messages from every
// project.
type Filter struct {
	ProjectID string
	Limit     int
}

type Store interface {
	Save(ctx context.Context, msg *Message) error
	// History returns the oldest Limit messages, ascending by creation time.
	History(ctx context.Context, userID string, f Filter) ([]*Message, error)
}
