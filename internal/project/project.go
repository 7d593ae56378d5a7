// Package project stores user website projects and converts them to and from
// the downloadable project file.
package project

import (
	"context"
	"errors"
	"time"

	"github.com/MadScientist85/Ai-Web-App/internal/provider"
)

var ErrNotFound = errors.New("project not found")

// File types a project may carry.
const (
	FileHTML = "html"
	FileCSS  = "css"
	FileJS   = "js"
	FileJSON = "json"
	FileTXT  = "txt"
)

type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

type Project struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Files        []File             `json:"files"`
	ChatMessages []provider.Message `json:"chat_messages"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Update is a partial update; nil fields are left unchanged.
type Update struct {
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	Files        *[]File             `json:"files"`
	ChatMessages *[]provider.Message `json:"chat_messages"`
}

// Store is scoped by user: a project owned by another user is reported as
// ErrNotFound.
type Store interface {
	Create(ctx context.Context, p *Project) error
	Update(ctx context.Context, userID, id string, u Update) (*Project, error)
	ListByUser(ctx context.Context, userID string) ([]*Project, error)
	Get(ctx context.Context, userID, id string) (*Project, error)
	Delete(ctx context.Context, userID, id string) error
}
