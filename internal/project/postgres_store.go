package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MadScientist85/Ai-Web-App/internal/provider"
)

type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id       TEXT NOT NULL,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	files         JSONB NOT NULL DEFAULT '[]',
	chat_messages JSONB NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS projects_user_updated_idx ON projects (user_id, updated_at DESC)`

const columns = `id, user_id, name, description, files, chat_messages, created_at, updated_at`

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create projects table: %w", err)
	}
	return nil
}

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Files, &p.ChatMessages, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *Project) error {
	if p.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Files == nil {
		p.Files = []File{}
	}
	if p.ChatMessages == nil {
		p.ChatMessages = []provider.Message{}
	}

	query := `
		INSERT INTO projects (user_id, name, description, files, chat_messages)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, p.UserID, p.Name, p.Description, p.Files, p.ChatMessages).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, userID, id string, u Update) (*Project, error) {
	query := `
		UPDATE projects SET
			name          = COALESCE($3, name),
			description   = COALESCE($4, description),
			files         = COALESCE($5, files),
			chat_messages = COALESCE($6, chat_messages),
			updated_at    = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + columns

	p, err := scanProject(s.db.QueryRow(ctx, query, id, userID, u.Name, u.Description, u.Files, u.ChatMessages))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Project, error) {
	query := `SELECT ` + columns + ` FROM projects WHERE user_id = $1 ORDER BY updated_at DESC`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID, id string) (*Project, error) {
	query := `SELECT ` + columns + ` FROM projects WHERE id = $1 AND user_id = $2`
	p, err := scanProject(s.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
