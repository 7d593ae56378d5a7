// Package profile stores per-user display settings.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("profile not found")

type Profile struct {
	ID          string         `json:"id"`
	DisplayName *string        `json:"display_name,omitempty"`
	AvatarURL   *string        `json:"avatar_url,omitempty"`
	Bio         *string        `json:"bio,omitempty"`
	Preferences map[string]any `json:"preferences"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Update holds the fields an upsert may change. Nil fields keep their
// stored value.
type Update struct {
	DisplayName *string        `json:"display_name"`
	AvatarURL   *string        `json:"avatar_url"`
	Bio         *string        `json:"bio"`
	Preferences map[string]any `json:"preferences"`
}

type Store interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Create(ctx context.Context, userID string, u Update) (*Profile, error)
	Upsert(ctx context.Context, userID string, u Update) (*Profile, error)
}

type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS user_profiles (
	id           TEXT PRIMARY KEY,
	display_name TEXT,
	avatar_url   TEXT,
	bio          TEXT,
	preferences  JSONB NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const columns = `id, display_name, avatar_url, bio, preferences, created_at, updated_at`

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create user_profiles table: %w", err)
	}
	return nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	if err := row.Scan(&p.ID, &p.DisplayName, &p.AvatarURL, &p.Bio, &p.Preferences, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if p.Preferences == nil {
		p.Preferences = map[string]any{}
	}
	return &p, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `SELECT `+columns+` FROM user_profiles WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Create(ctx context.Context, userID string, u Update) (*Profile, error) {
	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}

	query := `
		INSERT INTO user_profiles (id, display_name, avatar_url, bio, preferences)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + columns
	p, err := scanProfile(s.db.QueryRow(ctx, query, userID, u.DisplayName, u.AvatarURL, u.Bio, prefs))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, userID string, u Update) (*Profile, error) {
	query := `
		INSERT INTO user_profiles (id, display_name, avatar_url, bio, preferences)
		VALUES ($1, $2, $3, $4, COALESCE($5, '{}'::jsonb))
		ON CONFLICT (id) DO UPDATE SET
			display_name = COALESCE($2, user_profiles.display_name),
			avatar_url   = COALESCE($3, user_profiles.avatar_url),
			bio          = COALESCE($4, user_profiles.bio),
			preferences  = COALESCE($5, user_profiles.preferences),
			updated_at   = now()
		RETURNING ` + columns

	var prefs any
	if u.Preferences != nil {
		prefs = u.Preferences
	}
	p, err := scanProfile(s.db.QueryRow(ctx, query, userID, u.DisplayName, u.AvatarURL, u.Bio, prefs))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return p, nil
}
