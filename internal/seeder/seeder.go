package seeder

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/MadScientist85/Ai-Web-App/internal/auth"
	"github.com/MadScientist85/Ai-Web-App/internal/profile"
)

const (
	DevAPIKey      = "dev-api-key-12345"
	DevUserID      = "00000000-0000-0000-0000-000000000001"
	devDisplayName = "Developer"
)

// Seed creates the development API key and its user's profile. Existing
// rows are left untouched.
func Seed(ctx context.Context, keys auth.Store, profiles profile.Store, logger zerolog.Logger) {
	apiKey := &auth.APIKey{
		UserID:  DevUserID,
		KeyHash: auth.HashKey(DevAPIKey),
		Active:  true,
	}
	if err := keys.Create(ctx, apiKey); err != nil {
		logger.Info().Err(err).Msg("seeder: api key may already exist, skipping")
	} else {
		logger.Info().
			Str("key", DevAPIKey).
			Str("user_id", DevUserID).
			Msg("seeder: dev api key created")
	}

	if _, err := profiles.Get(ctx, DevUserID); err == nil {
		return
	}
	name := devDisplayName
	if _, err := profiles.Create(ctx, DevUserID, profile.Update{DisplayName: &name}); err != nil {
		logger.Warn().Err(err).Msg("seeder: failed to create dev profile")
		return
	}
	logger.Info().Str("user_id", DevUserID).Msg("seeder: dev profile created")
}
