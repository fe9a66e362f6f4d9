package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orfin/internal/profile/models"
	"orfin/internal/profile/store"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	profiles := store.NewInMemory()
	resolver := NewResolver(profiles)

	userID := id.NewUserID()
	profile, err := models.NewProfile(id.NewProfileID(), userID, "Ana", nil, now)
	require.NoError(t, err)
	require.NoError(t, profiles.Create(ctx, profile))

	t.Run("owned profile resolves", func(t *testing.T) {
		key, err := resolver.Resolve(ctx, userID, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, Key{UserID: userID, ProfileID: profile.ID}, key)
	})

	t.Run("nil profile id is a validation failure", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, userID, id.ProfileID{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "profile_id", dErrors.FieldOf(err))
	})

	t.Run("unknown profile is a reference failure", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, userID, id.NewProfileID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeReference))
		assert.Equal(t, "profile_id", dErrors.FieldOf(err))
	})

	t.Run("another user's profile is a reference failure", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, id.NewUserID(), profile.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeReference))
	})

	t.Run("an archived profile still resolves", func(t *testing.T) {
		archived, err := models.NewProfile(id.NewProfileID(), userID, "Old", nil, now)
		require.NoError(t, err)
		archived.ApplyArchive(now)
		require.NoError(t, profiles.Create(ctx, archived))

		_, err = resolver.Resolve(ctx, userID, archived.ID)
		assert.NoError(t, err)
	})
}
