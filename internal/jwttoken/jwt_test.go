package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	service := New("test-signing-key", "orfin-test")
	userID := id.NewUserID()

	t.Run("issued token validates back to the user", func(t *testing.T) {
		token, err := service.GenerateAccessToken(userID, time.Hour)
		require.NoError(t, err)

		got, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		token, err := service.GenerateAccessToken(userID, -time.Minute)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		other := New("different-key", "orfin-test")
		token, err := other.GenerateAccessToken(userID, time.Hour)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := service.ValidateToken("not-a-token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
