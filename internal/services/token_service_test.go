package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

func TestTokenService_IssueAndParse(t *testing.T) {
	tokens := NewTokenService("secret", time.Minute, time.Hour)
	user := &models.User{ID: 42, IsStaff: true}

	pair, err := tokens.IssuePair(user)
	require.NoError(t, err)

	claims, err := tokens.Parse(pair.Access, constants.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.True(t, claims.IsStaff)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	_, err = tokens.Parse(pair.Refresh, constants.TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidAuthToken)
	_, err = tokens.Parse(pair.Access, constants.TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrInvalidAuthToken)
}

func TestTokenService_Rejects(t *testing.T) {
	tokens := NewTokenService("secret", time.Minute, time.Hour)
	user := &models.User{ID: 7}

	access, err := tokens.IssueAccess(user)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { tokens.now = time.Now }()

		_, err := tokens.Parse(access, constants.TokenTypeAccess)
		assert.ErrorIs(t, err, ErrInvalidAuthToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("other", time.Minute, time.Hour)
		_, err := other.Parse(access, constants.TokenTypeAccess)
		assert.ErrorIs(t, err, ErrInvalidAuthToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserID:    7,
			TokenType: constants.TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tokens.Parse(unsigned, constants.TokenTypeAccess)
		assert.ErrorIs(t, err, ErrInvalidAuthToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not-a-token", constants.TokenTypeAccess)
		assert.ErrorIs(t, err, ErrInvalidAuthToken)
	})
}
