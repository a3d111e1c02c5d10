package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db      *gorm.DB
	service *AuthService
	tokens  *TokenService
	mailer  *recordingMailer
	google  *stubGoogleVerifier
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	store, db := setupTestStore(t)
	env := authTestEnv{
		db:     db,
		tokens: NewTokenService("test-secret", time.Hour, 24*time.Hour),
		mailer: &recordingMailer{},
		google: &stubGoogleVerifier{},
	}
	env.service = NewAuthService(store, env.tokens, env.google, env.mailer, "https://app.example.com/", quietLogger())
	return env
}

func (env authTestEnv) signup(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := env.service.Signup(context.Background(), SignupInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "supersecret",
		ConfirmPassword: "supersecret",
	})
	require.NoError(t, err)
	return user
}

func (env authTestEnv) lastResetToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, env.mailer.sent)
	body := env.mailer.sent[len(env.mailer.sent)-1].Body
	idx := strings.Index(body, "token=")
	require.GreaterOrEqual(t, idx, 0)
	rest := body[idx+len("token="):]
	if end := strings.IndexAny(rest, "\n "); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func TestSignup(t *testing.T) {
	env := setupAuthTestEnv(t)
	ctx := context.Background()

	user := env.signup(t, "alice")
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "supersecret", user.PasswordHash)
	assert.True(t, user.HasUsablePassword())

	tests := []struct {
		name  string
		input SignupInput
		field string
	}{
		{
			name:  "password mismatch",
			input: SignupInput{Username: "bob", Email: "bob@example.com", Password: "supersecret", ConfirmPassword: "different"},
			field: "password",
		},
		{
			name:  "short password",
			input: SignupInput{Username: "bob", Email: "bob@example.com", Password: "short", ConfirmPassword: "short"},
			field: "password",
		},
		{
			name:  "duplicate email",
			input: SignupInput{Username: "bob", Email: "alice@example.com", Password: "supersecret", ConfirmPassword: "supersecret"},
			field: "email",
		},
		{
			name:  "duplicate username",
			input: SignupInput{Username: "alice", Email: "other@example.com", Password: "supersecret", ConfirmPassword: "supersecret"},
			field: "username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Signup(ctx, tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestLoginAndRefresh(t *testing.T) {
	env := setupAuthTestEnv(t)
	ctx := context.Background()
	user := env.signup(t, "alice")

	_, _, err := env.service.Login(ctx, LoginInput{Username: "alice", Password: "wrongpass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.service.Login(ctx, LoginInput{Username: "nobody", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	pair, got, err := env.service.Login(ctx, LoginInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := env.tokens.Parse(pair.Access, constants.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	access, err := env.service.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	_, err = env.tokens.Parse(access, constants.TokenTypeAccess)
	require.NoError(t, err)

	_, err = env.service.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrInvalidAuthToken)
}

func TestLogin_FederatedAccountHasNoPassword(t *testing.T) {
	env := setupAuthTestEnv(t)
	require.NoError(t, env.db.Create(&models.User{Username: "fed", Email: "fed@example.com"}).Error)

	_, _, err := env.service.Login(context.Background(), LoginInput{Username: "fed", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSetPassword(t *testing.T) {
	env := setupAuthTestEnv(t)
	ctx := context.Background()

	fed := &models.User{Username: "fed", Email: "fed@example.com"}
	require.NoError(t, env.db.Create(fed).Error)
	actor := authz.Actor{ID: fed.ID}

	err := env.service.SetPassword(ctx, actor, SetPasswordInput{NewPassword: "supersecret", ConfirmPassword: "nope-nope"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "new_password")

	require.NoError(t, env.service.SetPassword(ctx, actor, SetPasswordInput{NewPassword: "supersecret", ConfirmPassword: "supersecret"}))
	_, _, err = env.service.Login(ctx, LoginInput{Username: "fed", Password: "supersecret"})
	require.NoError(t, err)

	err = env.service.SetPassword(ctx, actor, SetPasswordInput{NewPassword: "another-one", ConfirmPassword: "another-one"})
	assert.ErrorIs(t, err, ErrPasswordAlreadySet)
}

func TestForgotPassword_Messages(t *testing.T) {
	env := setupAuthTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice")
	require.NoError(t, env.db.Create(&models.User{Username: "fed", Email: "fed@example.com"}).Error)

	unknown, err := env.service.ForgotPassword(ctx, "ghost@example.com")
	require.NoError(t, err)
	known, err := env.service.ForgotPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, unknown, known)
	assert.Equal(t, ForgotPasswordMessage, known)

	_, err = env.service.ForgotPassword(ctx, "fed@example.com")
	assert.ErrorIs(t, err, ErrFederatedAccount)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "alice@example.com", env.mailer.sent[0].To)
	assert.Contains(t, env.mailer.sent[0].Body, "https://app.example.com/reset-password?token=")
}

func TestForgotPassword_RotatesTokens(t *testing.T) {
	env := setupAuthTestEnv(t)
	ctx := context.Background()
	user := env.signup(t, "alice")

	_, err := env.service.ForgotPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	_, err = env.service.ForgotPassword(ctx, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, int64(2), countRows(t, env.db, &models.PasswordResetToken{}, "user_id = ?", user.ID))
	assert.Equal(t, int64(1), countRows(t, env.db, &models.PasswordResetToken{}, "user_id = ? AND is_used = ?", user.ID, false))
}

func TestForgotPassword_MailFailureRollsBack(t *testing.T) {
	env := setupAuthTestEnv(t)
	user := env.signup(t, "alice")
	env.mailer.err = errors.New("smtp down")

	_, err := env.service.ForgotPassword(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrMailDeliveryFailed)
	assert.Equal(t, int64(0), countRows(t, env.db, &models.PasswordResetToken{}, "user_id = ?", user.ID))
}

func TestResetPassword_SingleUse(t *testing.T) {
	env := setupAuthTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice")

	_, err := env.service.ForgotPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	token := env.lastResetToken(t)

	input := ResetPasswordInput{Token: token, NewPassword: "brand-new-pass", ConfirmPassword: "brand-new-pass"}
	require.NoError(t, env.service.ResetPassword(ctx, input))

	_, _, err = env.service.Login(ctx, LoginInput{Username: "alice", Password: "brand-new-pass"})
	require.NoError(t, err)

	err = env.service.ResetPassword(ctx, input)
	assert.ErrorIs(t, err, ErrResetTokenUsed)

	// a used token stays "used" even once it has also expired
	env.service.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	err = env.service.ResetPassword(ctx, input)
	assert.ErrorIs(t, err, ErrResetTokenUsed)
}

func TestResetPassword_Errors(t *testing.T) {
	env := setupAuthTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice")

	err := env.service.ResetPassword(ctx, ResetPasswordInput{Token: "bogus", NewPassword: "brand-new-pass", ConfirmPassword: "brand-new-pass"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "token")

	_, err = env.service.ForgotPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	token := env.lastResetToken(t)

	env.service.now = func() time.Time { return time.Now().Add(constants.PasswordResetTokenTTL + time.Minute) }
	err = env.service.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "brand-new-pass", ConfirmPassword: "brand-new-pass"})
	assert.ErrorIs(t, err, ErrResetTokenExpired)
}

func TestGoogleLogin(t *testing.T) {
	env := setupAuthTestEnv(t)
	ctx := context.Background()
	env.signup(t, "jane")

	env.google.identity = &GoogleIdentity{Subject: "1", Email: "jane@corp.example", GivenName: "Jane", FamilyName: "Doe"}
	result, err := env.service.GoogleLogin(ctx, "id-token")
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.False(t, result.User.HasUsablePassword())
	assert.NotEqual(t, "jane", result.User.Username)
	assert.True(t, strings.HasPrefix(result.User.Username, "jane"))
	assert.NotEmpty(t, result.Tokens.Access)

	env.google.identity = &GoogleIdentity{Subject: "1", Email: "jane@corp.example", GivenName: "Janet", FamilyName: "Doe"}
	again, err := env.service.GoogleLogin(ctx, "id-token")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, result.User.ID, again.User.ID)
	assert.Equal(t, "Janet", again.User.FirstName)

	env.google.err = ErrGoogleEmailUnverified
	_, err = env.service.GoogleLogin(ctx, "id-token")
	assert.ErrorIs(t, err, ErrGoogleEmailUnverified)

	_, err = env.service.GoogleLogin(ctx, " ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "id_token")
}
