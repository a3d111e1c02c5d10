package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/metrics"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ForgotPasswordMessage is returned for unknown emails and for accounts that
// have a password alike, so the response does not reveal which emails exist.
const ForgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."

const maxUsernameAttempts = 5

// AuthService handles authentication related business logic.
type AuthService struct {
	store           *repository.Store
	tokens          *TokenService
	google          GoogleVerifier
	mailer          Mailer
	frontendBaseURL string
	log             *logrus.Logger
	now             func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(store *repository.Store, tokens *TokenService, google GoogleVerifier, mailer Mailer, frontendBaseURL string, log *logrus.Logger) *AuthService {
	return &AuthService{
		store:           store,
		tokens:          tokens,
		google:          google,
		mailer:          mailer,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
		log:             log,
		now:             time.Now,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

// Signup creates a new user with a hashed password.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (user *models.User, err error) {
	defer func() { observeAuth("signup", err) }()

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	fields := fieldErrors{}
	if username == "" {
		fields.add("username", "this field is required")
	} else if len(username) > constants.MaxUsernameLength {
		fields.add("username", fmt.Sprintf("must be at most %d characters", constants.MaxUsernameLength))
	}
	if email == "" {
		fields.add("email", "this field is required")
	}
	validatePasswordPair(fields, "password", input.Password, input.ConfirmPassword)
	if err := fields.err(); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
	}

	err = s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		taken, err := tx.Users.EmailTaken(email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return invalidField("email", "a user with this email already exists")
		}

		taken, err = tx.Users.UsernameTaken(username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			return invalidField("username", "a user with that username already exists")
		}

		if err := tx.Users.Create(user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns a token pair.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (pair *TokenPair, user *models.User, err error) {
	defer func() { observeAuth("login", err) }()

	user, err = s.store.WithContext(ctx).Users.FindByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.HasUsablePassword() {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err = s.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (access string, err error) {
	defer func() { observeAuth("refresh", err) }()

	claims, err := s.tokens.Parse(refreshToken, constants.TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	user, err := s.store.WithContext(ctx).Users.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidAuthToken
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	return s.tokens.IssueAccess(user)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	return findUser(s.store.WithContext(ctx), id)
}

// SetPasswordInput is the body of the set-password flow.
type SetPasswordInput struct {
	NewPassword     string
	ConfirmPassword string
}

// SetPassword gives a federated account its first password.
func (s *AuthService) SetPassword(ctx context.Context, actor authz.Actor, input SetPasswordInput) (err error) {
	defer func() { observeAuth("set_password", err) }()

	fields := fieldErrors{}
	validatePasswordPair(fields, "new_password", input.NewPassword, input.ConfirmPassword)
	if err := fields.err(); err != nil {
		return err
	}

	return s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		user, err := tx.Users.LockByID(actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to find user: %w", err)
		}
		if user.HasUsablePassword() {
			return ErrPasswordAlreadySet
		}

		hashed, err := hashPassword(input.NewPassword)
		if err != nil {
			return err
		}
		user.PasswordHash = hashed
		if err := tx.Users.Update(user); err != nil {
			return fmt.Errorf("failed to save password: %w", err)
		}
		return nil
	})
}

// ForgotPassword issues a reset token and mails a link to it. Unknown emails
// get the same answer as a successful send.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (message string, err error) {
	defer func() { observeAuth("forgot_password", err) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalidField("email", "this field is required")
	}

	err = s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		found, err := tx.Users.FindByEmail(email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		user, err := tx.Users.LockByID(found.ID)
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if !user.HasUsablePassword() {
			return ErrFederatedAccount
		}

		value, err := utils.GenerateOpaqueToken(constants.PasswordResetTokenBytes)
		if err != nil {
			return fmt.Errorf("failed to generate reset token: %w", err)
		}
		token := &models.PasswordResetToken{
			Token:     value,
			UserID:    user.ID,
			ExpiresAt: s.now().Add(constants.PasswordResetTokenTTL),
		}
		if err := tx.ResetTokens.Rotate(token); err != nil {
			return fmt.Errorf("failed to store reset token: %w", err)
		}

		if err := s.mailer.Send(ctx, user.Email, "Reset your password", s.resetEmailBody(user, value)); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Error("Failed to send password reset email")
			return fmt.Errorf("%w: %v", ErrMailDeliveryFailed, err)
		}

		s.log.WithField("user_id", user.ID).Info("Password reset email sent")
		return nil
	})
	if err != nil {
		return "", err
	}
	return ForgotPasswordMessage, nil
}

func (s *AuthService) resetLink(token string) string {
	return s.frontendBaseURL + constants.PasswordResetPath + "?token=" + token
}

func (s *AuthService) resetEmailBody(user *models.User, token string) string {
	return fmt.Sprintf(
		"Hello %s,\n\nUse the link below to choose a new password. It expires in %d hours.\n\n%s\n\nIf you did not request this, you can ignore this email.\n",
		user.DisplayName(),
		int(constants.PasswordResetTokenTTL/time.Hour),
		s.resetLink(token),
	)
}

// ResetPasswordInput is the body of the reset-password flow.
type ResetPasswordInput struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// ResetPassword consumes a reset token and sets a new password. A used token
// is rejected before its expiry is looked at.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) (err error) {
	defer func() { observeAuth("reset_password", err) }()

	fields := fieldErrors{}
	if strings.TrimSpace(input.Token) == "" {
		fields.add("token", "this field is required")
	}
	validatePasswordPair(fields, "new_password", input.NewPassword, input.ConfirmPassword)
	if err := fields.err(); err != nil {
		return err
	}

	return s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		token, err := tx.ResetTokens.FindByToken(strings.TrimSpace(input.Token))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalidField("token", "invalid reset token")
			}
			return fmt.Errorf("failed to find reset token: %w", err)
		}
		if token.IsUsed {
			return ErrResetTokenUsed
		}
		if token.Expired(s.now()) {
			return ErrResetTokenExpired
		}

		consumed, err := tx.ResetTokens.Consume(token.ID)
		if err != nil {
			return fmt.Errorf("failed to consume reset token: %w", err)
		}
		if !consumed {
			return ErrResetTokenUsed
		}

		user, err := tx.Users.FindByID(token.UserID)
		if err != nil {
			return fmt.Errorf("failed to find user: %w", err)
		}
		hashed, err := hashPassword(input.NewPassword)
		if err != nil {
			return err
		}
		user.PasswordHash = hashed
		if err := tx.Users.Update(user); err != nil {
			return fmt.Errorf("failed to save password: %w", err)
		}
		return nil
	})
}

// GoogleLoginResult is returned by GoogleLogin.
type GoogleLoginResult struct {
	Tokens  *TokenPair
	User    *models.User
	Created bool
}

// GoogleLogin signs in with a Google ID token, creating a password-less
// account on first use.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (result *GoogleLoginResult, err error) {
	defer func() { observeAuth("google_login", err) }()

	if strings.TrimSpace(idToken) == "" {
		return nil, invalidField("id_token", "this field is required")
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	result = &GoogleLoginResult{}
	err = s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		user, err := tx.Users.FindByEmail(identity.Email)
		switch {
		case err == nil:
			if syncGoogleNames(user, identity) {
				if err := tx.Users.Update(user); err != nil {
					return fmt.Errorf("failed to update user: %w", err)
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			username, err := availableUsername(tx, utils.UsernameFromEmail(identity.Email))
			if err != nil {
				return err
			}
			user = &models.User{
				Username:  username,
				Email:     identity.Email,
				FirstName: identity.GivenName,
				LastName:  identity.FamilyName,
			}
			if err := tx.Users.Create(user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			result.Created = true
		default:
			return fmt.Errorf("failed to find user: %w", err)
		}
		result.User = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Tokens, err = s.tokens.IssuePair(result.User)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": result.User.ID,
		"created": result.Created,
	}).Info("Google login")
	return result, nil
}

func syncGoogleNames(user *models.User, identity *GoogleIdentity) bool {
	changed := false
	if identity.GivenName != "" && user.FirstName != identity.GivenName {
		user.FirstName = identity.GivenName
		changed = true
	}
	if identity.FamilyName != "" && user.LastName != identity.FamilyName {
		user.LastName = identity.FamilyName
		changed = true
	}
	return changed
}

func availableUsername(tx *repository.Store, base string) (string, error) {
	candidate := base
	for i := 0; i < maxUsernameAttempts; i++ {
		taken, err := tx.Users.UsernameTaken(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = utils.UsernameWithSuffix(base)
	}
	return "", fmt.Errorf("could not find a free username for %q", base)
}

func validatePasswordPair(fields fieldErrors, field, password, confirm string) {
	if password == "" {
		fields.add(field, "this field is required")
		return
	}
	if len(password) < constants.MinPasswordLength {
		fields.add(field, fmt.Sprintf("must be at least %d characters", constants.MinPasswordLength))
		return
	}
	if password != confirm {
		fields.add(field, "passwords do not match")
	}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func findUser(store *repository.Store, id uint64) (*models.User, error) {
	user, err := store.Users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func observeAuth(flow string, err error) {
	if err != nil {
		metrics.RecordAuthEvent(flow, "failure")
		return
	}
	metrics.RecordAuthEvent(flow, "success")
}
