package constants

import "time"

// Context keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyIsStaff = "is_staff"
)

// Validation
const (
	MinPasswordLength = 8
	MaxUsernameLength = 150
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Password reset
const (
	PasswordResetTokenTTL   = 24 * time.Hour
	PasswordResetTokenBytes = 32
	PasswordResetPath       = "/reset-password"
)

// Token types carried in the "token_type" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)
