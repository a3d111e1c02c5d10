package services

import (
	"errors"
	"sort"
	"strings"
)

// Not-found errors
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrAttachmentNotFound   = errors.New("attachment not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidAuthToken   = errors.New("invalid or expired token")
)

// Business rule errors
var (
	ErrCannotRemoveOwner      = errors.New("the project owner cannot be removed")
	ErrPasswordAlreadySet     = errors.New("password already set; use change password")
	ErrResetTokenUsed         = errors.New("reset token has already been used")
	ErrResetTokenExpired      = errors.New("reset token has expired")
	ErrFederatedAccount       = errors.New("this account signs in with Google and has no password; sign in with Google instead")
	ErrGoogleTokenInvalid     = errors.New("invalid Google ID token")
	ErrGoogleEmailUnverified  = errors.New("Google account email is missing or not verified")
	ErrGoogleNotConfigured    = errors.New("Google login is not configured")
	ErrGoogleKeysUnavailable  = errors.New("could not fetch Google signing keys")
	ErrMailDeliveryFailed     = errors.New("could not send email")
	ErrFileStorageUnavailable = errors.New("could not store file")
)

// ValidationError carries per-field messages for invalid input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// fieldErrors collects messages and yields an error only if any were added.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = message
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
