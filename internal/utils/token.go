package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// GenerateOpaqueToken returns n random bytes encoded as URL-safe base64
// without padding, suitable for use in a query string.
func GenerateOpaqueToken(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

var usernameDisallowed = regexp.MustCompile(`[^a-z0-9._-]+`)

// UsernameFromEmail derives a username candidate from the local part of an
// email address. It never returns an empty string.
func UsernameFromEmail(email string) string {
	local := strings.ToLower(email)
	if i := strings.IndexByte(local, '@'); i >= 0 {
		local = local[:i]
	}
	local = usernameDisallowed.ReplaceAllString(local, "")
	local = strings.Trim(local, "._-")
	if local == "" {
		local = "user"
	}
	if len(local) > 100 {
		local = local[:100]
	}
	return local
}

// UsernameWithSuffix appends a short random suffix to base.
func UsernameWithSuffix(base string) string {
	return fmt.Sprintf("%s_%s", base, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
