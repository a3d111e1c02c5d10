package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
}

// GoogleVerifier checks a Google ID token and returns the identity it asserts.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

type googleClaims struct {
	Email         string      `json:"email"`
	EmailVerified interface{} `json:"email_verified"`
	GivenName     string      `json:"given_name"`
	FamilyName    string      `json:"family_name"`
	jwt.RegisteredClaims
}

func (c *googleClaims) emailVerified() bool {
	switch v := c.EmailVerified.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// JWKSGoogleVerifier validates RS256 ID tokens against Google's published
// JWK set. The set is loaded on first use and then refreshed in the
// background, including when a token names an unknown key id.
type JWKSGoogleVerifier struct {
	clientID string
	certsURL string
	now      func() time.Time

	mu     sync.Mutex
	keys   keyfunc.Keyfunc
	cancel context.CancelFunc
}

// NewGoogleVerifier creates a verifier for tokens issued to clientID
func NewGoogleVerifier(clientID, certsURL string) *JWKSGoogleVerifier {
	return &JWKSGoogleVerifier{
		clientID: clientID,
		certsURL: certsURL,
		now:      time.Now,
	}
}

// Close stops the background key refresh.
func (v *JWKSGoogleVerifier) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
		v.keys = nil
	}
}

// Verify checks signature, audience, issuer, and expiry, then requires a
// verified email.
func (v *JWKSGoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if v.clientID == "" {
		return nil, ErrGoogleNotConfigured
	}

	keys, err := v.keySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleKeysUnavailable, err)
	}

	token, err := jwt.ParseWithClaims(idToken, &googleClaims{}, keys.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleTokenInvalid, err)
	}

	claims, ok := token.Claims.(*googleClaims)
	if !ok || !token.Valid {
		return nil, ErrGoogleTokenInvalid
	}
	if !googleIssuers[claims.Issuer] {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrGoogleTokenInvalid, claims.Issuer)
	}
	if claims.Email == "" || !claims.emailVerified() {
		return nil, ErrGoogleEmailUnverified
	}

	return &GoogleIdentity{
		Subject:    claims.Subject,
		Email:      claims.Email,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
	}, nil
}

// keySet returns the cached key set, loading it on the first call. A failed
// load is not cached so the next login retries.
func (v *JWKSGoogleVerifier) keySet(ctx context.Context) (keyfunc.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.keys != nil {
		return v.keys, nil
	}

	refreshCtx, cancel := context.WithCancel(context.Background())
	keys, err := keyfunc.NewDefaultCtx(refreshCtx, []string{v.certsURL})
	if err != nil {
		cancel()
		return nil, err
	}
	loaded, err := keys.Storage().KeyReadAll(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	if len(loaded) == 0 {
		cancel()
		return nil, fmt.Errorf("no keys published at %s", v.certsURL)
	}

	v.keys = keys
	v.cancel = cancel
	return keys, nil
}
