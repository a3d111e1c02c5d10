package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "client-123.apps.googleusercontent.com"

type googleFixture struct {
	key      *rsa.PrivateKey
	server   *httptest.Server
	verifier *JWKSGoogleVerifier
	hits     *atomic.Int32
}

func newGoogleFixture(t *testing.T) *googleFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	hits := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kid": "k1",
				"kty": "RSA",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(server.Close)

	verifier := NewGoogleVerifier(testClientID, server.URL)
	t.Cleanup(verifier.Close)

	return &googleFixture{
		key:      key,
		server:   server,
		verifier: verifier,
		hits:     hits,
	}
}

func (f *googleFixture) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func validGoogleClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            testClientID,
		"sub":            "1234567890",
		"exp":            time.Now().Add(time.Hour).Unix(),
		"iat":            time.Now().Unix(),
		"email":          "jane@example.com",
		"email_verified": true,
		"given_name":     "Jane",
		"family_name":    "Doe",
	}
}

func TestGoogleVerifier_Valid(t *testing.T) {
	f := newGoogleFixture(t)

	identity, err := f.verifier.Verify(context.Background(), f.sign(t, validGoogleClaims()))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", identity.Email)
	assert.Equal(t, "Jane", identity.GivenName)
	assert.Equal(t, "Doe", identity.FamilyName)
	assert.Equal(t, "1234567890", identity.Subject)

	claims := validGoogleClaims()
	claims["iss"] = "accounts.google.com"
	claims["email_verified"] = "true"
	_, err = f.verifier.Verify(context.Background(), f.sign(t, claims))
	assert.NoError(t, err)
}

func TestGoogleVerifier_CachesKeys(t *testing.T) {
	f := newGoogleFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.verifier.Verify(context.Background(), f.sign(t, validGoogleClaims()))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestGoogleVerifier_Rejects(t *testing.T) {
	f := newGoogleFixture(t)

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
		want   error
	}{
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "someone-else" }, ErrGoogleTokenInvalid},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" }, ErrGoogleTokenInvalid},
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() }, ErrGoogleTokenInvalid},
		{"unverified email", func(c jwt.MapClaims) { c["email_verified"] = false }, ErrGoogleEmailUnverified},
		{"missing email", func(c jwt.MapClaims) { delete(c, "email") }, ErrGoogleEmailUnverified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validGoogleClaims()
			tt.mutate(claims)
			_, err := f.verifier.Verify(context.Background(), f.sign(t, claims))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("foreign key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, validGoogleClaims())
		token.Header["kid"] = "k1"
		signed, err := token.SignedString(other)
		require.NoError(t, err)

		_, err = f.verifier.Verify(context.Background(), signed)
		assert.ErrorIs(t, err, ErrGoogleTokenInvalid)
	})
}

func TestGoogleVerifier_Unavailable(t *testing.T) {
	_, err := NewGoogleVerifier("", "http://127.0.0.1:1").Verify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	verifier := NewGoogleVerifier(testClientID, server.URL)
	defer verifier.Close()
	_, err = verifier.Verify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrGoogleKeysUnavailable)
}
