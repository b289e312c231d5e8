package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func generateAppKey(t *testing.T) (*rsa.PrivateKey, string) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return key, string(pemBytes)
}

// newExchangeServer mocks GitHub's token-exchange endpoint. It verifies the
// app assertion on every call and counts how many exchanges happened.
func newExchangeServer(t *testing.T, appId string, key *rsa.PrivateKey, calls *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/app/installations/42/access_tokens")

		assertion := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		token, err := jwt.Parse(assertion, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return &key.PublicKey, nil
		})
		require.NoError(t, err)
		require.True(t, token.Valid)

		claims := token.Claims.(jwt.MapClaims)
		issuer, err := claims.GetIssuer()
		require.NoError(t, err)
		assert.Equal(t, appId, issuer)
		issuedAt, err := claims.GetIssuedAt()
		require.NoError(t, err)
		expiresAt, err := claims.GetExpirationTime()
		require.NoError(t, err)
		assert.Equal(t, assertionLifetime, expiresAt.Sub(issuedAt.Time))

		*calls++
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token": "installation-token-%d", "expires_at": "%s"}`, *calls, time.Now().Add(time.Hour).UTC().Format(time.RFC3339))
	}))
}

func TestGetInstallationTokenCachesWithinValidity(t *testing.T) {
	key, pemKey := generateAppKey(t)
	calls := 0
	server := newExchangeServer(t, "1234", key, &calls)
	defer server.Close()

	auth, err := NewGithubAppAuth("1234", pemKey, NewTokenCache())
	require.NoError(t, err)
	auth.ApiBaseURL = server.URL

	first, err := auth.GetInstallationToken(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "installation-token-1", first.Value)
	assert.Equal(t, int64(42), first.InstallationId)

	second, err := auth.GetInstallationToken(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls, "second call within validity should not hit the network")
	assert.Equal(t, first.Value, second.Value)
}

func TestGetInstallationTokenRefreshesExpiredToken(t *testing.T) {
	key, pemKey := generateAppKey(t)
	calls := 0
	server := newExchangeServer(t, "1234", key, &calls)
	defer server.Close()

	cache := NewTokenCache()
	cache.Set(InstallationToken{Value: "stale", InstallationId: 42, ExpiresAt: time.Now().Add(-time.Minute)})

	auth, err := NewGithubAppAuth("1234", pemKey, cache)
	require.NoError(t, err)
	auth.ApiBaseURL = server.URL

	token, err := auth.GetInstallationToken(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "installation-token-1", token.Value)

	cached, ok := cache.Get(42)
	assert.True(t, ok)
	assert.Equal(t, token.Value, cached.Value, "cache slot should hold the replacement token")
}

func TestTokenCacheAppliesExpiryMargin(t *testing.T) {
	cache := NewTokenCache()
	cache.Set(InstallationToken{Value: "dying", InstallationId: 7, ExpiresAt: time.Now().Add(tokenExpiryMargin / 2)})

	_, ok := cache.Get(7)
	assert.False(t, ok, "a token inside the safety margin must not be returned")
}

func TestNewGithubAppAuthRejectsMalformedKey(t *testing.T) {
	_, err := NewGithubAppAuth("1234", "not a pem key", NewTokenCache())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestGetInstallationTokenExchangeRejected(t *testing.T) {
	_, pemKey := generateAppKey(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	}))
	defer server.Close()

	auth, err := NewGithubAppAuth("1234", pemKey, NewTokenCache())
	require.NoError(t, err)
	auth.ApiBaseURL = server.URL

	_, err = auth.GetInstallationToken(context.Background(), 42)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestGetInstallationTokenExchangeServerError(t *testing.T) {
	_, pemKey := generateAppKey(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	auth, err := NewGithubAppAuth("1234", pemKey, NewTokenCache())
	require.NoError(t, err)
	auth.ApiBaseURL = server.URL

	_, err = auth.GetInstallationToken(context.Background(), 42)
	assert.ErrorIs(t, err, ErrTransient)
}
