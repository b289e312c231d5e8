package services

import (
	"context"
	"crypto/rsa"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v55/github"
	"net/url"
	"sync"
	"time"
)

// GitHub caps app assertions at 10 minutes; a short window limits replay.
const assertionLifetime = 60 * time.Second

// A cached token is considered expired this long before its actual expiry,
// so a token returned from the cache is never about to die mid-request.
const tokenExpiryMargin = time.Minute

type InstallationToken struct {
	Value          string
	InstallationId int64
	ExpiresAt      time.Time
}

// TokenCache holds at most one installation access token per installation id.
// Writers simply overwrite: tokens are re-derivable, so last-writer-wins is
// safe and a lost update only costs one extra exchange.
type TokenCache struct {
	mu     sync.Mutex
	tokens map[int64]InstallationToken
}

func NewTokenCache() *TokenCache {
	return &TokenCache{tokens: make(map[int64]InstallationToken)}
}

func (c *TokenCache) Get(installationId int64) (InstallationToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ok := c.tokens[installationId]
	if !ok || time.Now().After(token.ExpiresAt.Add(-tokenExpiryMargin)) {
		return InstallationToken{}, false
	}
	return token, true
}

func (c *TokenCache) Set(token InstallationToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[token.InstallationId] = token
}

// GithubAppAuth exchanges the app's long-lived credentials for short-lived
// installation access tokens, refreshing through the injected cache.
type GithubAppAuth struct {
	appId      string
	privateKey *rsa.PrivateKey
	cache      *TokenCache

	// ApiBaseURL overrides the GitHub API endpoint, for tests.
	ApiBaseURL string
}

func NewGithubAppAuth(appId string, privateKeyPem string, cache *TokenCache) (*GithubAppAuth, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPem))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return &GithubAppAuth{appId: appId, privateKey: privateKey, cache: cache}, nil
}

// GetInstallationToken returns a valid access token for the installation,
// from the cache when possible. A cache miss costs one exchange call against
// GitHub; concurrent misses may each exchange, which is wasteful but safe.
func (a *GithubAppAuth) GetInstallationToken(ctx context.Context, installationId int64) (InstallationToken, error) {
	if token, ok := a.cache.Get(installationId); ok {
		return token, nil
	}

	assertion, err := a.signAssertion()
	if err != nil {
		return InstallationToken{}, err
	}

	client := github.NewClient(nil).WithAuthToken(assertion)
	if err := overrideBaseURL(client, a.ApiBaseURL); err != nil {
		return InstallationToken{}, err
	}

	created, resp, err := client.Apps.CreateInstallationToken(ctx, installationId, nil)
	if err != nil {
		if resp != nil && resp.StatusCode < 500 {
			return InstallationToken{}, fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return InstallationToken{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	token := InstallationToken{
		Value:          created.GetToken(),
		InstallationId: installationId,
		ExpiresAt:      created.GetExpiresAt().Time,
	}
	a.cache.Set(token)
	return token, nil
}

// signAssertion builds a fresh RS256 JWT proving the app's identity.
func (a *GithubAppAuth) signAssertion() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    a.appId,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return assertion, nil
}

func overrideBaseURL(client *github.Client, baseURL string) error {
	if baseURL == "" {
		return nil
	}
	parsed, err := url.Parse(baseURL + "/")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	client.BaseURL = parsed
	return nil
}
