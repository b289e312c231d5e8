package services

import (
	"context"
	"fmt"
	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
	"net/http"
)

// InstallationTokenSource supplies a valid installation access token.
type InstallationTokenSource interface {
	GetInstallationToken(ctx context.Context, installationId int64) (InstallationToken, error)
}

// GithubRepoChecker answers whether a repository is visible to the configured
// installation.
type GithubRepoChecker struct {
	Tokens         InstallationTokenSource
	InstallationId int64

	// ApiBaseURL overrides the GitHub API endpoint, for tests.
	ApiBaseURL string
}

// RepoAccessible reads the repository with the installation's token. A 404 or
// 403 means the installation cannot see the repository and is not an error;
// anything else unexpected is. No retries here.
func (g *GithubRepoChecker) RepoAccessible(ctx context.Context, owner string, name string) (bool, error) {
	token, err := g.Tokens.GetInstallationToken(ctx, g.InstallationId)
	if err != nil {
		return false, err
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Value})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	if err := overrideBaseURL(client, g.ApiBaseURL); err != nil {
		return false, err
	}

	_, resp, err := client.Repositories.Get(ctx, owner, name)
	if err == nil {
		return true, nil
	}
	if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrTransient, err)
}
