package controllers

import (
	"badges.dev/visits/models"
	"badges.dev/visits/utils"
	"context"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"log"
	"net/http"
	"strconv"
)

type AccessChecker interface {
	RepoAccessible(ctx context.Context, owner string, name string) (bool, error)
}

type VisitStore interface {
	IncrementVisit(key string) (int64, error)
}

type BadgeFetcher interface {
	FetchBadge(ctx context.Context, label string, value string, rawQuery string) (*utils.Badge, error)
}

type ErrorReporter interface {
	CaptureException(err error)
}

// SentryReporter forwards errors to Sentry.
type SentryReporter struct{}

func (SentryReporter) CaptureException(err error) {
	sentry.CaptureException(err)
}

// VisitsController serves the visit-counter badge. Every collaborator is
// injected so tests can run it against fakes.
type VisitsController struct {
	Checker  AccessChecker
	Store    VisitStore
	Badges   BadgeFetcher
	Reporter ErrorReporter
}

// GetVisitsBadge checks that the repository is visible to the installation,
// bumps its visit counter and proxies the rendered badge. Denial is a plain
// 200 message, never a counter increment.
func (v *VisitsController) GetVisitsBadge(c *gin.Context) {
	owner := c.Param("owner")
	repo := c.Param("repo")
	ctx := c.Request.Context()

	accessible, err := v.Checker.RepoAccessible(ctx, owner, repo)
	if err != nil {
		v.fail(c, err)
		return
	}
	if !accessible {
		c.String(http.StatusOK, "No Permission to Access GitHub Repository: %v/%v. Please Make Sure It Exists, and Installed the GitHub App for the Private Repository.", owner, repo)
		return
	}

	count, err := v.Store.IncrementVisit(models.VisitCounterKey(owner, repo))
	if err != nil {
		v.fail(c, err)
		return
	}

	badge, err := v.Badges.FetchBadge(ctx, "Visits", strconv.FormatInt(count, 10), c.Request.URL.RawQuery)
	if err != nil {
		v.fail(c, err)
		return
	}

	// The count changes on every view, so the badge must never be cached,
	// whatever shields.io said.
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, badge.ContentType, badge.Data)
}

// fail is the single error boundary: report, log, answer a generic 500 with
// no internal detail.
func (v *VisitsController) fail(c *gin.Context, err error) {
	v.Reporter.CaptureException(err)
	log.Printf("request failed: %v", err)
	c.String(http.StatusInternalServerError, "Something went wrong")
}
