package middleware

import (
	"fmt"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"log"
	"net/http"
)

// SentryRecovery converts panics into reported, generic 500 responses so the
// caller never sees internal detail.
func SentryRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				sentry.CaptureException(fmt.Errorf("panic while handling %v: %v", c.Request.URL.Path, r))
				log.Printf("panic while handling %v: %v", c.Request.URL.Path, r)
				c.String(http.StatusInternalServerError, "Something went wrong")
				c.Abort()
			}
		}()
		c.Next()
	}
}
