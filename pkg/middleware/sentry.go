package middleware

import (
	"fmt"
	"time"

	"github.com/ecoride/ride-metrics/pkg/config"
	"github.com/ecoride/ride-metrics/pkg/logger"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// InitSentry configures the global Sentry client. It reports false when no DSN is set.
func InitSentry(cfg config.SentryConfig, environment, release string) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return true, nil
}

// FlushSentry waits for buffered events to be delivered
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// Sentry attaches a hub to every request and reports panics before re-raising them
// to Recovery.
func Sentry() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic: true,
		Timeout: 2 * time.Second,
	})
}

// ReportError sends err to Sentry tagged with the request's correlation id and route.
// Requests that did not pass through Sentry are ignored.
func ReportError(c *gin.Context, err error) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil || err == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if id := logger.CorrelationIDFromContext(c.Request.Context()); id != "" {
			scope.SetTag(CorrelationIDKey, id)
		}
		scope.SetTag("route", c.FullPath())
		hub.CaptureException(err)
	})
}
