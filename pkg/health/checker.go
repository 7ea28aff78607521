package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checker reports the health of one dependency
type Checker func() error

// CheckerConfig tunes dependency checks
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns the default check configuration
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{Timeout: 2 * time.Second}
}

// DatabaseChecker returns a health check function for PostgreSQL database
func DatabaseChecker(db *sql.DB) Checker {
	return DatabaseCheckerWithConfig(db, DefaultCheckerConfig())
}

// DatabaseCheckerWithConfig is DatabaseChecker with a custom timeout
func DatabaseCheckerWithConfig(db *sql.DB, cfg CheckerConfig) Checker {
	return func() error {
		if db == nil {
			return errors.New("database connection is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		return db.PingContext(ctx)
	}
}

// RedisChecker returns a health check function for Redis
func RedisChecker(client *redis.Client) Checker {
	return func() error {
		if client == nil {
			return errors.New("redis client is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), DefaultCheckerConfig().Timeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// ContextChecker adapts a context-aware ping, such as a snapshot source probe
func ContextChecker(ping func(ctx context.Context) error, cfg CheckerConfig) Checker {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		return ping(ctx)
	}
}

// CompositeChecker runs every checker and joins failures as "<name>.<check>: <err>"
func CompositeChecker(name string, checkers map[string]Checker) Checker {
	return func() error {
		keys := make([]string, 0, len(checkers))
		for key := range checkers {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var failures []string
		for _, key := range keys {
			if err := checkers[key](); err != nil {
				failures = append(failures, fmt.Sprintf("%s.%s: %v", name, key, err))
			}
		}
		if len(failures) > 0 {
			return errors.New(strings.Join(failures, "; "))
		}
		return nil
	}
}

// CachedChecker memoizes a checker result so probes don't hammer dependencies
type CachedChecker struct {
	checker  Checker
	cacheTTL time.Duration

	mu        sync.Mutex
	lastErr   error
	lastCheck time.Time
}

// NewCachedChecker wraps checker with a result cache
func NewCachedChecker(checker Checker, cacheTTL time.Duration) *CachedChecker {
	return &CachedChecker{checker: checker, cacheTTL: cacheTTL}
}

// Check returns the cached result or runs the checker when the cache expired
func (c *CachedChecker) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastCheck.IsZero() && time.Since(c.lastCheck) < c.cacheTTL {
		return c.lastErr
	}

	c.lastErr = c.checker()
	c.lastCheck = time.Now()
	return c.lastErr
}
