package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecoride/ride-metrics/internal/ridemetrics"
	"github.com/ecoride/ride-metrics/pkg/redis"
)

const cacheKeyPrefix = "ridemetrics:report"

// ErrCacheMiss is returned by ReportCache.Get when nothing is stored under the key
var ErrCacheMiss = errors.New("report not cached")

// reportKey identifies a report built from one snapshot version at one instant
func reportKey(version string, window ridemetrics.TimeWindow, key ridemetrics.AttributionKey, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", cacheKeyPrefix, version, window, key, now.Unix())
}

// latestKey holds the most recent report for a window, served when the source is down
func latestKey(window ridemetrics.TimeWindow, key ridemetrics.AttributionKey) string {
	return fmt.Sprintf("%s:latest:%s:%s", cacheKeyPrefix, window, key)
}

// RedisCache stores JSON encoded reports in Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a report cache on top of client
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get loads a cached report
func (c *RedisCache) Get(ctx context.Context, key string) (*ridemetrics.Report, error) {
	data, err := c.client.GetBytes(ctx, key)
	if errors.Is(err, redis.ErrMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached report: %w", err)
	}

	var report ridemetrics.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return &report, nil
}

// Set stores report under key for ttl
func (c *RedisCache) Set(ctx context.Context, key string, report *ridemetrics.Report, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.client.SetWithExpiration(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}
