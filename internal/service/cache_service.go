package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

const cacheNamespace = "timetable"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Cache keys. Every view of a session lives under SessionPattern so a session
// wide change can drop them in one sweep.
func ClassViewKey(sessionID, classID string) string {
	return fmt.Sprintf("%s:%s:class:%s", cacheNamespace, sessionID, classID)
}

// TeacherViewKey keys the teacher schedule view.
func TeacherViewKey(sessionID, employeeID string) string {
	return fmt.Sprintf("%s:%s:teacher:%s", cacheNamespace, sessionID, employeeID)
}

// GridKey keys a rendered grid.
func GridKey(mode timetable.ViewMode, sessionID, ownerID string) string {
	return fmt.Sprintf("%s:%s:grid:%s:%s", cacheNamespace, sessionID, mode, ownerID)
}

// SessionPattern matches every cached view of a session.
func SessionPattern(sessionID string) string {
	return fmt.Sprintf("%s:%s:*", cacheNamespace, sessionID)
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	s.metrics.RecordCacheInvalidation()
	return nil
}

const invalidateSessionJob = "cache.invalidate_session"

// CacheInvalidator drops cached views of a session after a write. The sweep runs
// on the request path; only a failed sweep is handed to the worker queue, where
// retries for the same session collapse into one job.
type CacheInvalidator struct {
	cache  *CacheService
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewCacheInvalidator builds the invalidator and its worker queue.
func NewCacheInvalidator(cache *CacheService, cfg jobs.QueueConfig) *CacheInvalidator {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	inv := &CacheInvalidator{cache: cache, logger: cfg.Logger}
	inv.queue = jobs.NewQueue("cache-invalidation", inv.handle, cfg)
	return inv
}

// Start launches the workers.
func (i *CacheInvalidator) Start(ctx context.Context) {
	i.queue.Start(ctx)
}

// Stop drains the workers.
func (i *CacheInvalidator) Stop() {
	i.queue.Stop()
}

// InvalidateSession removes every cached view of a session before returning, so
// a read issued after the write misses the cache. A failed sweep is retried in
// the background.
func (i *CacheInvalidator) InvalidateSession(ctx context.Context, sessionID string) {
	if i == nil || !i.cache.Enabled() || sessionID == "" {
		return
	}
	pattern := SessionPattern(sessionID)
	if err := i.cache.Invalidate(ctx, pattern); err == nil {
		return
	}
	if err := i.queue.Enqueue(jobs.Job{Type: invalidateSessionJob, Key: pattern, Payload: pattern}); err != nil {
		i.logger.Warn("cache invalidation retry not scheduled", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (i *CacheInvalidator) handle(ctx context.Context, job jobs.Job) error {
	pattern, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	return i.cache.Invalidate(ctx, pattern)
}
