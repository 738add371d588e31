package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached report payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheConfig configures CacheService.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
	Namespace  string
}

// CacheService namespaces keys and records cache metrics. A disabled service
// misses every read and ignores writes.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	namespace  string
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, cfg CacheConfig, logger *zap.Logger) *CacheService {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	namespace := strings.TrimSuffix(cfg.Namespace, ":")
	if namespace != "" {
		namespace += ":"
	}
	return &CacheService{
		repo:       repo,
		metrics:    metrics,
		defaultTTL: cfg.DefaultTTL,
		namespace:  namespace,
		logger:     logger,
		enabled:    cfg.Enabled,
	}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get reports whether key was found and decoded into dest.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, s.namespace+key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return false, nil
	}
	s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	return false, err
}

// Set stores value under key; a non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, s.namespace+key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops exact keys and glob patterns (anything containing '*').
// It keeps going after a failure and returns the first error.
func (s *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}
	var (
		exact    []string
		firstErr error
	)
	for _, key := range keys {
		if !strings.Contains(key, "*") {
			exact = append(exact, s.namespace+key)
			continue
		}
		if err := s.repo.DeleteByPattern(ctx, s.namespace+key); err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", key), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if err := s.repo.Delete(ctx, exact...); err != nil {
		s.logger.Warn("cache delete failed", zap.Strings("keys", exact), zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
