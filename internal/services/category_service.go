package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/farellandr/runnershive/internal/cache"
	"github.com/farellandr/runnershive/internal/metrics"
	"github.com/farellandr/runnershive/internal/models"
)

const categoriesCacheKey = "categories:all"

type categoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
}

type jsonCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CategoryService lists categories, reading through the cache when one is
// configured.
type CategoryService struct {
	repo    categoryRepository
	cache   jsonCache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCategoryService(repo categoryRepository, cache jsonCache, ttl time.Duration, metrics *metrics.Metrics, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	if s.cache != nil {
		var cached []models.Category
		err := s.cache.Get(ctx, categoriesCacheKey, &cached)
		if err == nil {
			s.metrics.CacheLookup(true)
			return cached, nil
		}
		s.metrics.CacheLookup(false)
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("category cache read failed", zap.Error(err))
		}
	}

	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, categoriesCacheKey, categories, s.ttl); err != nil {
			s.logger.Warn("category cache write failed", zap.Error(err))
		}
	}

	return categories, nil
}

// Invalidate drops the cached list so the next read goes to the database.
func (s *CategoryService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, categoriesCacheKey)
}
