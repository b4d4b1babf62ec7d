package services

import (
	"context"
	"errors"
	"log/slog"

	"linkvault/internal/apperr"
	"linkvault/internal/observability"
	"linkvault/internal/repository"
)

// Resolver maps short codes to destinations, reading through the URL cache.
type Resolver struct {
	urls    repository.URLRepository
	cache   *repository.URLCache
	logger  *slog.Logger
	metrics *observability.Prom
}

func NewResolver(urls repository.URLRepository, cache *repository.URLCache, logger *slog.Logger, metrics *observability.Prom) *Resolver {
	return &Resolver{urls: urls, cache: cache, logger: logger, metrics: metrics}
}

// Resolve returns the stored destination of code unchanged. Cache failures
// fall back to the database.
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	dest, err := r.cache.Get(ctx, code)
	if err == nil {
		r.metrics.IncRedirect("cache_hit")
		return dest, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		r.logger.WarnContext(ctx, "URL cache read failed", "short_code", code, "error", err)
	}

	u, err := r.urls.FindByShortCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			r.metrics.IncRedirect("not_found")
			return "", apperr.NotFound("Short URL not found")
		}
		r.metrics.IncRedirect("error")
		return "", mapRepoError(err, "")
	}

	if err := r.cache.Set(ctx, code, u.OriginalURL); err != nil {
		r.logger.WarnContext(ctx, "URL cache write failed", "short_code", code, "error", err)
	}
	r.metrics.IncRedirect("hit")
	return u.OriginalURL, nil
}
