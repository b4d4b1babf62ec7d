package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"linkvault/internal/apperr"
	"linkvault/internal/models"
	"linkvault/internal/repository"
	"linkvault/pkg/utils"
)

const (
	maxCodeAttempts  = 5
	maxURLLength     = 2048
	DefaultURLsPage  = 5
	errURLNotFound   = "URL not found"
	errURLForbidden  = "Forbidden"
	errInvalidURL    = "originalUrl must be an absolute http or https URL"
	errCodeExhausted = "could not generate a unique short code"
)

// reservedCodes are top-level route names that GET /:shortCode can never
// reach.
var reservedCodes = map[string]struct{}{
	"health":          {},
	"metrics":         {},
	"login":           {},
	"forgot-password": {},
	"reset-password":  {},
	"urls":            {},
	"users":           {},
	"audit-logs":      {},
}

// IsReservedCode reports whether code collides with a static route.
func IsReservedCode(code string) bool {
	_, ok := reservedCodes[code]
	return ok
}

type ShortenerService struct {
	urls          repository.URLRepository
	cache         *repository.URLCache
	auditService  *AuditService
	logger        *slog.Logger
	codeGenerator func(int) (string, error)
}

func NewShortenerService(urls repository.URLRepository, cache *repository.URLCache, auditService *AuditService, logger *slog.Logger) *ShortenerService {
	return &ShortenerService{
		urls:          urls,
		cache:         cache,
		auditService:  auditService,
		logger:        logger,
		codeGenerator: utils.GenerateShortCode,
	}
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.Validation("originalUrl required")
	}
	if len(raw) > maxURLLength {
		return "", apperr.Validation("originalUrl is too long")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperr.Validation(errInvalidURL)
	}
	return raw, nil
}

// CreateShortURL stores originalURL under a fresh code owned by the actor.
// The unique index on short_code decides collisions; a duplicate insert or a
// reserved route name draws a new code, up to maxCodeAttempts times.
func (s *ShortenerService) CreateShortURL(ctx context.Context, actor Actor, originalURL string) (*models.URL, error) {
	originalURL, err := ValidateURL(originalURL)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codeGenerator(models.ShortCodeLength)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Could not create short URL", err)
		}
		if IsReservedCode(code) {
			s.logger.WarnContext(ctx, "Short code is a reserved route, retrying", "attempt", attempt)
			continue
		}

		newURL := models.URL{
			OriginalURL: originalURL,
			ShortCode:   code,
			UserID:      actor.UserID,
		}
		err = s.urls.Create(ctx, &newURL)
		if err == nil {
			s.auditService.Record(ctx, actor, ActionCreateURL, map[string]interface{}{
				"id":          newURL.ID,
				"shortCode":   newURL.ShortCode,
				"originalUrl": newURL.OriginalURL,
			})
			return &newURL, nil
		}
		if !repository.IsDuplicate(err) {
			return nil, mapRepoError(err, "")
		}
		s.logger.WarnContext(ctx, "Short code collision, retrying", "attempt", attempt)
	}

	return nil, apperr.Wrap(apperr.KindInternal, "Could not create short URL", errors.New(errCodeExhausted))
}

func (s *ShortenerService) ListURLs(ctx context.Context, actor Actor, search string, page repository.Page) ([]models.URL, int64, error) {
	urls, total, err := s.urls.ListByUser(ctx, actor.UserID, strings.TrimSpace(search), page)
	if err != nil {
		return nil, 0, mapRepoError(err, "")
	}
	return urls, total, nil
}

// GetURL loads a URL the actor owns. Admins may read any URL.
func (s *ShortenerService) GetURL(ctx context.Context, actor Actor, id uint) (*models.URL, error) {
	u, err := s.urls.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, errURLNotFound)
	}
	if !u.OwnedBy(actor.UserID) && !actor.IsAdmin() {
		return nil, apperr.Forbidden(errURLForbidden)
	}
	return u, nil
}

func (s *ShortenerService) UpdateURL(ctx context.Context, actor Actor, id uint, originalURL string) (*models.URL, error) {
	originalURL, err := ValidateURL(originalURL)
	if err != nil {
		return nil, err
	}

	u, err := s.GetURL(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.urls.UpdateOriginalURL(ctx, u, originalURL); err != nil {
		return nil, mapRepoError(err, errURLNotFound)
	}
	u.OriginalURL = originalURL
	s.invalidate(ctx, u.ShortCode)

	s.auditService.Record(ctx, actor, ActionEditURL, map[string]interface{}{
		"id":          u.ID,
		"shortCode":   u.ShortCode,
		"originalUrl": u.OriginalURL,
	})
	return u, nil
}

func (s *ShortenerService) DeleteURL(ctx context.Context, actor Actor, id uint) error {
	u, err := s.GetURL(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.urls.Delete(ctx, u.ID); err != nil {
		return mapRepoError(err, errURLNotFound)
	}
	s.invalidate(ctx, u.ShortCode)

	s.auditService.Record(ctx, actor, ActionDeleteURL, map[string]interface{}{
		"id":        u.ID,
		"shortCode": u.ShortCode,
	})
	return nil
}

func (s *ShortenerService) invalidate(ctx context.Context, code string) {
	if err := s.cache.Delete(ctx, code); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate cached url", "short_code", code, "error", err)
	}
}
