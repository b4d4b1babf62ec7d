package repository

import (
	"context"
	"fmt"
	"time"

	"linkvault/internal/models"

	"gorm.io/gorm"
)

// AuditFilter narrows an audit log query. Zero values are ignored.
type AuditFilter struct {
	Search string // matches user, action, details or ip
	User   string
	Action string
	From   *time.Time // inclusive
	Until  *time.Time // exclusive
	Page   Page
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	Query(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (r *auditLogRepository) Query(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.Search != "" {
		p := likePattern(filter.Search)
		q = q.Where("("+ilike("actor")+" OR "+ilike("action")+" OR "+ilike("details")+" OR "+ilike("ip")+")", p, p, p, p)
	}
	if filter.User != "" {
		q = q.Where(ilike("actor"), likePattern(filter.User))
	}
	if filter.Action != "" {
		q = q.Where(ilike("action"), likePattern(filter.Action))
	}
	if filter.From != nil {
		q = q.Where("timestamp >= ?", filter.From.UTC())
	}
	if filter.Until != nil {
		q = q.Where("timestamp < ?", filter.Until.UTC())
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	page := filter.Page
	if page.Size == 0 {
		page = NewPage(1, 0, DefaultPageSize)
	}

	logs := []models.AuditLog{}
	err := q.Order("timestamp desc").Order("id desc").
		Offset(page.Offset()).Limit(page.Size).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit logs: %w", err)
	}
	return logs, total, nil
}
