package repository

import (
	"context"
	"fmt"

	"linkvault/internal/models"

	"gorm.io/gorm"
)

type URLRepository interface {
	Create(ctx context.Context, url *models.URL) error
	FindByID(ctx context.Context, id uint) (*models.URL, error)
	FindByShortCode(ctx context.Context, code string) (*models.URL, error)
	ListByUser(ctx context.Context, userID uint, search string, page Page) ([]models.URL, int64, error)
	UpdateOriginalURL(ctx context.Context, url *models.URL, originalURL string) error
	Delete(ctx context.Context, id uint) error
}

type urlRepository struct {
	db *gorm.DB
}

func NewURLRepository(db *gorm.DB) URLRepository {
	return &urlRepository{db: db}
}

func (r *urlRepository) Create(ctx context.Context, url *models.URL) error {
	if err := r.db.WithContext(ctx).Create(url).Error; err != nil {
		return fmt.Errorf("failed to create url: %w", err)
	}
	return nil
}

func (r *urlRepository) FindByID(ctx context.Context, id uint) (*models.URL, error) {
	var url models.URL
	if err := r.db.WithContext(ctx).First(&url, id).Error; err != nil {
		return nil, fmt.Errorf("failed to find url by id %d: %w", id, err)
	}
	return &url, nil
}

func (r *urlRepository) FindByShortCode(ctx context.Context, code string) (*models.URL, error) {
	var url models.URL
	if err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&url).Error; err != nil {
		return nil, fmt.Errorf("failed to find url by code: %w", err)
	}
	return &url, nil
}

func (r *urlRepository) ListByUser(ctx context.Context, userID uint, search string, page Page) ([]models.URL, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.URL{}).Where("user_id = ?", userID)
	if search != "" {
		p := likePattern(search)
		q = q.Where("("+ilike("original_url")+" OR "+ilike("short_code")+")", p, p)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count urls: %w", err)
	}

	urls := []models.URL{}
	err := q.Order("created_at desc").Order("id desc").
		Offset(page.Offset()).Limit(page.Size).
		Find(&urls).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list urls: %w", err)
	}
	return urls, total, nil
}

func (r *urlRepository) UpdateOriginalURL(ctx context.Context, url *models.URL, originalURL string) error {
	if err := r.db.WithContext(ctx).Model(url).Update("original_url", originalURL).Error; err != nil {
		return fmt.Errorf("failed to update url %d: %w", url.ID, err)
	}
	return nil
}

func (r *urlRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.URL{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete url %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to delete url %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
