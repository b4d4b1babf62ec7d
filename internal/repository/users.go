package repository

import (
	"context"
	"fmt"
	"time"

	"linkvault/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, search string) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) ([]string, error)
	SetResetToken(ctx context.Context, id uint, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (uint, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("failed to find user by id %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, search string) ([]models.User, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		p := likePattern(search)
		q = q.Where("("+ilike("name")+" OR "+ilike("email")+")", p, p)
	}
	users := []models.User{}
	if err := q.Order("id asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user id %d: %w", user.ID, err)
	}
	return nil
}

// Delete removes the user and every short URL they own in one transaction.
// It returns the short codes that were deleted with the user.
func (r *userRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.URL{}).Where("user_id = ?", id).Pluck("short_code", &codes).Error; err != nil {
			return fmt.Errorf("failed to list urls of user %d: %w", id, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.URL{}).Error; err != nil {
			return fmt.Errorf("failed to delete urls of user %d: %w", id, err)
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("failed to delete user %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// SetResetToken overwrites any previous reset token of the user.
func (r *userRepository) SetResetToken(ctx context.Context, id uint, tokenHash string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"reset_token":        tokenHash,
		"reset_token_expiry": expiresAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to store reset token for user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to store reset token for user %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// ConsumeResetToken sets the new password and clears the token in a single
// conditional update, so the same token can succeed at most once.
func (r *userRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (uint, error) {
	var userID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("reset_token = ?", tokenHash).First(&user).Error; err != nil {
			if IsNotFound(err) {
				return ErrResetTokenInvalid
			}
			return fmt.Errorf("failed to look up reset token: %w", err)
		}
		if user.ResetTokenExpiry == nil || !now.Before(*user.ResetTokenExpiry) {
			return ErrResetTokenInvalid
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND reset_token = ?", user.ID, tokenHash).
			Updates(map[string]interface{}{
				"password":           passwordHash,
				"reset_token":        nil,
				"reset_token_expiry": nil,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to reset password for user %d: %w", user.ID, res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrResetTokenInvalid
		}
		userID = user.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}
