package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mythos-labs/mythos-api/internal/models"
	"github.com/mythos-labs/mythos-api/internal/storage"
	"gorm.io/gorm"
)

type APIKeyRepository struct {
	db *storage.Postgres
}

func NewAPIKeyRepository(db *storage.Postgres) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(ctx context.Context, apiKey *models.APIKey) error {
	return r.db.DB.WithContext(ctx).Create(apiKey).Error
}

func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := r.db.DB.WithContext(ctx).
		Where("key_hash = ? AND is_active = ?", hash, true).
		First(&apiKey).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &apiKey, err
}

func (r *APIKeyRepository) FindByID(ctx context.Context, id string) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&apiKey).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &apiKey, err
}

func (r *APIKeyRepository) List(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.DB.WithContext(ctx).
		Order("created_at DESC").
		Find(&keys).Error

	return keys, err
}

func (r *APIKeyRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// IncrementUsage records one admitted call as a relative increment so that
// concurrent calls on different instances do not lose counts to a
// read-modify-write race.
func (r *APIKeyRepository) IncrementUsage(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"monthly_request_count":  gorm.Expr("monthly_request_count + 1"),
			"lifetime_request_count": gorm.Expr("lifetime_request_count + 1"),
			"last_used_at":           now,
		}).Error
}

// ResetUsage records the first admitted call of a new period. The monthly
// count is written as an absolute value: if two concurrent calls both see the
// boundary crossed, both writes converge on a small count and an advanced
// boundary instead of compounding.
func (r *APIKeyRepository) ResetUsage(ctx context.Context, id uuid.UUID, nextReset, now time.Time) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"monthly_request_count":  1,
			"monthly_reset_at":       nextReset,
			"lifetime_request_count": gorm.Expr("lifetime_request_count + 1"),
			"last_used_at":           now,
		}).Error
}

func (r *APIKeyRepository) Delete(ctx context.Context, id string) error {
	return r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.APIKey{}).Error
}

func (r *APIKeyRepository) CountByTier(ctx context.Context, tierName string) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.APIKey{}).
		Where("tier = ? AND is_active = ?", tierName, true).
		Count(&count).Error

	return count, err
}
