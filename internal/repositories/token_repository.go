package repositories

import (
	"context"
	"fmt"
	"time"

	"taskapi/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevokedTokenRepository tracks JWT ids that were logged out or refreshed.
type RevokedTokenRepository interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) error
}

// GORMRevokedTokenRepository is a GORM implementation of RevokedTokenRepository.
type GORMRevokedTokenRepository struct {
	db *gorm.DB
}

// NewGORMRevokedTokenRepository creates a new instance of GORMRevokedTokenRepository.
func NewGORMRevokedTokenRepository(db *gorm.DB) *GORMRevokedTokenRepository {
	return &GORMRevokedTokenRepository{db: db}
}

// Revoke records tokenID. Revoking the same id twice is not an error.
func (r *GORMRevokedTokenRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	row := models.RevokedToken{TokenID: tokenID, ExpiresAt: expiresAt}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (r *GORMRevokedTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("token_id = ?", tokenID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up token %s: %w", tokenID, err)
	}
	return count > 0, nil
}

// PurgeExpired drops entries for tokens that would be rejected on expiry anyway.
func (r *GORMRevokedTokenRepository) PurgeExpired(ctx context.Context, now time.Time) error {
	err := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.RevokedToken{}).Error
	if err != nil {
		return fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return nil
}
