package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bytescookies/cookievault/internal/domain/cookie"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/mappers"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/models"
	"github.com/bytescookies/cookievault/internal/shared/errors"
)

type CookiePayloadRepository struct {
	db     *gorm.DB
	mapper mappers.CookiePayloadMapper
}

func NewCookiePayloadRepository(db *gorm.DB) cookie.PayloadRepository {
	return &CookiePayloadRepository{
		db:     db,
		mapper: mappers.NewCookiePayloadMapper(),
	}
}

func (r *CookiePayloadRepository) Upsert(ctx context.Context, record *cookie.PayloadRecord) error {
	model := r.mapper.ToModel(record)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "domain"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"ciphertext", "iv", "integrity_tag", "salt", "version",
				"payload_timestamp", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert cookie payload: %w", err)
	}
	return nil
}

func (r *CookiePayloadRepository) GetByUserAndDomain(ctx context.Context, userID uint, domain string) (*cookie.PayloadRecord, error) {
	var model models.CookiePayloadModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND domain = ?", userID, domain).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("cookie payload not found")
		}
		return nil, fmt.Errorf("failed to get cookie payload: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *CookiePayloadRepository) ListDomainsByUser(ctx context.Context, userID uint) ([]string, error) {
	var domains []string
	err := r.db.WithContext(ctx).
		Model(&models.CookiePayloadModel{}).
		Where("user_id = ?", userID).
		Order("domain ASC").
		Pluck("domain", &domains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cookie payload domains: %w", err)
	}
	return domains, nil
}

func (r *CookiePayloadRepository) DeleteByUserAndDomain(ctx context.Context, userID uint, domain string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND domain = ?", userID, domain).
		Delete(&models.CookiePayloadModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete cookie payload: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("cookie payload not found")
	}
	return nil
}

func (r *CookiePayloadRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated_at <= ?", before).
		Delete(&models.CookiePayloadModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete stale cookie payloads: %w", result.Error)
	}
	return result.RowsAffected, nil
}
