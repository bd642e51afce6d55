package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/mappers"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/models"
	"github.com/bytescookies/cookievault/internal/shared/biztime"
	"github.com/bytescookies/cookievault/internal/shared/errors"
)

type SessionRepository struct {
	db     *gorm.DB
	mapper mappers.SessionMapper
}

func NewSessionRepository(db *gorm.DB) user.SessionRepository {
	return &SessionRepository{
		db:     db,
		mapper: mappers.NewSessionMapper(),
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *user.Session) error {
	model := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*user.Session, error) {
	var model models.SessionModel
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("session not found")
		}
		return nil, fmt.Errorf("failed to get session by session ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *SessionRepository) GetByTokenID(ctx context.Context, tokenID string) (*user.Session, error) {
	var model models.SessionModel
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("session not found")
		}
		return nil, fmt.Errorf("failed to get session by token ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *SessionRepository) GetByRefreshTokenHash(ctx context.Context, hash string) (*user.Session, error) {
	var model models.SessionModel
	err := r.db.WithContext(ctx).Where("refresh_token_hash = ?", hash).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("session not found")
		}
		return nil, fmt.Errorf("failed to get session by refresh token hash: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *SessionRepository) GetActiveByUserID(ctx context.Context, userID uint) ([]*user.Session, error) {
	var sessionModels []models.SessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_valid = ? AND expires_at > ?", userID, true, biztime.NowUTC()).
		Order("last_activity_at DESC").
		Find(&sessionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions by user ID: %w", err)
	}

	sessions := make([]*user.Session, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = r.mapper.ToDomain(&sessionModels[i])
	}
	return sessions, nil
}

func (r *SessionRepository) Update(ctx context.Context, session *user.Session) error {
	model := r.mapper.ToModel(session)
	result := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("session_id = ?", session.SessionID).
		Updates(map[string]interface{}{
			"token_id":           model.TokenID,
			"refresh_token_hash": model.RefreshTokenHash,
			"is_valid":           model.IsValid,
			"expires_at":         model.ExpiresAt,
			"last_activity_at":   model.LastActivityAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("session not found")
	}
	return nil
}

func (r *SessionRepository) Invalidate(ctx context.Context, sessionID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("session_id = ?", sessionID).
		Update("is_valid", false)
	if result.Error != nil {
		return fmt.Errorf("failed to invalidate session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("session not found")
	}
	return nil
}

func (r *SessionRepository) InvalidateByUserID(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("user_id = ?", userID).
		Update("is_valid", false).Error
	if err != nil {
		return fmt.Errorf("failed to invalidate sessions by user ID: %w", err)
	}
	return nil
}

func (r *SessionRepository) InvalidateByDeviceID(ctx context.Context, deviceID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("device_id = ?", deviceID).
		Update("is_valid", false).Error
	if err != nil {
		return fmt.Errorf("failed to invalidate sessions by device ID: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", before).
		Delete(&models.SessionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
