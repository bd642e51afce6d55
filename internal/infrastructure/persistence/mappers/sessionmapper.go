package mappers

import (
	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/models"
)

// SessionMapper handles the conversion between Session domain entities and persistence models.
type SessionMapper interface {
	ToModel(entity *user.Session) *models.SessionModel
	ToDomain(model *models.SessionModel) *user.Session
}

type SessionMapperImpl struct{}

func NewSessionMapper() SessionMapper {
	return &SessionMapperImpl{}
}

func (m *SessionMapperImpl) ToModel(entity *user.Session) *models.SessionModel {
	if entity == nil {
		return nil
	}
	return &models.SessionModel{
		SessionID:        entity.SessionID,
		UserID:           entity.UserID,
		TokenID:          entity.TokenID,
		DeviceID:         entity.DeviceID,
		RefreshTokenHash: entity.RefreshTokenHash,
		IsValid:          entity.IsValid,
		ExpiresAt:        entity.ExpiresAt,
		LastActivityAt:   entity.LastActivityAt,
		CreatedAt:        entity.CreatedAt,
	}
}

func (m *SessionMapperImpl) ToDomain(model *models.SessionModel) *user.Session {
	if model == nil {
		return nil
	}
	return &user.Session{
		SessionID:        model.SessionID,
		UserID:           model.UserID,
		TokenID:          model.TokenID,
		DeviceID:         model.DeviceID,
		RefreshTokenHash: model.RefreshTokenHash,
		IsValid:          model.IsValid,
		ExpiresAt:        model.ExpiresAt,
		LastActivityAt:   model.LastActivityAt,
		CreatedAt:        model.CreatedAt,
	}
}
