package mappers

import (
	"github.com/bytescookies/cookievault/internal/domain/cookie"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/models"
)

// CookiePayloadMapper handles the conversion between PayloadRecord domain
// entities and persistence models.
type CookiePayloadMapper interface {
	ToModel(entity *cookie.PayloadRecord) *models.CookiePayloadModel
	ToDomain(model *models.CookiePayloadModel) *cookie.PayloadRecord
}

type CookiePayloadMapperImpl struct{}

func NewCookiePayloadMapper() CookiePayloadMapper {
	return &CookiePayloadMapperImpl{}
}

func (m *CookiePayloadMapperImpl) ToModel(entity *cookie.PayloadRecord) *models.CookiePayloadModel {
	if entity == nil {
		return nil
	}
	return &models.CookiePayloadModel{
		ID:           entity.ID,
		UserID:       entity.UserID,
		Domain:       entity.Domain,
		Ciphertext:   entity.Ciphertext,
		IV:           entity.IV,
		IntegrityTag: entity.IntegrityTag,
		Salt:         entity.Salt,
		Version:      entity.Version,
		Timestamp:    entity.Timestamp,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}
}

func (m *CookiePayloadMapperImpl) ToDomain(model *models.CookiePayloadModel) *cookie.PayloadRecord {
	if model == nil {
		return nil
	}
	return &cookie.PayloadRecord{
		ID:           model.ID,
		UserID:       model.UserID,
		Domain:       model.Domain,
		Ciphertext:   model.Ciphertext,
		IV:           model.IV,
		IntegrityTag: model.IntegrityTag,
		Salt:         model.Salt,
		Version:      model.Version,
		Timestamp:    model.Timestamp,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
