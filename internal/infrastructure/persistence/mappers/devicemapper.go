package mappers

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/models"
)

// DeviceMapper handles the conversion between Device domain entities and persistence models.
type DeviceMapper interface {
	ToModel(entity *device.Device) *models.DeviceModel
	ToDomain(model *models.DeviceModel) *device.Device
}

type DeviceMapperImpl struct{}

func NewDeviceMapper() DeviceMapper {
	return &DeviceMapperImpl{}
}

func (m *DeviceMapperImpl) ToModel(entity *device.Device) *models.DeviceModel {
	if entity == nil {
		return nil
	}

	info, err := json.Marshal(entity.Fingerprint)
	if err != nil {
		info = nil
	}

	return &models.DeviceModel{
		ID:              entity.ID,
		DeviceID:        entity.DeviceID,
		UserID:          entity.UserID,
		Name:            entity.Name,
		Fingerprint:     entity.Fingerprint.Hash(),
		FingerprintInfo: datatypes.JSON(info),
		IsActive:        entity.IsActive,
		LastUsedAt:      entity.LastUsedAt,
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}
}

func (m *DeviceMapperImpl) ToDomain(model *models.DeviceModel) *device.Device {
	if model == nil {
		return nil
	}

	var fp device.Fingerprint
	if len(model.FingerprintInfo) > 0 {
		// Raw components are best-effort; the hash is authoritative.
		_ = json.Unmarshal(model.FingerprintInfo, &fp)
	}

	return &device.Device{
		ID:          model.ID,
		DeviceID:    model.DeviceID,
		UserID:      model.UserID,
		Name:        model.Name,
		Fingerprint: fp,
		IsActive:    model.IsActive,
		LastUsedAt:  model.LastUsedAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
