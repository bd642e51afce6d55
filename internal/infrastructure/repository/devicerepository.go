package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/mappers"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/models"
	"github.com/bytescookies/cookievault/internal/shared/errors"
)

type DeviceRepository struct {
	db     *gorm.DB
	mapper mappers.DeviceMapper
}

func NewDeviceRepository(db *gorm.DB) device.Repository {
	return &DeviceRepository{
		db:     db,
		mapper: mappers.NewDeviceMapper(),
	}
}

func (r *DeviceRepository) Create(ctx context.Context, d *device.Device) error {
	model := r.mapper.ToModel(d)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	d.ID = model.ID
	return nil
}

func (r *DeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*device.Device, error) {
	var model models.DeviceModel
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("device not found")
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *DeviceRepository) GetByUserAndFingerprint(ctx context.Context, userID uint, fingerprintHash string) (*device.Device, error) {
	var model models.DeviceModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND fingerprint = ?", userID, fingerprintHash).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("device not found")
		}
		return nil, fmt.Errorf("failed to get device by fingerprint: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *DeviceRepository) ListByUserID(ctx context.Context, userID uint) ([]*device.Device, error) {
	var deviceModels []models.DeviceModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_used_at DESC").
		Find(&deviceModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	devices := make([]*device.Device, len(deviceModels))
	for i := range deviceModels {
		devices[i] = r.mapper.ToDomain(&deviceModels[i])
	}
	return devices, nil
}

func (r *DeviceRepository) Update(ctx context.Context, d *device.Device) error {
	model := r.mapper.ToModel(d)
	result := r.db.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("device_id = ?", d.DeviceID).
		Updates(map[string]interface{}{
			"name":         model.Name,
			"is_active":    model.IsActive,
			"last_used_at": model.LastUsedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("device not found")
	}
	return nil
}
