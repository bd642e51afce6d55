package usecases

import (
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

type RenameDeviceCommand struct {
	UserID   uint
	DeviceID string
	Name     string
}

type RenameDeviceResult struct {
	Device DeviceInfo
}

type RenameDeviceUseCase struct {
	deviceRepo device.Repository
	sanitizer  *bluemonday.Policy
	logger     logger.Interface
}

func NewRenameDeviceUseCase(deviceRepo device.Repository, logger logger.Interface) *RenameDeviceUseCase {
	return &RenameDeviceUseCase{
		deviceRepo: deviceRepo,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger,
	}
}

func (uc *RenameDeviceUseCase) Execute(ctx context.Context, cmd RenameDeviceCommand) (*RenameDeviceResult, error) {
	d, err := uc.deviceRepo.GetByDeviceID(ctx, cmd.DeviceID)
	if err != nil {
		return nil, err
	}
	if d.UserID != cmd.UserID {
		// Hide other users' devices entirely.
		return nil, errors.NewNotFoundError("device not found")
	}

	// Device names render in account UIs; strip any markup.
	name := strings.TrimSpace(uc.sanitizer.Sanitize(cmd.Name))
	if name == "" {
		return nil, errors.NewValidationError("Device name is required")
	}
	if len(name) > 100 {
		name = name[:100]
	}

	if err := d.Rename(name); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := uc.deviceRepo.Update(ctx, d); err != nil {
		return nil, err
	}

	uc.logger.Infow("device renamed", "user_id", cmd.UserID, "device_id", cmd.DeviceID)
	info := toDeviceInfo(d)
	return &RenameDeviceResult{Device: info}, nil
}
