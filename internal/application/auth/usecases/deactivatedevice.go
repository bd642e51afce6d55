package usecases

import (
	"context"
	"fmt"

	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

type DeactivateDeviceCommand struct {
	UserID   uint
	DeviceID string
}

type DeactivateDeviceUseCase struct {
	deviceRepo  device.Repository
	sessionRepo user.SessionRepository
	logger      logger.Interface
}

func NewDeactivateDeviceUseCase(
	deviceRepo device.Repository,
	sessionRepo user.SessionRepository,
	logger logger.Interface,
) *DeactivateDeviceUseCase {
	return &DeactivateDeviceUseCase{
		deviceRepo:  deviceRepo,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Execute deactivates the device and kills every session opened from it,
// so a lost browser cannot keep refreshing.
func (uc *DeactivateDeviceUseCase) Execute(ctx context.Context, cmd DeactivateDeviceCommand) error {
	d, err := uc.deviceRepo.GetByDeviceID(ctx, cmd.DeviceID)
	if err != nil {
		return err
	}
	if d.UserID != cmd.UserID {
		return errors.NewNotFoundError("device not found")
	}

	d.Deactivate()
	if err := uc.deviceRepo.Update(ctx, d); err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}

	if err := uc.sessionRepo.InvalidateByDeviceID(ctx, cmd.DeviceID); err != nil {
		return fmt.Errorf("failed to invalidate device sessions: %w", err)
	}

	uc.logger.Infow("device deactivated",
		"user_id", cmd.UserID,
		"device_id", cmd.DeviceID)
	return nil
}
