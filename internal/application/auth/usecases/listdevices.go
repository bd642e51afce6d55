package usecases

import (
	"context"
	"fmt"

	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

type ListDevicesCommand struct {
	UserID uint
}

type ListDevicesResult struct {
	Devices []DeviceInfo
}

type ListDevicesUseCase struct {
	deviceRepo device.Repository
	logger     logger.Interface
}

func NewListDevicesUseCase(deviceRepo device.Repository, logger logger.Interface) *ListDevicesUseCase {
	return &ListDevicesUseCase{
		deviceRepo: deviceRepo,
		logger:     logger,
	}
}

func (uc *ListDevicesUseCase) Execute(ctx context.Context, cmd ListDevicesCommand) (*ListDevicesResult, error) {
	devices, err := uc.deviceRepo.ListByUserID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	infos := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		infos[i] = toDeviceInfo(d)
	}
	return &ListDevicesResult{Devices: infos}, nil
}
