package device

import "context"

// Repository persists device rows.
type Repository interface {
	Create(ctx context.Context, device *Device) error
	GetByDeviceID(ctx context.Context, deviceID string) (*Device, error)
	GetByUserAndFingerprint(ctx context.Context, userID uint, fingerprintHash string) (*Device, error)
	ListByUserID(ctx context.Context, userID uint) ([]*Device, error)
	Update(ctx context.Context, device *Device) error
}
