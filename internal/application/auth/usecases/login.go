package usecases

import (
	"context"
	"strings"

	"github.com/bytescookies/cookievault/internal/application/auth/helpers"
	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

type LoginCommand struct {
	Email       string
	Password    string
	Fingerprint device.Fingerprint
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	User         UserInfo
}

type LoginUseCase struct {
	userRepo   user.Repository
	hasher     PasswordHasher
	authHelper *helpers.AuthHelper
	logger     logger.Interface
}

func NewLoginUseCase(
	userRepo user.Repository,
	hasher PasswordHasher,
	authHelper *helpers.AuthHelper,
	logger logger.Interface,
) *LoginUseCase {
	return &LoginUseCase{
		userRepo:   userRepo,
		hasher:     hasher,
		authHelper: authHelper,
		logger:     logger,
	}
}

func (uc *LoginUseCase) Execute(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))

	u, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFoundError(err) {
			// Same failure shape as a wrong password.
			return nil, errors.NewInvalidCredentialsError()
		}
		return nil, err
	}

	if err := uc.hasher.Verify(cmd.Password, u.PasswordHash); err != nil {
		uc.logger.Warnw("failed login attempt", "user_id", u.ID)
		return nil, errors.NewInvalidCredentialsError()
	}

	d, err := uc.authHelper.UpsertDevice(ctx, u.ID, cmd.Fingerprint)
	if err != nil {
		return nil, err
	}

	pair, session, err := uc.authHelper.CreateSession(ctx, u, d.DeviceID)
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("user logged in",
		"user_id", u.ID,
		"session_id", session.SessionID,
		"device_id", d.DeviceID)

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         UserInfo{ID: u.UUID, Email: u.Email, Name: u.Name},
	}, nil
}
