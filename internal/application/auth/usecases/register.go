package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytescookies/cookievault/internal/application/auth/helpers"
	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

type RegisterCommand struct {
	Email       string
	Name        string
	Password    string
	Fingerprint device.Fingerprint
}

// RegisterResult carries the token pair because registration logs the
// new user straight in.
type RegisterResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	User         UserInfo
}

type RegisterUseCase struct {
	userRepo   user.Repository
	hasher     PasswordHasher
	authHelper *helpers.AuthHelper
	logger     logger.Interface
}

func NewRegisterUseCase(
	userRepo user.Repository,
	hasher PasswordHasher,
	authHelper *helpers.AuthHelper,
	logger logger.Interface,
) *RegisterUseCase {
	return &RegisterUseCase{
		userRepo:   userRepo,
		hasher:     hasher,
		authHelper: authHelper,
		logger:     logger,
	}
}

func (uc *RegisterUseCase) Execute(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))

	if len(cmd.Password) < 8 {
		return nil, errors.NewValidationError("Password must be at least 8 characters")
	}

	exists, err := uc.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, errors.NewUserExistsError()
	}

	hash, err := uc.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := user.NewUser(email, cmd.Name, hash)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	d, err := uc.authHelper.UpsertDevice(ctx, u.ID, cmd.Fingerprint)
	if err != nil {
		return nil, err
	}

	pair, session, err := uc.authHelper.CreateSession(ctx, u, d.DeviceID)
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("user registered",
		"user_id", u.ID,
		"session_id", session.SessionID,
		"device_id", d.DeviceID)

	return &RegisterResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         UserInfo{ID: u.UUID, Email: u.Email, Name: u.Name},
	}, nil
}
