package usecases

import (
	"context"
	"fmt"

	"github.com/bytescookies/cookievault/internal/application/auth/helpers"
	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/infrastructure/auth"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

type RefreshTokenCommand struct {
	RefreshToken string
}

type RefreshTokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

type RefreshTokenUseCase struct {
	userRepo    user.Repository
	sessionRepo user.SessionRepository
	jwtService  JWTService
	authHelper  *helpers.AuthHelper
	logger      logger.Interface
}

func NewRefreshTokenUseCase(
	userRepo user.Repository,
	sessionRepo user.SessionRepository,
	jwtService JWTService,
	authHelper *helpers.AuthHelper,
	logger logger.Interface,
) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtService:  jwtService,
		authHelper:  authHelper,
		logger:      logger,
	}
}

// Execute rotates the session: the presented refresh token's row is
// invalidated and a successor row with new token identity is created.
// The invalidate and create are separate statements; a crash in between
// leaves the user logged out rather than double-sessioned.
func (uc *RefreshTokenUseCase) Execute(ctx context.Context, cmd RefreshTokenCommand) (*RefreshTokenResult, error) {
	claims, err := uc.jwtService.VerifyRefresh(cmd.RefreshToken)
	if err != nil {
		return nil, errors.NewTokenInvalidError("refresh token")
	}

	session, err := uc.sessionRepo.GetByRefreshTokenHash(ctx, auth.HashToken(cmd.RefreshToken))
	if err != nil {
		if errors.IsNotFoundError(err) {
			// Token verified but no live row: already rotated or revoked.
			return nil, errors.NewSessionExpiredError()
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if !session.IsLive() {
		return nil, errors.NewSessionExpiredError()
	}

	u, err := uc.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		uc.logger.Errorw("failed to load user during refresh", "error", err, "user_id", session.UserID)
		return nil, errors.NewSessionExpiredError()
	}

	if err := uc.authHelper.EnsureDeviceActive(ctx, claims.DeviceID); err != nil {
		return nil, err
	}

	if err := uc.sessionRepo.Invalidate(ctx, session.SessionID); err != nil {
		return nil, fmt.Errorf("failed to invalidate session: %w", err)
	}

	pair, next, err := uc.authHelper.CreateSession(ctx, u, claims.DeviceID)
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("token refreshed",
		"user_id", u.ID,
		"old_session_id", session.SessionID,
		"new_session_id", next.SessionID)

	return &RefreshTokenResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}
