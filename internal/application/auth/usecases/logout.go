package usecases

import (
	"context"

	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

type LogoutCommand struct {
	SessionID string
}

type LogoutUseCase struct {
	sessionRepo user.SessionRepository
	logger      logger.Interface
}

func NewLogoutUseCase(sessionRepo user.SessionRepository, logger logger.Interface) *LogoutUseCase {
	return &LogoutUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Execute invalidates the session. Logging out an already-dead session
// is not an error; logout must always succeed from the client's view.
func (uc *LogoutUseCase) Execute(ctx context.Context, cmd LogoutCommand) error {
	if err := uc.sessionRepo.Invalidate(ctx, cmd.SessionID); err != nil {
		if errors.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	uc.logger.Infow("user logged out", "session_id", cmd.SessionID)
	return nil
}
