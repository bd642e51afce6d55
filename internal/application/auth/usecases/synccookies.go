package usecases

import (
	"context"
	"fmt"

	"github.com/bytescookies/cookievault/internal/domain/cookie"
	"github.com/bytescookies/cookievault/internal/infrastructure/crypto"
	"github.com/bytescookies/cookievault/internal/shared/biztime"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

type SyncCookiesCommand struct {
	UserID  uint
	Domain  string
	Payload crypto.EncryptedPayload
}

type GetCookiesCommand struct {
	UserID uint
	Domain string
}

type GetCookiesResult struct {
	Payload crypto.EncryptedPayload
}

// SyncCookiesUseCase stores and serves encrypted cookie batches. The
// server never decrypts; it only checks the payload envelope.
type SyncCookiesUseCase struct {
	payloadRepo cookie.PayloadRepository
	logger      logger.Interface
}

func NewSyncCookiesUseCase(payloadRepo cookie.PayloadRepository, logger logger.Interface) *SyncCookiesUseCase {
	return &SyncCookiesUseCase{
		payloadRepo: payloadRepo,
		logger:      logger,
	}
}

func (uc *SyncCookiesUseCase) Store(ctx context.Context, cmd SyncCookiesCommand) error {
	if cmd.Domain == "" {
		return errors.NewValidationError("Domain is required")
	}
	p := cmd.Payload
	if p.Ciphertext == "" || p.IV == "" || p.IntegrityTag == "" || p.Salt == "" {
		return errors.NewValidationError("Incomplete encrypted payload")
	}
	if p.Version != crypto.PayloadVersion {
		return errors.NewValidationError(fmt.Sprintf("Unsupported payload version %q", p.Version))
	}

	now := biztime.NowUTC()
	record := &cookie.PayloadRecord{
		UserID:       cmd.UserID,
		Domain:       cmd.Domain,
		Ciphertext:   p.Ciphertext,
		IV:           p.IV,
		IntegrityTag: p.IntegrityTag,
		Salt:         p.Salt,
		Version:      p.Version,
		Timestamp:    p.Timestamp,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.payloadRepo.Upsert(ctx, record); err != nil {
		return err
	}

	uc.logger.Infow("cookie payload synced",
		"user_id", cmd.UserID,
		"domain", cmd.Domain)
	return nil
}

func (uc *SyncCookiesUseCase) Get(ctx context.Context, cmd GetCookiesCommand) (*GetCookiesResult, error) {
	if cmd.Domain == "" {
		return nil, errors.NewValidationError("Domain is required")
	}

	record, err := uc.payloadRepo.GetByUserAndDomain(ctx, cmd.UserID, cmd.Domain)
	if err != nil {
		return nil, err
	}

	return &GetCookiesResult{
		Payload: crypto.EncryptedPayload{
			Ciphertext:   record.Ciphertext,
			IV:           record.IV,
			IntegrityTag: record.IntegrityTag,
			Salt:         record.Salt,
			Timestamp:    record.Timestamp,
			Version:      record.Version,
		},
	}, nil
}

// ListDomains returns the domains a user has synced payloads for.
func (uc *SyncCookiesUseCase) ListDomains(ctx context.Context, userID uint) ([]string, error) {
	return uc.payloadRepo.ListDomainsByUser(ctx, userID)
}
