// Package helpers carries the session issuing logic shared by the
// register, login and refresh usecases.
package helpers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/infrastructure/auth"
	"github.com/bytescookies/cookievault/internal/shared/biztime"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

// TokenIssuer is the slice of the JWT service the helper needs.
type TokenIssuer interface {
	Generate(userUUID, sessionID, tokenID, deviceID string) (*auth.TokenPair, error)
	RefreshExpDays() int
}

// AuthHelper issues sessions: it upserts the device row, creates the
// server session and signs the token pair in one place.
type AuthHelper struct {
	jwtService  TokenIssuer
	sessionRepo user.SessionRepository
	deviceRepo  device.Repository
	logger      logger.Interface
}

func NewAuthHelper(
	jwtService TokenIssuer,
	sessionRepo user.SessionRepository,
	deviceRepo device.Repository,
	logger logger.Interface,
) *AuthHelper {
	return &AuthHelper{
		jwtService:  jwtService,
		sessionRepo: sessionRepo,
		deviceRepo:  deviceRepo,
		logger:      logger,
	}
}

// NormalizeLanguage canonicalizes an Accept-Language style value so the
// fingerprint hash does not fracture on casing ("en-us" vs "en-US").
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	// Only the first (preferred) language feeds the fingerprint.
	if idx := strings.IndexAny(lang, ",;"); idx >= 0 {
		lang = lang[:idx]
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}

// UpsertDevice finds or registers the device matching fp for the user
// and touches its last-used timestamp. Deactivated devices reject.
func (h *AuthHelper) UpsertDevice(ctx context.Context, userID uint, fp device.Fingerprint) (*device.Device, error) {
	fp.Language = NormalizeLanguage(fp.Language)

	existing, err := h.deviceRepo.GetByUserAndFingerprint(ctx, userID, fp.Hash())
	if err == nil {
		if !existing.IsActive {
			return nil, errors.NewDeviceInactiveError()
		}
		existing.Touch()
		if err := h.deviceRepo.Update(ctx, existing); err != nil {
			h.logger.Warnw("failed to touch device", "error", err, "device_id", existing.DeviceID)
		}
		return existing, nil
	}
	if !errors.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up device: %w", err)
	}

	d, err := device.NewDevice(userID, fp)
	if err != nil {
		return nil, fmt.Errorf("failed to build device: %w", err)
	}
	if err := h.deviceRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	h.logger.Infow("device registered", "user_id", userID, "device_id", d.DeviceID)
	return d, nil
}

// EnsureDeviceActive rejects operations from deactivated devices.
// Unknown device IDs pass; early clients predate device tracking.
func (h *AuthHelper) EnsureDeviceActive(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return nil
	}
	d, err := h.deviceRepo.GetByDeviceID(ctx, deviceID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to look up device: %w", err)
	}
	if !d.IsActive {
		return errors.NewDeviceInactiveError()
	}
	return nil
}

// CreateSession opens a fresh session row for the user on the given
// device and signs the matching token pair.
func (h *AuthHelper) CreateSession(ctx context.Context, u *user.User, deviceID string) (*auth.TokenPair, *user.Session, error) {
	tokenID := uuid.NewString()
	refreshExpiry := biztime.NowUTC().Add(time.Duration(h.jwtService.RefreshExpDays()) * 24 * time.Hour)

	session, err := user.NewSession(u.ID, tokenID, deviceID, "pending", refreshExpiry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build session: %w", err)
	}

	pair, err := h.jwtService.Generate(u.UUID, session.SessionID, tokenID, deviceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	session.RefreshTokenHash = auth.HashToken(pair.RefreshToken)
	if err := h.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to store session: %w", err)
	}

	return pair, session, nil
}
