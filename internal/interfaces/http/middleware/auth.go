package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/infrastructure/auth"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
	"github.com/bytescookies/cookievault/internal/shared/utils"
)

// Context keys populated by RequireAuth.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserUUID  = "user_uuid"
	ContextKeySessionID = "session_id"
	ContextKeyDeviceID  = "device_id"
)

// AuthMiddleware authenticates requests with a bearer access token. A
// valid signature alone is not enough: the backing session row must
// still be live and carry the token's rotation identity.
type AuthMiddleware struct {
	jwtService  *auth.JWTService
	sessionRepo user.SessionRepository
	logger      logger.Interface
}

func NewAuthMiddleware(jwtService *auth.JWTService, sessionRepo user.SessionRepository, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.ErrorResponseWithError(c, errors.NewMissingTokenError())
			c.Abort()
			return
		}

		claims, err := m.jwtService.Verify(token)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewTokenInvalidError("access token"))
			c.Abort()
			return
		}

		if claims.TokenType != auth.TokenTypeAccess {
			utils.ErrorResponseWithError(c, errors.NewTokenInvalidError("access token"))
			c.Abort()
			return
		}

		session, err := m.sessionRepo.GetBySessionID(c.Request.Context(), claims.SessionID)
		if err != nil || !session.IsLive() || session.TokenID != claims.TokenID {
			utils.ErrorResponseWithError(c, errors.NewSessionExpiredError())
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, session.UserID)
		c.Set(ContextKeyUserUUID, claims.UserUUID)
		c.Set(ContextKeySessionID, claims.SessionID)
		c.Set(ContextKeyDeviceID, claims.DeviceID)

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// UserID extracts the authenticated internal user ID from the context.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
