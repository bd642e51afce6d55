package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bytescookies/cookievault/internal/application/auth/usecases"
	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/interfaces/http/middleware"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
	"github.com/bytescookies/cookievault/internal/shared/utils"
)

type AuthHandler struct {
	registerUseCase     *usecases.RegisterUseCase
	loginUseCase        *usecases.LoginUseCase
	refreshTokenUseCase *usecases.RefreshTokenUseCase
	logoutUseCase       *usecases.LogoutUseCase
	logger              logger.Interface
}

func NewAuthHandler(
	registerUC *usecases.RegisterUseCase,
	loginUC *usecases.LoginUseCase,
	refreshTokenUC *usecases.RefreshTokenUseCase,
	logoutUC *usecases.LogoutUseCase,
	logger logger.Interface,
) *AuthHandler {
	return &AuthHandler{
		registerUseCase:     registerUC,
		loginUseCase:        loginUC,
		refreshTokenUseCase: refreshTokenUC,
		logoutUseCase:       logoutUC,
		logger:              logger,
	}
}

// DeviceInfoRequest mirrors what the extension reports about itself.
type DeviceInfoRequest struct {
	UserAgent string `json:"userAgent"`
	Platform  string `json:"platform"`
	Language  string `json:"language"`
}

type RegisterRequest struct {
	Email    string             `json:"email" binding:"required,email"`
	Name     string             `json:"name" binding:"required,min=2,max=100"`
	Password string             `json:"password" binding:"required,min=8,password"`
	Device   *DeviceInfoRequest `json:"device"`
}

type LoginRequest struct {
	Email    string             `json:"email" binding:"required,email"`
	Password string             `json:"password" binding:"required"`
	Device   *DeviceInfoRequest `json:"device"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	ExpiresAt    int64              `json:"expiresAt"`
	User         *usecases.UserInfo `json:"user,omitempty"`
}

// fingerprint builds the device fingerprint from the request body,
// falling back to request headers for anything the extension omitted.
func fingerprint(c *gin.Context, d *DeviceInfoRequest) device.Fingerprint {
	fp := device.Fingerprint{}
	if d != nil {
		fp.UserAgent = d.UserAgent
		fp.Platform = d.Platform
		fp.Language = d.Language
	}
	if fp.UserAgent == "" {
		fp.UserAgent = c.GetHeader("User-Agent")
	}
	if fp.Language == "" {
		fp.Language = c.GetHeader("Accept-Language")
	}
	return fp
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error(), errors.CodeBadRequest)
		return
	}

	cmd := usecases.RegisterCommand{
		Email:       req.Email,
		Name:        req.Name,
		Password:    req.Password,
		Fingerprint: fingerprint(c, req.Device),
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Warnw("registration failed", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusCreated, TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
		User:         &result.User,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error(), errors.CodeBadRequest)
		return
	}

	cmd := usecases.LoginCommand{
		Email:       req.Email,
		Password:    req.Password,
		Fingerprint: fingerprint(c, req.Device),
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		if errors.ShouldLogAuthError(err) {
			h.logger.Warnw("login failed", "error", err, "client_ip", c.ClientIP())
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
		User:         &result.User,
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error(), errors.CodeBadRequest)
		return
	}

	result, err := h.refreshTokenUseCase.Execute(c.Request.Context(), usecases.RefreshTokenCommand{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		if errors.IsSecurityEvent(err) {
			h.logger.Warnw("refresh rejected", "error", err, "client_ip", c.ClientIP())
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetString(middleware.ContextKeySessionID)

	if err := h.logoutUseCase.Execute(c.Request.Context(), usecases.LogoutCommand{
		SessionID: sessionID,
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"success": true})
}
