package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bytescookies/cookievault/internal/application/auth/usecases"
	"github.com/bytescookies/cookievault/internal/infrastructure/crypto"
	"github.com/bytescookies/cookievault/internal/interfaces/http/middleware"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
	"github.com/bytescookies/cookievault/internal/shared/utils"
)

// CookieHandler serves the encrypted cookie sync endpoints. Payloads
// pass through opaque; decryption happens only on the extension side.
type CookieHandler struct {
	syncUseCase *usecases.SyncCookiesUseCase
	logger      logger.Interface
}

func NewCookieHandler(syncUC *usecases.SyncCookiesUseCase, logger logger.Interface) *CookieHandler {
	return &CookieHandler{
		syncUseCase: syncUC,
		logger:      logger,
	}
}

type SyncCookiesRequest struct {
	Domain  string                  `json:"domain" binding:"required"`
	Payload crypto.EncryptedPayload `json:"payload" binding:"required"`
}

func (h *CookieHandler) SyncCookies(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, errors.NewMissingTokenError())
		return
	}

	var req SyncCookiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error(), errors.CodeBadRequest)
		return
	}

	if err := h.syncUseCase.Store(c.Request.Context(), usecases.SyncCookiesCommand{
		UserID:  userID,
		Domain:  req.Domain,
		Payload: req.Payload,
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"success": true})
}

func (h *CookieHandler) GetCookies(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, errors.NewMissingTokenError())
		return
	}

	result, err := h.syncUseCase.Get(c.Request.Context(), usecases.GetCookiesCommand{
		UserID: userID,
		Domain: c.Param("domain"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"payload": result.Payload})
}

func (h *CookieHandler) ListDomains(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, errors.NewMissingTokenError())
		return
	}

	domains, err := h.syncUseCase.ListDomains(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if domains == nil {
		domains = []string{}
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"domains": domains})
}
