package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bytescookies/cookievault/internal/application/auth/usecases"
	"github.com/bytescookies/cookievault/internal/interfaces/http/middleware"
	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
	"github.com/bytescookies/cookievault/internal/shared/utils"
)

type DeviceHandler struct {
	listDevicesUseCase      *usecases.ListDevicesUseCase
	renameDeviceUseCase     *usecases.RenameDeviceUseCase
	deactivateDeviceUseCase *usecases.DeactivateDeviceUseCase
	logger                  logger.Interface
}

func NewDeviceHandler(
	listUC *usecases.ListDevicesUseCase,
	renameUC *usecases.RenameDeviceUseCase,
	deactivateUC *usecases.DeactivateDeviceUseCase,
	logger logger.Interface,
) *DeviceHandler {
	return &DeviceHandler{
		listDevicesUseCase:      listUC,
		renameDeviceUseCase:     renameUC,
		deactivateDeviceUseCase: deactivateUC,
		logger:                  logger,
	}
}

type RenameDeviceRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, errors.NewMissingTokenError())
		return
	}

	result, err := h.listDevicesUseCase.Execute(c.Request.Context(), usecases.ListDevicesCommand{
		UserID: userID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"devices": result.Devices})
}

func (h *DeviceHandler) RenameDevice(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, errors.NewMissingTokenError())
		return
	}

	var req RenameDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error(), errors.CodeBadRequest)
		return
	}

	result, err := h.renameDeviceUseCase.Execute(c.Request.Context(), usecases.RenameDeviceCommand{
		UserID:   userID,
		DeviceID: c.Param("deviceId"),
		Name:     req.Name,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"device": result.Device})
}

func (h *DeviceHandler) DeactivateDevice(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, errors.NewMissingTokenError())
		return
	}

	if err := h.deactivateDeviceUseCase.Execute(c.Request.Context(), usecases.DeactivateDeviceCommand{
		UserID:   userID,
		DeviceID: c.Param("deviceId"),
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"success": true})
}
