package controllers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.ApiService/middleware"
	firmware "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Firmware"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	api_models "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models/api"
)

// FirmwareController exposes firmware release and rollout management as an
// action-routed endpoint, mirroring the command endpoint's envelope shape.
type FirmwareController struct {
	orchestrator   *firmware.Orchestrator
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewFirmwareController creates a new firmware controller
func NewFirmwareController(o *firmware.Orchestrator, logger *logger.Logger, authMiddleware *middleware.AuthMiddleware) *FirmwareController {
	return &FirmwareController{
		orchestrator:   o,
		logger:         logger,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the firmware routes with Gin
func (c *FirmwareController) RegisterRoutes(router *gin.Engine) {
	router.POST("/firmware-manager", c.authMiddleware.Authenticate(), c.HandleAction)
}

func (c *FirmwareController) HandleAction(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var envelope api_models.ActionEnvelope
	if err := bindBody(body, &envelope); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch api_models.FirmwareAction(envelope.Action) {
	case api_models.ActionListFirmware:
		c.listFirmware(ctx)
	case api_models.ActionUploadFirmware:
		c.uploadFirmware(ctx, body)
	case api_models.ActionInitiateUpdate:
		c.initiateUpdate(ctx, body)
	case api_models.ActionCheckCompatibility:
		c.checkCompatibility(ctx, body)
	case api_models.ActionGetUpdateStatus:
		c.getUpdateStatus(ctx, body)
	case api_models.ActionRollbackFirmware:
		c.rollbackFirmware(ctx, body)
	case api_models.ActionScheduleUpdate:
		c.scheduleUpdate(ctx, body)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
	}
}

func (c *FirmwareController) listFirmware(ctx *gin.Context) {
	firmwares, err := c.orchestrator.ListVersions(ctx)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.ListFirmwareResponse{
		Success:   true,
		Firmwares: firmwares,
	})
}

func (c *FirmwareController) uploadFirmware(ctx *gin.Context, body []byte) {
	var req api_models.UploadFirmwareRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.GetUserFromGinContext(ctx)

	fw, err := c.orchestrator.UploadVersion(ctx, firmware.UploadRequest{
		Version:              req.Version,
		Description:          req.Description,
		ReleaseNotes:         req.ReleaseNotes,
		FileSize:             req.FileSize,
		Checksum:             req.Checksum,
		IsStable:             req.IsStable,
		IsBeta:               req.IsBeta,
		MinCompatibleVersion: req.MinCompatibleVersion,
		TargetDeviceModels:   req.TargetDeviceModels,
		CreatedBy:            userID,
	})
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.UploadFirmwareResponse{
		Success:  true,
		Firmware: fw,
		Message:  fmt.Sprintf("Firmware version %s uploaded successfully", fw.Version),
	})
}

func (c *FirmwareController) initiateUpdate(ctx *gin.Context, body []byte) {
	var req api_models.InitiateUpdateRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.GetUserFromGinContext(ctx)

	results, err := c.orchestrator.InitiateUpdate(ctx, firmware.InitiateRequest{
		DeviceID:        req.DeviceID,
		FirmwareVersion: req.FirmwareVersion,
		ForceUpdate:     req.ForceUpdate,
		ScheduledAt:     req.ScheduledAt,
		IssuedBy:        userID,
	})
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.UpdateResultsResponse{
		Success: true,
		Message: fmt.Sprintf("Firmware update initiated for %d devices", len(results)),
		Results: results,
	})
}

func (c *FirmwareController) checkCompatibility(ctx *gin.Context, body []byte) {
	var req api_models.CheckCompatibilityRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.orchestrator.CheckCompatibility(ctx, req.DeviceID, req.FirmwareVersion)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.CompatibilityResponse{
		Success:        true,
		Compatible:     result.Compatible,
		Reasons:        result.Reasons,
		CurrentVersion: result.CurrentVersion,
		TargetVersion:  result.TargetVersion,
	})
}

func (c *FirmwareController) getUpdateStatus(ctx *gin.Context, body []byte) {
	var req api_models.GetUpdateStatusRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	history, err := c.orchestrator.GetUpdateStatus(ctx, req.DeviceID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.UpdateStatusResponse{
		Success:       true,
		UpdateHistory: history,
	})
}

func (c *FirmwareController) rollbackFirmware(ctx *gin.Context, body []byte) {
	var req api_models.RollbackFirmwareRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.GetUserFromGinContext(ctx)

	result, err := c.orchestrator.Rollback(ctx, req.DeviceID, req.TargetVersion, userID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.RollbackResponse{
		Success:   true,
		CommandID: result.CommandID,
		Message:   result.Message,
	})
}

func (c *FirmwareController) scheduleUpdate(ctx *gin.Context, body []byte) {
	var req api_models.ScheduleUpdateRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.GetUserFromGinContext(ctx)

	results, err := c.orchestrator.ScheduleUpdate(ctx, req.DeviceIDs, req.FirmwareVersion, req.ScheduledAt, userID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.UpdateResultsResponse{
		Success: true,
		Message: fmt.Sprintf("Firmware update scheduled for %d devices", len(results)),
		Results: results,
	})
}

func (c *FirmwareController) respondError(ctx *gin.Context, err error) {
	if firmware.IsUserError(err) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.logger.WithError(err).Error("Firmware action failed")
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
