package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.ApiService/middleware"
	dispatcher "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Dispatcher"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	api_models "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models/api"
)

// CommandController exposes the device command lifecycle as an action-routed
// endpoint: the request body carries an action discriminator plus the
// action's own fields.
type CommandController struct {
	dispatcher     *dispatcher.Dispatcher
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewCommandController creates a new command controller
func NewCommandController(d *dispatcher.Dispatcher, logger *logger.Logger, authMiddleware *middleware.AuthMiddleware) *CommandController {
	return &CommandController{
		dispatcher:     d,
		logger:         logger,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the command routes with Gin
func (c *CommandController) RegisterRoutes(router *gin.Engine) {
	router.POST("/device-commander", c.authMiddleware.Authenticate(), c.HandleAction)
}

func (c *CommandController) HandleAction(ctx *gin.Context) {
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

	switch api_models.CommandAction(envelope.Action) {
	case api_models.ActionSendCommand:
		c.sendCommand(ctx, body)
	case api_models.ActionGetPendingCommands:
		c.getPendingCommands(ctx, body)
	case api_models.ActionGetCommandStatus:
		c.getCommandStatus(ctx, body)
	case api_models.ActionCancelCommand:
		c.cancelCommand(ctx, body)
	case api_models.ActionRetryCommand:
		c.retryCommand(ctx, body)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
	}
}

func (c *CommandController) sendCommand(ctx *gin.Context, body []byte) {
	var req api_models.SendCommandRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.GetUserFromGinContext(ctx)

	result, err := c.dispatcher.SendCommand(ctx, dispatcher.SendRequest{
		DeviceID:     req.DeviceID,
		CommandType:  req.CommandType,
		Payload:      req.Payload,
		Priority:     req.Priority,
		IssuedBy:     userID,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.SendCommandResponse{
		Success:   true,
		CommandID: result.CommandID,
		Status:    result.Status,
		Message:   result.Message,
	})
}

func (c *CommandController) getPendingCommands(ctx *gin.Context, body []byte) {
	var req api_models.GetPendingCommandsRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	commands, err := c.dispatcher.GetPendingCommands(ctx, req.DeviceID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.PendingCommandsResponse{
		Success:  true,
		Commands: commands,
	})
}

func (c *CommandController) getCommandStatus(ctx *gin.Context, body []byte) {
	var req api_models.CommandRefRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd, err := c.dispatcher.GetCommandStatus(ctx, req.CommandID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.CommandStatusResponse{
		Success: true,
		Command: cmd,
	})
}

func (c *CommandController) cancelCommand(ctx *gin.Context, body []byte) {
	var req api_models.CommandRefRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.GetUserFromGinContext(ctx)

	if err := c.dispatcher.CancelCommand(ctx, req.CommandID, userID); err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.ActionResultResponse{
		Success: true,
		Message: "Command cancelled successfully",
	})
}

func (c *CommandController) retryCommand(ctx *gin.Context, body []byte) {
	var req api_models.CommandRefRequest
	if err := bindBody(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.dispatcher.RetryCommand(ctx, req.CommandID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, api_models.ActionResultResponse{
		Success: true,
		Message: result.Message,
	})
}

func (c *CommandController) respondError(ctx *gin.Context, err error) {
	if dispatcher.IsUserError(err) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.logger.WithError(err).Error("Command action failed")
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// bindBody decodes a JSON body into a typed request, enforcing the request's
// binding tags. The raw body is kept so each action can re-bind it into its
// own request type after the envelope is read.
func bindBody(body []byte, out interface{}) error {
	return binding.JSON.BindBody(body, out)
}
