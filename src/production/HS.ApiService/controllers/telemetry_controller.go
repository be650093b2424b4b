package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.ApiService/middleware"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	api_models "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models/api"
	telemetry "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Telemetry"
)

// inboundMessage mirrors the bridge's envelope: the broker topic, the device
// it came from and the raw message body.
type inboundMessage struct {
	Topic       string          `json:"topic" binding:"required"`
	DeviceID    string          `json:"device_id"`
	MessageType string          `json:"message_type"`
	Payload     json.RawMessage `json:"payload" binding:"required"`
}

// TelemetryController accepts inbound device traffic over HTTP for bridges
// that cannot reach the broker directly. Messages take the same routing path
// as broker-delivered ones.
type TelemetryController struct {
	service        *telemetry.Service
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewTelemetryController creates a new telemetry controller
func NewTelemetryController(s *telemetry.Service, logger *logger.Logger, authMiddleware *middleware.AuthMiddleware) *TelemetryController {
	return &TelemetryController{
		service:        s,
		logger:         logger,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the telemetry routes with Gin
func (c *TelemetryController) RegisterRoutes(router *gin.Engine) {
	router.POST("/mqtt-handler", c.authMiddleware.Authenticate(), c.HandleMessage)
}

func (c *TelemetryController) HandleMessage(ctx *gin.Context) {
	var msg inboundMessage
	if err := ctx.ShouldBindJSON(&msg); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deviceID := msg.DeviceID
	if deviceID == "" {
		deviceID = telemetry.DeviceIDFromTopic(msg.Topic)
	}

	readingID, err := c.service.RouteMessage(ctx, msg.Topic, deviceID, msg.MessageType, msg.Payload)
	if err != nil {
		if errors.Is(err, hsmodels.ErrNotFound) || errors.Is(err, hsmodels.ErrInvalidPayload) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.logger.WithField("topic", msg.Topic).WithError(err).Error("Inbound message processing failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, api_models.TelemetryResponse{
		Success:   true,
		ReadingID: readingID,
		Message:   "Message processed",
	})
}
