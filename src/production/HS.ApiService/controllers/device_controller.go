package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.ApiService/middleware"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	interfaces "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Interfaces"
	validator "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Validator"
)

// DeviceController handles device registry, reading and alert queries
type DeviceController struct {
	deviceRepo     interfaces.DeviceRepository
	readingRepo    interfaces.ReadingRepository
	alertRepo      interfaces.AlertRepository
	qualityRepo    interfaces.QualityRepository
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewDeviceController creates a new device controller
func NewDeviceController(
	deviceRepo interfaces.DeviceRepository,
	readingRepo interfaces.ReadingRepository,
	alertRepo interfaces.AlertRepository,
	qualityRepo interfaces.QualityRepository,
	logger *logger.Logger,
	authMiddleware *middleware.AuthMiddleware,
) *DeviceController {
	return &DeviceController{
		deviceRepo:     deviceRepo,
		readingRepo:    readingRepo,
		alertRepo:      alertRepo,
		qualityRepo:    qualityRepo,
		logger:         logger,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the device routes with Gin
func (c *DeviceController) RegisterRoutes(router *gin.Engine) {
	devices := router.Group("/devices", c.authMiddleware.Authenticate())
	{
		devices.POST("", c.UpsertDevice)
		devices.GET("", c.ListDevices)
		devices.GET("/:device_id", c.GetDevice)
		devices.GET("/:device_id/readings", c.GetReadings)
		devices.GET("/:device_id/readings/latest", c.GetLatestReading)
		devices.GET("/:device_id/alerts", c.GetAlerts)
		devices.GET("/:device_id/quality", c.GetQualityMetric)
	}

	router.POST("/alert-rules", c.authMiddleware.Authenticate(), c.CreateAlertRule)
}

type UpsertDeviceRequest struct {
	ID              string `json:"id" binding:"required"`
	Name            string `json:"name" binding:"required"`
	DeviceModel     string `json:"device_model"`
	FirmwareVersion string `json:"firmware_version"`
	IsActive        *bool  `json:"is_active"`
}

func (c *DeviceController) UpsertDevice(ctx *gin.Context) {
	var req UpsertDeviceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	device := hsmodels.Device{
		ID:              req.ID,
		Name:            req.Name,
		DeviceModel:     req.DeviceModel,
		Status:          hsmodels.DeviceStatusOffline,
		IsActive:        active,
		FirmwareVersion: req.FirmwareVersion,
		CreatedAt:       time.Now().UTC(),
	}

	if err := c.deviceRepo.UpsertDevice(ctx, device); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, device)
}

func (c *DeviceController) ListDevices(ctx *gin.Context) {
	var (
		devices []hsmodels.Device
		err     error
	)
	if ctx.DefaultQuery("active", "false") == "true" {
		devices, err = c.deviceRepo.ListActiveDevices(ctx)
	} else {
		devices, err = c.deviceRepo.ListDevices(ctx)
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (c *DeviceController) GetDevice(ctx *gin.Context) {
	device, err := c.deviceRepo.GetDevice(ctx, ctx.Param("device_id"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if device == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}

	ctx.JSON(http.StatusOK, device)
}

func (c *DeviceController) GetReadings(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	startStr := ctx.Query("start")
	endStr := ctx.Query("end")

	var (
		readings []hsmodels.SensorReading
		err      error
	)
	if startStr != "" && endStr != "" {
		var start, end time.Time
		start, err = time.Parse(time.RFC3339, startStr)
		if err == nil {
			end, err = time.Parse(time.RFC3339, endStr)
		}
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be RFC3339 timestamps"})
			return
		}
		readings, err = c.readingRepo.GetReadingsByTimeRange(ctx, deviceID, start, end, limit, offset)
	} else {
		readings, err = c.readingRepo.GetReadingsByDevice(ctx, deviceID, limit, offset)
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"readings": readings})
}

func (c *DeviceController) GetLatestReading(ctx *gin.Context) {
	reading, err := c.readingRepo.GetLatestReading(ctx, ctx.Param("device_id"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if reading == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no readings for device"})
		return
	}

	ctx.JSON(http.StatusOK, reading)
}

func (c *DeviceController) GetAlerts(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	alerts, err := c.alertRepo.GetAlertsByDevice(ctx, deviceID, limit, offset)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (c *DeviceController) GetQualityMetric(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	day := time.Now().UTC()
	if dateStr := ctx.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	metric, err := c.qualityRepo.GetMetric(ctx, deviceID, day)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if metric == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no quality metrics for device on that date"})
		return
	}

	ctx.JSON(http.StatusOK, metric)
}

type CreateAlertRuleRequest struct {
	Name       string   `json:"name" binding:"required"`
	DeviceID   *string  `json:"device_id"`
	Parameter  string   `json:"parameter" binding:"required"`
	Condition  string   `json:"condition" binding:"required"`
	Threshold1 float64  `json:"threshold_value_1"`
	Threshold2 *float64 `json:"threshold_value_2"`
	Severity   string   `json:"severity" binding:"required"`
}

func (c *DeviceController) CreateAlertRule(ctx *gin.Context) {
	var req CreateAlertRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !validator.IsKnownSensorType(req.Parameter) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown parameter: " + req.Parameter})
		return
	}

	rule := hsmodels.AlertRule{
		ID:         uuid.New().String(),
		Name:       req.Name,
		DeviceID:   req.DeviceID,
		Parameter:  req.Parameter,
		Condition:  req.Condition,
		Threshold1: req.Threshold1,
		Threshold2: req.Threshold2,
		Severity:   req.Severity,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}

	if err := c.alertRepo.CreateRule(ctx, rule); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, rule)
}
