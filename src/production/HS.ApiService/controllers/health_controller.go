package controllers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	transport "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Transport"
)

// HealthController handles health requests
type HealthController struct {
	db        *sql.DB
	mongo     *mongo.Client
	transport *transport.MQTTTransport
	logger    *logger.Logger
}

// NewHealthController creates a new health controller
func NewHealthController(db *sql.DB, mongoClient *mongo.Client, t *transport.MQTTTransport, logger *logger.Logger) *HealthController {
	return &HealthController{
		db:        db,
		mongo:     mongoClient,
		transport: t,
		logger:    logger,
	}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health/live", c.HealthLive)
	router.GET("/health/ready", c.HealthReady)
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (c *HealthController) HealthReady(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	dbOK := c.db.PingContext(checkCtx) == nil
	mongoOK := c.mongo.Ping(checkCtx, readpref.Primary()) == nil
	mqttOK := c.transport.Connected()

	status := http.StatusOK
	if !dbOK || !mongoOK {
		status = http.StatusServiceUnavailable
	}

	ctx.JSON(status, gin.H{
		"status": "ready",
		"db":     dbOK,
		"mongo":  mongoOK,
		"mqtt":   mqttOK,
	})
}
