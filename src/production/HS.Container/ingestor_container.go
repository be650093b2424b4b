package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	config "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Config"
	dispatcher "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Dispatcher"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	implementation "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Implementation"
	"gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Startup/health"
	telemetry "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Telemetry"
	transport "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Transport"
)

// IngestorContainer manages dependencies for the MQTT Ingestor service.
// Unlike the API container everything is built eagerly: the ingestor cannot
// do anything useful without its full pipeline.
type IngestorContainer struct {
	config *config.IngestorConfig
	logger *logger.Logger

	db          *sql.DB
	mongoClient *mongo.Client
	transport   *transport.MQTTTransport
	telemetry   *telemetry.Service
}

// NewIngestorContainer loads the ingestor configuration and connects the
// full inbound pipeline: Postgres, MongoDB, the broker transport and the
// telemetry service.
func NewIngestorContainer() (*IngestorContainer, error) {
	cfg, err := config.LoadIngestorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load ingestor configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging)

	db, err := health.ConnectPostgresWithTimeout(&cfg.Database, 20*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	mongoClient, err := health.ConnectMongoWithTimeout(&cfg.Mongo, 20*time.Second)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	t := transport.NewMQTTTransport(&cfg.MQTT, log)

	deviceRepo := implementation.NewPostgresDeviceRepository(db)
	readingRepo := implementation.NewPostgresReadingRepository(db)
	alertRepo := implementation.NewPostgresAlertRepository(db)
	commandRepo := implementation.NewPostgresCommandRepository(db)
	qualityRepo := implementation.NewPostgresQualityRepository(db)
	messageLog := implementation.NewMongoMessageLogRepository(
		health.MessageLogCollection(mongoClient, &cfg.Mongo))

	d := dispatcher.NewDispatcher(commandRepo, deviceRepo, messageLog, t, log)
	svc := telemetry.NewService(deviceRepo, readingRepo, alertRepo, qualityRepo, messageLog, d, log)

	return &IngestorContainer{
		config:      cfg,
		logger:      log,
		db:          db,
		mongoClient: mongoClient,
		transport:   t,
		telemetry:   svc,
	}, nil
}

// GetConfig returns the ingestor configuration
func (c *IngestorContainer) GetConfig() *config.IngestorConfig {
	return c.config
}

// GetLogger returns the logger
func (c *IngestorContainer) GetLogger() *logger.Logger {
	return c.logger
}

// GetTelemetryService returns the inbound telemetry service
func (c *IngestorContainer) GetTelemetryService() *telemetry.Service {
	return c.telemetry
}

// GetDatabase returns the PostgreSQL connection
func (c *IngestorContainer) GetDatabase() *sql.DB {
	return c.db
}

// GetMongoClient returns the MongoDB client
func (c *IngestorContainer) GetMongoClient() *mongo.Client {
	return c.mongoClient
}

// Shutdown gracefully shuts down the ingestor container
func (c *IngestorContainer) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down ingestor container...")

	c.transport.Close()

	disconnectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.mongoClient.Disconnect(disconnectCtx); err != nil {
		c.logger.ErrorWithError(err, "Error disconnecting MongoDB client")
	}

	if err := c.db.Close(); err != nil {
		c.logger.ErrorWithError(err, "Error closing database connection")
	}

	c.logger.Info("Ingestor container shutdown complete")
	return nil
}
