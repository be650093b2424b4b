package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	config "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Config"
	dispatcher "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Dispatcher"
	firmware "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Firmware"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	implementation "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Implementation"
	interfaces "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Interfaces"
	"gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Startup/health"
	telemetry "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Telemetry"
	transport "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Transport"
)

// Container manages dependencies and their lifecycle
type Container struct {
	config *config.Config
	logger *logger.Logger

	mu          sync.Mutex
	db          *sql.DB
	mongoClient *mongo.Client
	transport   *transport.MQTTTransport

	deviceRepo   interfaces.DeviceRepository
	readingRepo  interfaces.ReadingRepository
	alertRepo    interfaces.AlertRepository
	commandRepo  interfaces.CommandRepository
	firmwareRepo interfaces.FirmwareRepository
	qualityRepo  interfaces.QualityRepository
	messageLog   interfaces.MessageLogRepository

	dispatcher   *dispatcher.Dispatcher
	orchestrator *firmware.Orchestrator
	telemetry    *telemetry.Service

	cleanupFuncs []func() error
}

// NewContainer creates a new dependency injection container for the API
// service, loading configuration from the environment.
func NewContainer() (*Container, error) {
	cfg, err := config.LoadApiConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging)

	return &Container{
		config: cfg,
		logger: log,
	}, nil
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// GetDatabase returns the shared PostgreSQL connection, dialing on first use.
func (c *Container) GetDatabase() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.databaseLocked()
}

func (c *Container) databaseLocked() (*sql.DB, error) {
	if c.db != nil {
		return c.db, nil
	}

	db, err := health.ConnectPostgresWithTimeout(&c.config.Database, 20*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	c.db = db
	c.cleanupFuncs = append(c.cleanupFuncs, db.Close)
	return c.db, nil
}

// GetMongoClient returns the shared MongoDB client, dialing on first use.
func (c *Container) GetMongoClient() (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mongoLocked()
}

func (c *Container) mongoLocked() (*mongo.Client, error) {
	if c.mongoClient != nil {
		return c.mongoClient, nil
	}

	client, err := health.ConnectMongoWithTimeout(&c.config.Mongo, 20*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	c.mongoClient = client
	c.cleanupFuncs = append(c.cleanupFuncs, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Disconnect(ctx)
	})
	return c.mongoClient, nil
}

// GetTransport returns the shared MQTT transport. The broker connection
// itself is dialed lazily on first publish.
func (c *Container) GetTransport() *transport.MQTTTransport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transportLocked()
}

// GetRepositories builds the repository set over the shared connections.
func (c *Container) GetRepositories() (*Repositories, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	db, err := c.databaseLocked()
	if err != nil {
		return nil, err
	}

	mongoClient, err := c.mongoLocked()
	if err != nil {
		return nil, err
	}

	if c.deviceRepo == nil {
		c.deviceRepo = implementation.NewPostgresDeviceRepository(db)
		c.readingRepo = implementation.NewPostgresReadingRepository(db)
		c.alertRepo = implementation.NewPostgresAlertRepository(db)
		c.commandRepo = implementation.NewPostgresCommandRepository(db)
		c.firmwareRepo = implementation.NewPostgresFirmwareRepository(db)
		c.qualityRepo = implementation.NewPostgresQualityRepository(db)
		c.messageLog = implementation.NewMongoMessageLogRepository(
			health.MessageLogCollection(mongoClient, &c.config.Mongo))
	}

	return &Repositories{
		Devices:    c.deviceRepo,
		Readings:   c.readingRepo,
		Alerts:     c.alertRepo,
		Commands:   c.commandRepo,
		Firmware:   c.firmwareRepo,
		Quality:    c.qualityRepo,
		MessageLog: c.messageLog,
	}, nil
}

// Repositories bundles every persistence interface the services depend on.
type Repositories struct {
	Devices    interfaces.DeviceRepository
	Readings   interfaces.ReadingRepository
	Alerts     interfaces.AlertRepository
	Commands   interfaces.CommandRepository
	Firmware   interfaces.FirmwareRepository
	Quality    interfaces.QualityRepository
	MessageLog interfaces.MessageLogRepository
}

// GetDispatcher returns the command dispatcher service.
func (c *Container) GetDispatcher() (*dispatcher.Dispatcher, error) {
	repos, err := c.GetRepositories()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dispatcher == nil {
		c.dispatcher = dispatcher.NewDispatcher(
			repos.Commands, repos.Devices, repos.MessageLog, c.transportLocked(), c.logger)
	}

	return c.dispatcher, nil
}

// GetOrchestrator returns the firmware orchestrator service.
func (c *Container) GetOrchestrator() (*firmware.Orchestrator, error) {
	d, err := c.GetDispatcher()
	if err != nil {
		return nil, err
	}

	repos, err := c.GetRepositories()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.orchestrator == nil {
		c.orchestrator = firmware.NewOrchestrator(
			repos.Firmware, repos.Devices, repos.Commands, d, &c.config.Firmware, c.logger)
	}

	return c.orchestrator, nil
}

// GetTelemetryService returns the inbound telemetry service.
func (c *Container) GetTelemetryService() (*telemetry.Service, error) {
	d, err := c.GetDispatcher()
	if err != nil {
		return nil, err
	}

	repos, err := c.GetRepositories()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.telemetry == nil {
		c.telemetry = telemetry.NewService(
			repos.Devices, repos.Readings, repos.Alerts, repos.Quality,
			repos.MessageLog, d, c.logger)
	}

	return c.telemetry, nil
}

func (c *Container) transportLocked() *transport.MQTTTransport {
	if c.transport == nil {
		c.transport = transport.NewMQTTTransport(&c.config.MQTT, c.logger)
		c.cleanupFuncs = append(c.cleanupFuncs, func() error {
			c.transport.Close()
			return nil
		})
	}
	return c.transport
}

// InitializeDatabase creates the required tables
func (c *Container) InitializeDatabase(ctx context.Context) error {
	db, err := c.GetDatabase()
	if err != nil {
		return err
	}

	if err := health.CreateTables(db); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	c.logger.Info("Database initialized successfully")
	return nil
}

// Shutdown gracefully shuts down the container and all its dependencies
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	c.mu.Lock()
	defer c.mu.Unlock()

	// Cleanup in reverse acquisition order
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}
	c.cleanupFuncs = nil

	c.logger.Info("Container shutdown complete")
	return nil
}
