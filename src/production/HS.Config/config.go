package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Mongo configuration (MQTT message log)
	Mongo MongoConfig `json:"mongo"`

	// MQTT configuration
	MQTT MQTTConfig `json:"mqtt"`

	// Auth configuration
	Auth AuthConfig `json:"auth"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// CORS configuration
	CORS CORSConfig `json:"cors"`

	// Background sweeper configuration
	Sweeper SweeperConfig `json:"sweeper"`

	// Firmware configuration
	Firmware FirmwareConfig `json:"firmware"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	MaxConns int    `json:"max_conns"`
	MinConns int    `json:"min_conns"`
}

// MongoConfig holds MongoDB-related configuration
type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// MQTTConfig holds MQTT-related configuration
type MQTTConfig struct {
	BrokerHost     string        `json:"broker_host"`
	BrokerPort     int           `json:"broker_port"`
	BrokerUser     string        `json:"broker_user"`
	BrokerPass     string        `json:"broker_pass"`
	UseTLS         bool          `json:"use_tls"`
	CACertPath     string        `json:"ca_cert_path"`
	TopicPrefix    string        `json:"topic_prefix"`
	ClientID       string        `json:"client_id"`
	SharedGroup    string        `json:"shared_group"`
	KeepAlive      time.Duration `json:"keep_alive"`
	PingTimeout    time.Duration `json:"ping_timeout"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	PublishTimeout time.Duration `json:"publish_timeout"`
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	JWTSecretKey        string        `json:"jwt_secret_key"`
	JWTIssuer           string        `json:"jwt_issuer"`
	AccessTokenDuration time.Duration `json:"access_token_duration"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout, stderr, or file path
	EnableCaller bool   `json:"enable_caller"`
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// SweeperConfig holds intervals for the two background loops
type SweeperConfig struct {
	ExpiryInterval    time.Duration `json:"expiry_interval"`
	ScheduledInterval time.Duration `json:"scheduled_interval"`
}

// FirmwareConfig holds firmware distribution configuration
type FirmwareConfig struct {
	DownloadBaseURL string `json:"download_base_url"`
}

// IngestorConfig holds configuration for the MQTT Ingestor service
type IngestorConfig struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Mongo    MongoConfig    `json:"mongo"`
	MQTT     MQTTConfig     `json:"mqtt"`
	Logging  LoggingConfig  `json:"logging"`

	// Inbound message pipeline sizing
	Workers   int `json:"workers"`
	QueueSize int `json:"queue_size"`
}

// LoadApiConfig loads configuration for the API service
func LoadApiConfig() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	if err := godotenv.Load(); err != nil {
		// Silently ignore .env file loading errors
		// This allows the application to work with environment variables set directly
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "9002"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Database: loadDatabaseConfig(),
		Mongo:    loadMongoConfig(),
		MQTT:     loadMQTTConfig("hydroscan-api"),
		Auth: AuthConfig{
			JWTSecretKey:        getEnv("JWT_SECRET_KEY", "change-this-secret-in-production"),
			JWTIssuer:           getEnv("JWT_ISSUER", "hydroscan-api-service"),
			AccessTokenDuration: getDuration("JWT_ACCESS_TOKEN_DURATION", 15*time.Minute),
		},
		Logging: loadLoggingConfig(),
		CORS: CORSConfig{
			AllowedOrigins:   getStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "token"}),
			ExposedHeaders:   getStringSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length"}),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getInt("CORS_MAX_AGE", 43200), // 12 hours
		},
		Sweeper: SweeperConfig{
			ExpiryInterval:    getDuration("COMMAND_EXPIRY_SWEEP_INTERVAL", 5*time.Minute),
			ScheduledInterval: getDuration("SCHEDULED_UPDATE_SWEEP_INTERVAL", time.Minute),
		},
		Firmware: FirmwareConfig{
			DownloadBaseURL: getEnv("FIRMWARE_DOWNLOAD_BASE_URL", "https://firmware.hydroscan.local/storage/firmware"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadIngestorConfig loads configuration for the MQTT Ingestor service
func LoadIngestorConfig() (*IngestorConfig, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	if err := godotenv.Load(); err != nil {
		// Silently ignore .env file loading errors
	}

	config := &IngestorConfig{
		Server: ServerConfig{
			Port: getEnv("INGESTOR_PORT", "9003"),
		},
		Database:  loadDatabaseConfig(),
		Mongo:     loadMongoConfig(),
		MQTT:      loadMQTTConfig("hydroscan-ingestor"),
		Logging:   loadLoggingConfig(),
		Workers:   getInt("INGESTOR_WORKERS", 4),
		QueueSize: getInt("INGESTOR_QUEUE_SIZE", 4096),
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getInt("POSTGRES_PORT", 5432),
		User:     getRequiredEnv("POSTGRES_USER"),
		Password: getRequiredEnv("POSTGRES_PASSWORD"),
		DBName:   getEnv("POSTGRES_DB", "hydroscan"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: getInt("POSTGRES_MAX_CONNS", 25),
		MinConns: getInt("POSTGRES_MIN_CONNS", 5),
	}
}

func loadMongoConfig() MongoConfig {
	return MongoConfig{
		URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnv("MONGO_DB", "hydroscan"),
	}
}

func loadMQTTConfig(defaultClientID string) MQTTConfig {
	return MQTTConfig{
		BrokerHost:     getEnv("BROKER_HOST", "localhost"),
		BrokerPort:     getInt("BROKER_PORT", 1883),
		BrokerUser:     getEnv("BROKER_USER", ""),
		BrokerPass:     getEnv("BROKER_PASS", ""),
		UseTLS:         getBool("BROKER_TLS", false),
		CACertPath:     getEnv("BROKER_CA_FILE", ""),
		TopicPrefix:    getEnv("MQTT_TOPIC_PREFIX", "hydroscan/devices"),
		ClientID:       getEnv("MQTT_CLIENT_ID", defaultClientID),
		SharedGroup:    getEnv("MQTT_SHARED_GROUP", ""),
		KeepAlive:      getDuration("MQTT_KEEP_ALIVE", 30*time.Second),
		PingTimeout:    getDuration("MQTT_PING_TIMEOUT", 10*time.Second),
		ConnectTimeout: getDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second),
		PublishTimeout: getDuration("MQTT_PUBLISH_TIMEOUT", 5*time.Second),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:        getEnv("LOG_LEVEL", "info"),
		Format:       getEnv("LOG_FORMAT", "text"),
		Output:       getEnv("LOG_OUTPUT", "stdout"),
		EnableCaller: getBool("LOG_ENABLE_CALLER", false),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.User == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if c.Auth.JWTSecretKey == "change-this-secret-in-production" {
		log.Println("WARNING: Using default JWT secret key. Change JWT_SECRET_KEY in production!")
	}
	if c.Sweeper.ExpiryInterval <= 0 || c.Sweeper.ScheduledInterval <= 0 {
		return fmt.Errorf("sweeper intervals must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *DatabaseConfig) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetMQTTBrokerURL returns the MQTT broker URL
func (c *MQTTConfig) GetMQTTBrokerURL() string {
	scheme := "tcp"
	if c.UseTLS {
		scheme = "tcps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.BrokerHost, c.BrokerPort)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing required environment variable: %s", key)
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return intValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "1" || value == "true" || value == "TRUE" {
		return true
	}
	if value == "0" || value == "false" || value == "FALSE" {
		return false
	}
	log.Fatalf("invalid %s: %q (expected true/false or 1/0)", key, value)
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return duration
}

func getStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
