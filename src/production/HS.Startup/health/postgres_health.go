package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	config "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Config"
)

// ConnectPostgresWithTimeout creates a PostgreSQL connection with a timeout context
func ConnectPostgresWithTimeout(cfg *config.DatabaseConfig, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %v", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping PostgreSQL: %v", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// CreateTables creates the required tables if they don't exist
func CreateTables(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	createDevicesTable := `
		CREATE TABLE IF NOT EXISTS devices (
			id                   TEXT PRIMARY KEY,
			name                 TEXT NOT NULL DEFAULT '',
			device_model         TEXT NOT NULL DEFAULT '',
			status               TEXT NOT NULL DEFAULT 'offline',
			is_active            BOOLEAN NOT NULL DEFAULT TRUE,
			firmware_version     TEXT NOT NULL DEFAULT '1.0.0',
			battery_level        DOUBLE PRECISION,
			wifi_signal_strength DOUBLE PRECISION,
			last_seen            TIMESTAMPTZ,
			last_heartbeat       TIMESTAMPTZ,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	createReadingsTable := `
		CREATE TABLE IF NOT EXISTS sensor_readings (
			id          TEXT PRIMARY KEY,
			device_id   TEXT NOT NULL REFERENCES devices(id),
			ts          TIMESTAMPTZ NOT NULL,
			ph          DOUBLE PRECISION,
			turbidity   DOUBLE PRECISION,
			tds         DOUBLE PRECISION,
			temperature DOUBLE PRECISION,
			raw_data    JSONB
		);
	`

	createAlertRulesTable := `
		CREATE TABLE IF NOT EXISTS alert_rules (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			device_id         TEXT REFERENCES devices(id),
			parameter         TEXT NOT NULL,
			condition         TEXT NOT NULL,
			threshold_value_1 DOUBLE PRECISION NOT NULL,
			threshold_value_2 DOUBLE PRECISION,
			severity          TEXT NOT NULL DEFAULT 'medium',
			is_active         BOOLEAN NOT NULL DEFAULT TRUE,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	createAlertsTable := `
		CREATE TABLE IF NOT EXISTS alerts (
			id           TEXT PRIMARY KEY,
			device_id    TEXT NOT NULL REFERENCES devices(id),
			rule_id      TEXT REFERENCES alert_rules(id),
			severity     TEXT NOT NULL,
			message      TEXT NOT NULL,
			triggered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			resolved     BOOLEAN NOT NULL DEFAULT FALSE
		);
	`

	createCommandsTable := `
		CREATE TABLE IF NOT EXISTS device_commands (
			id              TEXT PRIMARY KEY,
			device_id       TEXT NOT NULL REFERENCES devices(id),
			command_type    TEXT NOT NULL,
			command_payload JSONB NOT NULL DEFAULT '{}'::jsonb,
			status          TEXT NOT NULL DEFAULT 'pending',
			priority        TEXT NOT NULL DEFAULT 'medium',
			issued_by       TEXT NOT NULL,
			issued_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			sent_at         TIMESTAMPTZ,
			acknowledged_at TIMESTAMPTZ,
			completed_at    TIMESTAMPTZ,
			expires_at      TIMESTAMPTZ NOT NULL,
			retry_count     INTEGER NOT NULL DEFAULT 0,
			max_retries     INTEGER NOT NULL DEFAULT 3,
			response        JSONB,
			error_message   TEXT
		);
	`

	createFirmwareTable := `
		CREATE TABLE IF NOT EXISTS firmware_versions (
			id                     TEXT PRIMARY KEY,
			version                TEXT NOT NULL UNIQUE,
			description            TEXT NOT NULL DEFAULT '',
			release_notes          TEXT NOT NULL DEFAULT '',
			file_path              TEXT NOT NULL,
			file_size              BIGINT NOT NULL DEFAULT 0,
			checksum               TEXT NOT NULL DEFAULT '',
			is_stable              BOOLEAN NOT NULL DEFAULT FALSE,
			is_beta                BOOLEAN NOT NULL DEFAULT FALSE,
			min_compatible_version TEXT NOT NULL DEFAULT '',
			target_device_models   TEXT[] NOT NULL DEFAULT '{}',
			created_by             TEXT NOT NULL,
			release_date           TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	createQualityTable := `
		CREATE TABLE IF NOT EXISTS data_quality_metrics (
			id               TEXT NOT NULL,
			device_id        TEXT NOT NULL REFERENCES devices(id),
			metric_date      DATE NOT NULL,
			total_readings   INTEGER NOT NULL DEFAULT 0,
			valid_readings   INTEGER NOT NULL DEFAULT 0,
			invalid_readings INTEGER NOT NULL DEFAULT 0,
			data_completeness DOUBLE PRECISION NOT NULL DEFAULT 0,
			calculated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (device_id, metric_date)
		);
	`

	createHeartbeatsTable := `
		CREATE TABLE IF NOT EXISTS device_heartbeats (
			id               TEXT PRIMARY KEY,
			device_id        TEXT NOT NULL REFERENCES devices(id),
			status           TEXT NOT NULL,
			signal_strength  DOUBLE PRECISION,
			battery_level    DOUBLE PRECISION,
			memory_usage     DOUBLE PRECISION,
			cpu_usage        DOUBLE PRECISION,
			uptime           BIGINT,
			firmware_version TEXT,
			ip_address       TEXT,
			sensor_status    JSONB,
			received_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	createIndexes := `
		CREATE INDEX IF NOT EXISTS idx_readings_device_ts_desc ON sensor_readings (device_id, ts DESC);
		CREATE INDEX IF NOT EXISTS idx_alerts_device_triggered ON alerts (device_id, triggered_at DESC);
		CREATE INDEX IF NOT EXISTS idx_commands_device_status ON device_commands (device_id, status);
		CREATE INDEX IF NOT EXISTS idx_commands_status_expires ON device_commands (status, expires_at);
		CREATE INDEX IF NOT EXISTS idx_heartbeats_device_received ON device_heartbeats (device_id, received_at DESC);
	`

	queries := []string{
		createDevicesTable,
		createReadingsTable,
		createAlertRulesTable,
		createAlertsTable,
		createCommandsTable,
		createFirmwareTable,
		createQualityTable,
		createHeartbeatsTable,
		createIndexes,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %v", err)
		}
	}

	return nil
}
