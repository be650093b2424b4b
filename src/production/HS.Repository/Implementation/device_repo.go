package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	interfaces "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Interfaces"
)

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

const deviceColumns = `id, name, device_model, status, is_active, firmware_version,
	battery_level, wifi_signal_strength, last_seen, last_heartbeat, created_at`

// Create or update device (idempotent upsert)
func (r *PostgresDeviceRepository) UpsertDevice(ctx context.Context, device hsmodels.Device) error {
	query := `
		INSERT INTO devices (id, name, device_model, status, is_active, firmware_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, device_model = EXCLUDED.device_model, is_active = EXCLUDED.is_active
	`

	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now().UTC()
	}
	if device.Status == "" {
		device.Status = hsmodels.DeviceStatusOffline
	}

	_, err := r.db.ExecContext(ctx, query,
		device.ID, device.Name, device.DeviceModel, device.Status, device.IsActive,
		device.FirmwareVersion, device.CreatedAt)
	return err
}

func (r *PostgresDeviceRepository) GetDevice(ctx context.Context, deviceID string) (*hsmodels.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, deviceID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return device, nil
}

func (r *PostgresDeviceRepository) ListDevices(ctx context.Context) ([]hsmodels.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY created_at DESC`
	return r.queryDevices(ctx, query)
}

func (r *PostgresDeviceRepository) ListActiveDevices(ctx context.Context) ([]hsmodels.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE is_active = TRUE ORDER BY created_at DESC`
	return r.queryDevices(ctx, query)
}

// UpdateTelemetryStatus marks a device seen via a telemetry message
func (r *PostgresDeviceRepository) UpdateTelemetryStatus(ctx context.Context, deviceID string, status interfaces.TelemetryStatus) error {
	query := `
		UPDATE devices
		SET status = $1,
		    last_seen = $2,
		    battery_level = COALESCE($3, battery_level),
		    wifi_signal_strength = COALESCE($4, wifi_signal_strength)
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query, status.Status, status.SeenAt, status.BatteryLevel, status.SignalStrength, deviceID)
	if err != nil {
		return err
	}
	return requireRow(result, deviceID)
}

// UpdateFromHeartbeat folds a heartbeat into the device row
func (r *PostgresDeviceRepository) UpdateFromHeartbeat(ctx context.Context, hb hsmodels.DeviceHeartbeat) error {
	query := `
		UPDATE devices
		SET status = $1,
		    last_heartbeat = $2,
		    battery_level = COALESCE($3, battery_level),
		    wifi_signal_strength = COALESCE($4, wifi_signal_strength),
		    firmware_version = CASE WHEN $5 <> '' THEN $5 ELSE firmware_version END
		WHERE id = $6
	`

	result, err := r.db.ExecContext(ctx, query, hb.Status, hb.ReceivedAt, hb.BatteryLevel, hb.SignalStrength, hb.FirmwareVersion, hb.DeviceID)
	if err != nil {
		return err
	}
	return requireRow(result, hb.DeviceID)
}

func (r *PostgresDeviceRepository) UpdateStatus(ctx context.Context, deviceID, status string, seenAt time.Time) error {
	query := `UPDATE devices SET status = $1, last_seen = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, seenAt, deviceID)
	if err != nil {
		return err
	}
	return requireRow(result, deviceID)
}

func (r *PostgresDeviceRepository) InsertHeartbeat(ctx context.Context, hb hsmodels.DeviceHeartbeat) error {
	query := `
		INSERT INTO device_heartbeats (id, device_id, status, signal_strength, battery_level,
			memory_usage, cpu_usage, uptime, firmware_version, ip_address, sensor_status, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if hb.ID == "" {
		hb.ID = uuid.New().String()
	}

	sensorStatusJSON, err := json.Marshal(ensureMapNotNull(hb.SensorStatus))
	if err != nil {
		return fmt.Errorf("failed to marshal sensor_status: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		hb.ID, hb.DeviceID, hb.Status, hb.SignalStrength, hb.BatteryLevel,
		hb.MemoryUsage, hb.CPUUsage, hb.Uptime, hb.FirmwareVersion, hb.IPAddress,
		sensorStatusJSON, hb.ReceivedAt)
	return err
}

func (r *PostgresDeviceRepository) queryDevices(ctx context.Context, query string, args ...interface{}) ([]hsmodels.Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []hsmodels.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *device)
	}

	return devices, rows.Err()
}

func scanDevice(row rowScanner) (*hsmodels.Device, error) {
	var device hsmodels.Device
	err := row.Scan(&device.ID, &device.Name, &device.DeviceModel, &device.Status,
		&device.IsActive, &device.FirmwareVersion, &device.BatteryLevel,
		&device.WifiSignalStrength, &device.LastSeen, &device.LastHeartbeat, &device.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func requireRow(result sql.Result, deviceID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("device %s: %w", deviceID, hsmodels.ErrNotFound)
	}
	return nil
}
