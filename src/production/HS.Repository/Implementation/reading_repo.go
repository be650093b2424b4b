package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type PostgresReadingRepository struct {
	db *sql.DB
}

func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{db: db}
}

func (r *PostgresReadingRepository) InsertReading(ctx context.Context, reading hsmodels.SensorReading) error {
	query := `
		INSERT INTO sensor_readings (id, device_id, ts, ph, turbidity, tds, temperature, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if reading.ID == "" {
		reading.ID = uuid.New().String()
	}

	rawJSON, err := json.Marshal(ensureMapNotNull(reading.RawData))
	if err != nil {
		return fmt.Errorf("failed to marshal raw_data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		reading.ID, reading.DeviceID, reading.Timestamp,
		reading.PH, reading.Turbidity, reading.TDS, reading.Temperature, rawJSON)
	return err
}

func (r *PostgresReadingRepository) GetReadingsByDevice(ctx context.Context, deviceID string, limit, offset int) ([]hsmodels.SensorReading, error) {
	query := `
		SELECT id, device_id, ts, ph, turbidity, tds, temperature, raw_data
		FROM sensor_readings
		WHERE device_id = $1
		ORDER BY ts DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

func (r *PostgresReadingRepository) GetReadingsByTimeRange(ctx context.Context, deviceID string, start, end time.Time, limit, offset int) ([]hsmodels.SensorReading, error) {
	query := `
		SELECT id, device_id, ts, ph, turbidity, tds, temperature, raw_data
		FROM sensor_readings
		WHERE device_id = $1 AND ts BETWEEN $2 AND $3
		ORDER BY ts DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, start, end, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

func (r *PostgresReadingRepository) GetLatestReading(ctx context.Context, deviceID string) (*hsmodels.SensorReading, error) {
	query := `
		SELECT id, device_id, ts, ph, turbidity, tds, temperature, raw_data
		FROM sensor_readings
		WHERE device_id = $1
		ORDER BY ts DESC
		LIMIT 1
	`

	reading, err := r.scanReading(r.db.QueryRowContext(ctx, query, deviceID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return reading, nil
}

func (r *PostgresReadingRepository) scanReading(row rowScanner) (*hsmodels.SensorReading, error) {
	var reading hsmodels.SensorReading
	var rawJSON []byte

	if err := row.Scan(&reading.ID, &reading.DeviceID, &reading.Timestamp,
		&reading.PH, &reading.Turbidity, &reading.TDS, &reading.Temperature, &rawJSON); err != nil {
		return nil, err
	}

	if len(rawJSON) > 0 {
		if err := json.Unmarshal(rawJSON, &reading.RawData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal raw_data: %w", err)
		}
	}

	return &reading, nil
}

func (r *PostgresReadingRepository) scanReadings(rows *sql.Rows) ([]hsmodels.SensorReading, error) {
	var readings []hsmodels.SensorReading

	for rows.Next() {
		reading, err := r.scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}

	return readings, rows.Err()
}
