package implementation

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type PostgresQualityRepository struct {
	db *sql.DB
}

func NewPostgresQualityRepository(db *sql.DB) *PostgresQualityRepository {
	return &PostgresQualityRepository{db: db}
}

// RecordReading folds one reading into the per-device daily row. The counters
// and completeness ratio are computed inside the statement so concurrent
// ingestors never lose an increment.
func (r *PostgresQualityRepository) RecordReading(ctx context.Context, deviceID string, day time.Time, valid bool) error {
	query := `
		INSERT INTO data_quality_metrics (id, device_id, metric_date, total_readings,
			valid_readings, invalid_readings, data_completeness, calculated_at)
		VALUES ($1, $2, $3, 1,
			CASE WHEN $4 THEN 1 ELSE 0 END,
			CASE WHEN $4 THEN 0 ELSE 1 END,
			CASE WHEN $4 THEN 100.0 ELSE 0.0 END,
			$5)
		ON CONFLICT (device_id, metric_date) DO UPDATE SET
			total_readings = data_quality_metrics.total_readings + 1,
			valid_readings = data_quality_metrics.valid_readings + CASE WHEN $4 THEN 1 ELSE 0 END,
			invalid_readings = data_quality_metrics.invalid_readings + CASE WHEN $4 THEN 0 ELSE 1 END,
			data_completeness = round(
				(data_quality_metrics.valid_readings + CASE WHEN $4 THEN 1 ELSE 0 END) * 100.0 /
				(data_quality_metrics.total_readings + 1), 2),
			calculated_at = $5
	`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(), deviceID, day.Format("2006-01-02"), valid, time.Now().UTC())
	return err
}

func (r *PostgresQualityRepository) GetMetric(ctx context.Context, deviceID string, day time.Time) (*hsmodels.DataQualityMetric, error) {
	query := `
		SELECT id, device_id, metric_date, total_readings, valid_readings,
			invalid_readings, data_completeness, calculated_at
		FROM data_quality_metrics
		WHERE device_id = $1 AND metric_date = $2
	`

	var m hsmodels.DataQualityMetric
	err := r.db.QueryRowContext(ctx, query, deviceID, day.Format("2006-01-02")).Scan(
		&m.ID, &m.DeviceID, &m.MetricDate, &m.TotalReadings, &m.ValidReadings,
		&m.InvalidReadings, &m.DataCompleteness, &m.CalculatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
