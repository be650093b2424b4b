package implementation

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type PostgresAlertRepository struct {
	db *sql.DB
}

func NewPostgresAlertRepository(db *sql.DB) *PostgresAlertRepository {
	return &PostgresAlertRepository{db: db}
}

func (r *PostgresAlertRepository) CreateRule(ctx context.Context, rule hsmodels.AlertRule) error {
	query := `
		INSERT INTO alert_rules (id, name, device_id, parameter, condition,
			threshold_value_1, threshold_value_2, severity, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.Name, rule.DeviceID, rule.Parameter, rule.Condition,
		rule.Threshold1, rule.Threshold2, rule.Severity, rule.IsActive, rule.CreatedAt)
	return err
}

// GetActiveRulesForDevice returns active rules scoped to the device plus
// organization-wide rules (null device_id).
func (r *PostgresAlertRepository) GetActiveRulesForDevice(ctx context.Context, deviceID string) ([]hsmodels.AlertRule, error) {
	query := `
		SELECT id, name, device_id, parameter, condition,
			threshold_value_1, threshold_value_2, severity, is_active, created_at
		FROM alert_rules
		WHERE is_active = TRUE AND (device_id = $1 OR device_id IS NULL)
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []hsmodels.AlertRule
	for rows.Next() {
		var rule hsmodels.AlertRule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.DeviceID, &rule.Parameter, &rule.Condition,
			&rule.Threshold1, &rule.Threshold2, &rule.Severity, &rule.IsActive, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

func (r *PostgresAlertRepository) InsertAlert(ctx context.Context, alert hsmodels.Alert) error {
	query := `
		INSERT INTO alerts (id, device_id, rule_id, severity, message, triggered_at, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, query,
		alert.ID, alert.DeviceID, alert.RuleID, alert.Severity, alert.Message,
		alert.TriggeredAt, alert.Resolved)
	return err
}

func (r *PostgresAlertRepository) InsertAlerts(ctx context.Context, alerts []hsmodels.Alert) error {
	for _, alert := range alerts {
		if err := r.InsertAlert(ctx, alert); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresAlertRepository) GetAlertsByDevice(ctx context.Context, deviceID string, limit, offset int) ([]hsmodels.Alert, error) {
	query := `
		SELECT id, device_id, rule_id, severity, message, triggered_at, resolved
		FROM alerts
		WHERE device_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []hsmodels.Alert
	for rows.Next() {
		var alert hsmodels.Alert
		if err := rows.Scan(&alert.ID, &alert.DeviceID, &alert.RuleID, &alert.Severity,
			&alert.Message, &alert.TriggeredAt, &alert.Resolved); err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}
