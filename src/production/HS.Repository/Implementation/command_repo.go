package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type PostgresCommandRepository struct {
	db *sql.DB
}

func NewPostgresCommandRepository(db *sql.DB) *PostgresCommandRepository {
	return &PostgresCommandRepository{db: db}
}

const commandColumns = `id, device_id, command_type, command_payload, status, priority,
	issued_by, issued_at, sent_at, acknowledged_at, completed_at, expires_at,
	retry_count, max_retries, response, error_message`

func (r *PostgresCommandRepository) CreateCommand(ctx context.Context, cmd hsmodels.DeviceCommand) error {
	query := `
		INSERT INTO device_commands (id, device_id, command_type, command_payload, status, priority,
			issued_by, issued_at, expires_at, retry_count, max_retries)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	payloadJSON, err := json.Marshal(ensureMapNotNull(cmd.Payload))
	if err != nil {
		return fmt.Errorf("failed to marshal command_payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		cmd.ID, cmd.DeviceID, cmd.CommandType, payloadJSON, cmd.Status, cmd.Priority,
		cmd.IssuedBy, cmd.IssuedAt, cmd.ExpiresAt, cmd.RetryCount, cmd.MaxRetries)
	return err
}

func (r *PostgresCommandRepository) GetCommand(ctx context.Context, commandID string) (*hsmodels.DeviceCommand, error) {
	query := `SELECT ` + commandColumns + ` FROM device_commands WHERE id = $1`

	cmd, err := scanCommand(r.db.QueryRowContext(ctx, query, commandID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return cmd, nil
}

// GetPendingCommands returns undelivered commands oldest first (FIFO)
func (r *PostgresCommandRepository) GetPendingCommands(ctx context.Context, deviceID string) ([]hsmodels.DeviceCommand, error) {
	query := `
		SELECT ` + commandColumns + `
		FROM device_commands
		WHERE device_id = $1 AND status IN ('pending', 'sent')
		ORDER BY issued_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommands(rows)
}

func (r *PostgresCommandRepository) MarkSent(ctx context.Context, commandID string, sentAt time.Time) (bool, error) {
	query := `
		UPDATE device_commands
		SET status = 'sent', sent_at = $1
		WHERE id = $2 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, sentAt, commandID)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

func (r *PostgresCommandRepository) Cancel(ctx context.Context, commandID, reason string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE device_commands
		SET status = 'cancelled', error_message = $1, completed_at = $2
		WHERE id = $3 AND status IN ('pending', 'sent')
	`

	result, err := r.db.ExecContext(ctx, query, reason, completedAt, commandID)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

// ResetForRetry moves a failed command back to pending. The expected retry
// count keeps two concurrent retry calls from both winning.
func (r *PostgresCommandRepository) ResetForRetry(ctx context.Context, commandID string, expectedRetryCount int, issuedAt time.Time) (bool, error) {
	query := `
		UPDATE device_commands
		SET status = 'pending',
		    retry_count = retry_count + 1,
		    error_message = NULL,
		    sent_at = NULL,
		    acknowledged_at = NULL,
		    issued_at = $1
		WHERE id = $2 AND status = 'failed' AND retry_count = $3 AND retry_count < max_retries
	`

	result, err := r.db.ExecContext(ctx, query, issuedAt, commandID, expectedRetryCount)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

// RecordResponse applies a device acknowledgement. Commands outside
// sent/acknowledged are left untouched and the response is dropped.
func (r *PostgresCommandRepository) RecordResponse(ctx context.Context, commandID, status string, response map[string]interface{}, errorMessage *string, at time.Time) (bool, error) {
	responseJSON, err := json.Marshal(ensureMapNotNull(response))
	if err != nil {
		return false, fmt.Errorf("failed to marshal response: %w", err)
	}

	query := `
		UPDATE device_commands
		SET status = $1,
		    response = $2,
		    acknowledged_at = COALESCE(acknowledged_at, $3),
		    completed_at = CASE WHEN $1 IN ('completed', 'failed') THEN $3 ELSE completed_at END,
		    error_message = $4
		WHERE id = $5 AND status IN ('sent', 'acknowledged')
	`

	result, err := r.db.ExecContext(ctx, query, status, responseJSON, at, errorMessage, commandID)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

func (r *PostgresCommandRepository) MarkFailed(ctx context.Context, commandID, errorMessage string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE device_commands
		SET status = 'failed', error_message = $1, completed_at = $2
		WHERE id = $3 AND status NOT IN ('completed', 'failed', 'cancelled', 'expired')
	`

	result, err := r.db.ExecContext(ctx, query, errorMessage, completedAt, commandID)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

// ExpireOverdue sweeps every overdue deliverable command in one statement.
// The status guard makes concurrent sweeps expire each command exactly once.
func (r *PostgresCommandRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE device_commands
		SET status = 'expired', error_message = 'Command expired', completed_at = $1
		WHERE expires_at < $1 AND status IN ('pending', 'sent')
	`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresCommandRepository) ListScheduledDue(ctx context.Context, now time.Time) ([]hsmodels.DeviceCommand, error) {
	query := `
		SELECT ` + commandColumns + `
		FROM device_commands
		WHERE status = 'scheduled' AND issued_at <= $1
		ORDER BY issued_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommands(rows)
}

func (r *PostgresCommandRepository) PromoteScheduled(ctx context.Context, commandID string) (bool, error) {
	query := `
		UPDATE device_commands
		SET status = 'pending'
		WHERE id = $1 AND status = 'scheduled'
	`

	result, err := r.db.ExecContext(ctx, query, commandID)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

func (r *PostgresCommandRepository) GetFirmwareUpdateHistory(ctx context.Context, deviceID string, limit int) ([]hsmodels.DeviceCommand, error) {
	query := `
		SELECT ` + commandColumns + `
		FROM device_commands
		WHERE device_id = $1 AND command_type = 'firmware_update'
		ORDER BY issued_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommands(rows)
}

func scanCommand(row rowScanner) (*hsmodels.DeviceCommand, error) {
	var cmd hsmodels.DeviceCommand
	var payloadJSON, responseJSON []byte

	err := row.Scan(&cmd.ID, &cmd.DeviceID, &cmd.CommandType, &payloadJSON, &cmd.Status,
		&cmd.Priority, &cmd.IssuedBy, &cmd.IssuedAt, &cmd.SentAt, &cmd.AcknowledgedAt,
		&cmd.CompletedAt, &cmd.ExpiresAt, &cmd.RetryCount, &cmd.MaxRetries,
		&responseJSON, &cmd.ErrorMessage)
	if err != nil {
		return nil, err
	}

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &cmd.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal command_payload: %w", err)
		}
	}
	if len(responseJSON) > 0 {
		if err := json.Unmarshal(responseJSON, &cmd.Response); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return &cmd, nil
}

func scanCommands(rows *sql.Rows) ([]hsmodels.DeviceCommand, error) {
	var commands []hsmodels.DeviceCommand
	for rows.Next() {
		cmd, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		commands = append(commands, *cmd)
	}
	return commands, rows.Err()
}

func oneRowAffected(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
