package implementation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

func setupMockCommandDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresCommandRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresCommandRepository(db)

	return db, mock, repo
}

func commandRows(cmd hsmodels.DeviceCommand) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "device_id", "command_type", "command_payload", "status", "priority",
		"issued_by", "issued_at", "sent_at", "acknowledged_at", "completed_at",
		"expires_at", "retry_count", "max_retries", "response", "error_message",
	}).AddRow(
		cmd.ID, cmd.DeviceID, cmd.CommandType, []byte(`{"reason":"maintenance"}`), cmd.Status, cmd.Priority,
		cmd.IssuedBy, cmd.IssuedAt, cmd.SentAt, cmd.AcknowledgedAt, cmd.CompletedAt,
		cmd.ExpiresAt, cmd.RetryCount, cmd.MaxRetries, nil, cmd.ErrorMessage,
	)
}

func TestCreateCommand_Success(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	now := time.Now().UTC()
	cmd := hsmodels.DeviceCommand{
		ID:          uuid.New().String(),
		DeviceID:    "device-001",
		CommandType: hsmodels.CommandRestart,
		Payload:     map[string]interface{}{"reason": "maintenance"},
		Status:      hsmodels.CommandStatusPending,
		Priority:    hsmodels.PriorityMedium,
		IssuedBy:    "operator-1",
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
		MaxRetries:  3,
	}

	mock.ExpectExec(`INSERT INTO device_commands`).
		WithArgs(cmd.ID, cmd.DeviceID, cmd.CommandType, sqlmock.AnyArg(), cmd.Status, cmd.Priority,
			cmd.IssuedBy, cmd.IssuedAt, cmd.ExpiresAt, cmd.RetryCount, cmd.MaxRetries).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateCommand(context.Background(), cmd)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCommand_Success(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	now := time.Now().UTC()
	want := hsmodels.DeviceCommand{
		ID:          uuid.New().String(),
		DeviceID:    "device-001",
		CommandType: hsmodels.CommandRestart,
		Status:      hsmodels.CommandStatusPending,
		Priority:    hsmodels.PriorityMedium,
		IssuedBy:    "operator-1",
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
		MaxRetries:  3,
	}

	mock.ExpectQuery(`SELECT`).
		WithArgs(want.ID).
		WillReturnRows(commandRows(want))

	cmd, err := repo.GetCommand(context.Background(), want.ID)

	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, want.ID, cmd.ID)
	assert.Equal(t, want.DeviceID, cmd.DeviceID)
	assert.Equal(t, hsmodels.CommandStatusPending, cmd.Status)
	assert.Equal(t, map[string]interface{}{"reason": "maintenance"}, cmd.Payload)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCommand_NotFound(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	commandID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(commandID).
		WillReturnError(sql.ErrNoRows)

	cmd, err := repo.GetCommand(context.Background(), commandID)

	require.NoError(t, err)
	assert.Nil(t, cmd)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPendingCommands_OldestFirst(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	now := time.Now().UTC()
	first := hsmodels.DeviceCommand{
		ID: "cmd-1", DeviceID: "device-001", CommandType: hsmodels.CommandRestart,
		Status: hsmodels.CommandStatusPending, Priority: hsmodels.PriorityMedium,
		IssuedBy: "op", IssuedAt: now.Add(-time.Minute), ExpiresAt: now.Add(time.Hour), MaxRetries: 3,
	}
	second := first
	second.ID = "cmd-2"
	second.IssuedAt = now

	rows := commandRows(first)
	rows.AddRow(
		second.ID, second.DeviceID, second.CommandType, []byte(`{}`), second.Status, second.Priority,
		second.IssuedBy, second.IssuedAt, nil, nil, nil,
		second.ExpiresAt, second.RetryCount, second.MaxRetries, nil, nil,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs("device-001").
		WillReturnRows(rows)

	commands, err := repo.GetPendingCommands(context.Background(), "device-001")

	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "cmd-1", commands[0].ID)
	assert.Equal(t, "cmd-2", commands[1].ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent_TransitionWon(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	sentAt := time.Now().UTC()
	commandID := uuid.New().String()

	mock.ExpectExec(`UPDATE device_commands`).
		WithArgs(sentAt, commandID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.MarkSent(context.Background(), commandID, sentAt)

	require.NoError(t, err)
	assert.True(t, won)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent_AlreadySent(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	sentAt := time.Now().UTC()
	commandID := uuid.New().String()

	mock.ExpectExec(`UPDATE device_commands`).
		WithArgs(sentAt, commandID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.MarkSent(context.Background(), commandID, sentAt)

	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_OnlyDeliverableStates(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	completedAt := time.Now().UTC()
	commandID := uuid.New().String()

	mock.ExpectExec(`UPDATE device_commands`).
		WithArgs("Cancelled by operator-1", completedAt, commandID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.Cancel(context.Background(), commandID, "Cancelled by operator-1", completedAt)

	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResetForRetry_GuardsOnRetryCount(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	issuedAt := time.Now().UTC()
	commandID := uuid.New().String()

	mock.ExpectExec(`UPDATE device_commands`).
		WithArgs(issuedAt, commandID, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.ResetForRetry(context.Background(), commandID, 1, issuedAt)

	require.NoError(t, err)
	assert.True(t, won)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordResponse_DroppedForTerminalCommand(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	at := time.Now().UTC()
	commandID := uuid.New().String()

	mock.ExpectExec(`UPDATE device_commands`).
		WithArgs(hsmodels.CommandStatusCompleted, sqlmock.AnyArg(), at, nil, commandID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.RecordResponse(context.Background(), commandID,
		hsmodels.CommandStatusCompleted, map[string]interface{}{"ok": true}, nil, at)

	require.NoError(t, err)
	assert.False(t, applied)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireOverdue_ReportsCount(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE device_commands`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	expired, err := repo.ExpireOverdue(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, int64(3), expired)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteScheduled_LostRace(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	commandID := uuid.New().String()

	mock.ExpectExec(`UPDATE device_commands`).
		WithArgs(commandID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.PromoteScheduled(context.Background(), commandID)

	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFirmwareUpdateHistory_Limit(t *testing.T) {
	db, mock, repo := setupMockCommandDB(t)
	defer db.Close()

	now := time.Now().UTC()
	cmd := hsmodels.DeviceCommand{
		ID: "cmd-fw", DeviceID: "device-001", CommandType: hsmodels.CommandFirmwareUpdate,
		Status: hsmodels.CommandStatusCompleted, Priority: hsmodels.PriorityHigh,
		IssuedBy: "op", IssuedAt: now, ExpiresAt: now.Add(48 * time.Hour), MaxRetries: 3,
	}

	mock.ExpectQuery(`SELECT`).
		WithArgs("device-001", 10).
		WillReturnRows(commandRows(cmd))

	history, err := repo.GetFirmwareUpdateHistory(context.Background(), "device-001", 10)

	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, hsmodels.CommandFirmwareUpdate, history[0].CommandType)

	require.NoError(t, mock.ExpectationsWereMet())
}
