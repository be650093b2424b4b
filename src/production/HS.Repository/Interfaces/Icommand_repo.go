package interfaces

import (
	"context"
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

// CommandRepository is the durable command store. Every state transition is
// a status-conditional UPDATE: the bool result reports whether the row was
// actually in the expected source state, so two concurrent callers can never
// both win the same transition.
type CommandRepository interface {
	CreateCommand(ctx context.Context, cmd hsmodels.DeviceCommand) error
	GetCommand(ctx context.Context, commandID string) (*hsmodels.DeviceCommand, error)

	// GetPendingCommands returns commands in pending or sent for the device,
	// oldest issued first (FIFO delivery order).
	GetPendingCommands(ctx context.Context, deviceID string) ([]hsmodels.DeviceCommand, error)

	// MarkSent transitions pending -> sent and stamps sent_at.
	MarkSent(ctx context.Context, commandID string, sentAt time.Time) (bool, error)

	// Cancel transitions pending|sent -> cancelled.
	Cancel(ctx context.Context, commandID, reason string, completedAt time.Time) (bool, error)

	// ResetForRetry transitions failed -> pending, increments retry_count and
	// clears prior error and delivery timestamps. The expected retry count
	// guards against concurrent retries of the same command.
	ResetForRetry(ctx context.Context, commandID string, expectedRetryCount int, issuedAt time.Time) (bool, error)

	// RecordResponse transitions sent|acknowledged on a device response.
	// Responses for commands in any other state are dropped (false, nil).
	RecordResponse(ctx context.Context, commandID, status string, response map[string]interface{}, errorMessage *string, at time.Time) (bool, error)

	// MarkFailed transitions any non-terminal state -> failed with an error.
	MarkFailed(ctx context.Context, commandID, errorMessage string, completedAt time.Time) (bool, error)

	// ExpireOverdue transitions every pending|sent command whose expires_at
	// has passed to expired, in one statement. Returns the number expired.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	// ListScheduledDue returns scheduled commands whose due time has passed.
	ListScheduledDue(ctx context.Context, now time.Time) ([]hsmodels.DeviceCommand, error)

	// PromoteScheduled transitions scheduled -> pending.
	PromoteScheduled(ctx context.Context, commandID string) (bool, error)

	// GetFirmwareUpdateHistory returns a device's most recent firmware_update
	// commands, newest first.
	GetFirmwareUpdateHistory(ctx context.Context, deviceID string, limit int) ([]hsmodels.DeviceCommand, error)
}
