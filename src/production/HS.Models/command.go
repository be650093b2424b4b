package hsmodels

import "time"

// Command lifecycle states. Transitions are enforced by the dispatcher and
// by status-conditional updates in the command store:
//
//	scheduled -> pending -> sent -> acknowledged -> completed
//	sent -> failed -> pending (retry, bounded by max_retries)
//	pending|sent -> cancelled (operator) | expired (sweeper)
const (
	CommandStatusPending      = "pending"
	CommandStatusScheduled    = "scheduled"
	CommandStatusSent         = "sent"
	CommandStatusAcknowledged = "acknowledged"
	CommandStatusCompleted    = "completed"
	CommandStatusFailed       = "failed"
	CommandStatusCancelled    = "cancelled"
	CommandStatusExpired      = "expired"
)

// Supported command types
const (
	CommandRestart            = "restart"
	CommandCalibrate          = "calibrate"
	CommandUpdateConfig       = "update_config"
	CommandFirmwareUpdate     = "firmware_update"
	CommandReset              = "reset"
	CommandDiagnostics        = "diagnostics"
	CommandSetPollingInterval = "set_polling_interval"
	CommandEnableSensors      = "enable_sensors"
	CommandDisableSensors     = "disable_sensors"
)

// Command priorities
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// DefaultMaxRetries bounds manual retries of failed commands.
const DefaultMaxRetries = 3

// DeviceCommand is the durable record of one command issued to a device.
// Never deleted; terminal states keep the audit trail.
type DeviceCommand struct {
	ID             string                 `json:"id" db:"id"`
	DeviceID       string                 `json:"device_id" db:"device_id"`
	CommandType    string                 `json:"command_type" db:"command_type"`
	Payload        map[string]interface{} `json:"command_payload" db:"command_payload"`
	Status         string                 `json:"status" db:"status"`
	Priority       string                 `json:"priority" db:"priority"`
	IssuedBy       string                 `json:"issued_by" db:"issued_by"`
	IssuedAt       time.Time              `json:"issued_at" db:"issued_at"`
	SentAt         *time.Time             `json:"sent_at,omitempty" db:"sent_at"`
	AcknowledgedAt *time.Time             `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty" db:"completed_at"`
	ExpiresAt      time.Time              `json:"expires_at" db:"expires_at"`
	RetryCount     int                    `json:"retry_count" db:"retry_count"`
	MaxRetries     int                    `json:"max_retries" db:"max_retries"`
	Response       map[string]interface{} `json:"response,omitempty" db:"response"`
	ErrorMessage   *string                `json:"error_message,omitempty" db:"error_message"`
}

// CommandExpiry returns how long a command of the given type stays
// deliverable before the sweeper expires it.
func CommandExpiry(commandType string) time.Duration {
	switch commandType {
	case CommandRestart, CommandReset:
		return time.Hour
	case CommandCalibrate, CommandDiagnostics:
		return 4 * time.Hour
	case CommandUpdateConfig, CommandSetPollingInterval, CommandEnableSensors, CommandDisableSensors:
		return 12 * time.Hour
	case CommandFirmwareUpdate:
		return 48 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// IsTerminalStatus reports whether a command in this state can never change
// again.
func IsTerminalStatus(status string) bool {
	switch status {
	case CommandStatusCompleted, CommandStatusFailed, CommandStatusCancelled, CommandStatusExpired:
		return true
	}
	return false
}
