package api_models

import (
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

// CommandAction discriminates the device-commander endpoint's request
// variants. The controller decodes the envelope first, then binds the body
// into the matching typed request.
type CommandAction string

const (
	ActionSendCommand        CommandAction = "send_command"
	ActionGetPendingCommands CommandAction = "get_pending_commands"
	ActionGetCommandStatus   CommandAction = "get_command_status"
	ActionCancelCommand      CommandAction = "cancel_command"
	ActionRetryCommand       CommandAction = "retry_command"
)

// ActionEnvelope carries only the discriminator; the rest of the body is
// re-bound into the per-action request type.
type ActionEnvelope struct {
	Action string `json:"action" binding:"required"`
}

// SendCommandRequest issues a new command to a device. A future ScheduledFor
// stores the command for later delivery instead of delivering now.
type SendCommandRequest struct {
	DeviceID     string                 `json:"device_id" binding:"required"`
	CommandType  string                 `json:"command_type" binding:"required"`
	Payload      map[string]interface{} `json:"payload"`
	Priority     string                 `json:"priority"`
	ScheduledFor *time.Time             `json:"scheduled_for"`
}

// GetPendingCommandsRequest lists undelivered commands for a device.
type GetPendingCommandsRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// CommandRefRequest addresses an existing command by id, used by the
// get_command_status, cancel_command and retry_command actions.
type CommandRefRequest struct {
	CommandID string `json:"command_id" binding:"required"`
}

// SendCommandResponse reports the stored command and its post-publish state.
type SendCommandResponse struct {
	Success   bool   `json:"success"`
	CommandID string `json:"command_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// PendingCommandsResponse lists commands in pending or sent, oldest first.
type PendingCommandsResponse struct {
	Success  bool                     `json:"success"`
	Commands []hsmodels.DeviceCommand `json:"commands"`
}

// CommandStatusResponse returns one full command record.
type CommandStatusResponse struct {
	Success bool                    `json:"success"`
	Command *hsmodels.DeviceCommand `json:"command"`
}

// ActionResultResponse is the generic success/message response for cancel
// and retry actions.
type ActionResultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FirmwareAction discriminates the firmware-manager endpoint's variants.
type FirmwareAction string

const (
	ActionListFirmware       FirmwareAction = "list_firmware"
	ActionUploadFirmware     FirmwareAction = "upload_firmware"
	ActionInitiateUpdate     FirmwareAction = "initiate_update"
	ActionCheckCompatibility FirmwareAction = "check_compatibility"
	ActionGetUpdateStatus    FirmwareAction = "get_update_status"
	ActionRollbackFirmware   FirmwareAction = "rollback_firmware"
	ActionScheduleUpdate     FirmwareAction = "schedule_update"
)

// UploadFirmwareRequest registers a new immutable firmware version.
type UploadFirmwareRequest struct {
	Version              string   `json:"version" binding:"required"`
	Description          string   `json:"description"`
	ReleaseNotes         string   `json:"release_notes"`
	FileSize             int64    `json:"file_size"`
	Checksum             string   `json:"checksum"`
	IsStable             bool     `json:"is_stable"`
	IsBeta               bool     `json:"is_beta"`
	MinCompatibleVersion string   `json:"min_compatible_version"`
	TargetDeviceModels   []string `json:"target_device_models"`
}

// InitiateUpdateRequest starts an update for one device, or fleet-wide when
// DeviceID is empty.
type InitiateUpdateRequest struct {
	DeviceID        string     `json:"device_id"`
	FirmwareVersion string     `json:"firmware_version" binding:"required"`
	ForceUpdate     bool       `json:"force_update"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
}

// CheckCompatibilityRequest asks whether a device can take a firmware.
type CheckCompatibilityRequest struct {
	DeviceID        string `json:"device_id" binding:"required"`
	FirmwareVersion string `json:"firmware_version" binding:"required"`
}

// GetUpdateStatusRequest fetches a device's recent firmware_update commands.
type GetUpdateStatusRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// RollbackFirmwareRequest forces a device back to an older published version.
type RollbackFirmwareRequest struct {
	DeviceID      string `json:"device_id" binding:"required"`
	TargetVersion string `json:"target_version" binding:"required"`
}

// ScheduleUpdateRequest defers an update for a set of devices.
type ScheduleUpdateRequest struct {
	DeviceIDs       []string  `json:"device_ids" binding:"required"`
	FirmwareVersion string    `json:"firmware_version" binding:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
}

// ListFirmwareResponse lists all versions, newest release first.
type ListFirmwareResponse struct {
	Success   bool                       `json:"success"`
	Firmwares []hsmodels.FirmwareVersion `json:"firmwares"`
}

// UploadFirmwareResponse returns the stored firmware record.
type UploadFirmwareResponse struct {
	Success  bool                      `json:"success"`
	Firmware *hsmodels.FirmwareVersion `json:"firmware"`
	Message  string                    `json:"message"`
}

// UpdateResultsResponse carries per-device outcomes of a fleet action.
type UpdateResultsResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Results []hsmodels.UpdateResult `json:"results"`
}

// CompatibilityResponse reports compatibility plus human-readable reasons.
type CompatibilityResponse struct {
	Success        bool     `json:"success"`
	Compatible     bool     `json:"compatible"`
	Reasons        []string `json:"reasons"`
	CurrentVersion string   `json:"current_version"`
	TargetVersion  string   `json:"target_version"`
}

// UpdateStatusResponse lists a device's recent firmware update history.
type UpdateStatusResponse struct {
	Success       bool                     `json:"success"`
	UpdateHistory []hsmodels.DeviceCommand `json:"update_history"`
}

// RollbackResponse reports a single-device rollback command.
type RollbackResponse struct {
	Success   bool   `json:"success"`
	CommandID string `json:"command_id"`
	Message   string `json:"message"`
}

// TelemetryResponse acknowledges an ingested reading.
type TelemetryResponse struct {
	Success   bool   `json:"success"`
	ReadingID string `json:"reading_id"`
	Message   string `json:"message,omitempty"`
}
