package hsmodels

import "time"

// FirmwareVersion is an immutable firmware release record. Duplicate version
// strings are rejected at upload.
type FirmwareVersion struct {
	ID                   string    `json:"id" db:"id"`
	Version              string    `json:"version" db:"version"`
	Description          string    `json:"description,omitempty" db:"description"`
	ReleaseNotes         string    `json:"release_notes,omitempty" db:"release_notes"`
	FilePath             string    `json:"file_path" db:"file_path"`
	FileSize             int64     `json:"file_size" db:"file_size"`
	Checksum             string    `json:"checksum,omitempty" db:"checksum"`
	IsStable             bool      `json:"is_stable" db:"is_stable"`
	IsBeta               bool      `json:"is_beta" db:"is_beta"`
	MinCompatibleVersion string    `json:"min_compatible_version,omitempty" db:"min_compatible_version"`
	TargetDeviceModels   []string  `json:"target_device_models,omitempty" db:"target_device_models"`
	CreatedBy            string    `json:"created_by" db:"created_by"`
	ReleaseDate          time.Time `json:"release_date" db:"release_date"`
}

// Per-device outcomes of a fleet update request
const (
	UpdateResultInitiated = "initiated"
	UpdateResultScheduled = "scheduled"
	UpdateResultSkipped   = "skipped"
	UpdateResultFailed    = "failed"
	UpdateResultError     = "error"
)

// UpdateResult is the outcome of one device within a fleet update.
type UpdateResult struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	CommandID  string `json:"command_id,omitempty"`
}
