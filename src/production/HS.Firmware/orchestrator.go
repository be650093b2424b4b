// Package firmware manages firmware releases and rolls them out to the
// fleet: uploads, compatibility gating, immediate and scheduled updates,
// and rollbacks.
package firmware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	config "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Config"
	dispatcher "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Dispatcher"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	interfaces "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Interfaces"
)

// fallbackVersion is assumed for devices that never reported firmware.
const fallbackVersion = "1.0.0"

type Orchestrator struct {
	firmware   interfaces.FirmwareRepository
	devices    interfaces.DeviceRepository
	commands   interfaces.CommandRepository
	dispatcher *dispatcher.Dispatcher
	cfg        *config.FirmwareConfig
	logger     *logger.Logger
	now        func() time.Time
}

func NewOrchestrator(
	firmware interfaces.FirmwareRepository,
	devices interfaces.DeviceRepository,
	commands interfaces.CommandRepository,
	d *dispatcher.Dispatcher,
	cfg *config.FirmwareConfig,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		firmware:   firmware,
		devices:    devices,
		commands:   commands,
		dispatcher: d,
		cfg:        cfg,
		logger:     logger.WithComponent("firmware"),
		now:        time.Now,
	}
}

// UploadRequest carries a new firmware release's metadata.
type UploadRequest struct {
	Version              string
	Description          string
	ReleaseNotes         string
	FileSize             int64
	Checksum             string
	IsStable             bool
	IsBeta               bool
	MinCompatibleVersion string
	TargetDeviceModels   []string
	CreatedBy            string
}

// InitiateRequest targets one device or, with an empty DeviceID, every
// active device in the fleet.
type InitiateRequest struct {
	DeviceID        string
	FirmwareVersion string
	ForceUpdate     bool
	ScheduledAt     *time.Time
	IssuedBy        string
}

// CompatibilityResult explains whether a device can take a firmware version.
type CompatibilityResult struct {
	Compatible     bool     `json:"compatible"`
	Reasons        []string `json:"reasons"`
	CurrentVersion string   `json:"current_version"`
	TargetVersion  string   `json:"target_version"`
}

func (o *Orchestrator) ListVersions(ctx context.Context) ([]hsmodels.FirmwareVersion, error) {
	return o.firmware.ListVersions(ctx)
}

// UploadVersion registers a new release. Version strings are unique and the
// record is immutable once written.
func (o *Orchestrator) UploadVersion(ctx context.Context, req UploadRequest) (*hsmodels.FirmwareVersion, error) {
	if !IsValidVersion(req.Version) {
		return nil, fmt.Errorf("%w: %s, use semantic versioning (e.g. 2.1.0)", hsmodels.ErrInvalidVersion, req.Version)
	}

	existing, err := o.firmware.GetVersion(ctx, req.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing version: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", hsmodels.ErrDuplicateVersion, req.Version)
	}

	models := req.TargetDeviceModels
	if models == nil {
		models = []string{}
	}

	fw := hsmodels.FirmwareVersion{
		ID:                   uuid.New().String(),
		Version:              req.Version,
		Description:          req.Description,
		ReleaseNotes:         req.ReleaseNotes,
		FilePath:             fmt.Sprintf("/firmware/v%s.bin", req.Version),
		FileSize:             req.FileSize,
		Checksum:             req.Checksum,
		IsStable:             req.IsStable,
		IsBeta:               req.IsBeta,
		MinCompatibleVersion: req.MinCompatibleVersion,
		TargetDeviceModels:   models,
		CreatedBy:            req.CreatedBy,
		ReleaseDate:          o.now().UTC(),
	}

	if err := o.firmware.CreateVersion(ctx, fw); err != nil {
		return nil, fmt.Errorf("failed to store firmware version: %w", err)
	}

	o.logger.WithField("version", fw.Version).Info("Firmware version uploaded")
	return &fw, nil
}

// IsCompatible applies both gates: the device's current firmware must meet
// the release's minimum, and the device model must be targeted when the
// release restricts models.
func IsCompatible(device hsmodels.Device, fw hsmodels.FirmwareVersion) bool {
	if fw.MinCompatibleVersion != "" {
		current := device.FirmwareVersion
		if current == "" {
			current = fallbackVersion
		}
		if CompareVersions(current, fw.MinCompatibleVersion) < 0 {
			return false
		}
	}

	if len(fw.TargetDeviceModels) > 0 {
		model := device.DeviceModel
		if model == "" {
			model = "unknown"
		}
		found := false
		for _, m := range fw.TargetDeviceModels {
			if m == model {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// CheckCompatibility reports compatibility with human-readable reasons for
// each failing gate.
func (o *Orchestrator) CheckCompatibility(ctx context.Context, deviceID, version string) (*CompatibilityResult, error) {
	device, fw, err := o.lookupDeviceAndVersion(ctx, deviceID, version)
	if err != nil {
		return nil, err
	}

	result := &CompatibilityResult{
		Compatible:     IsCompatible(*device, *fw),
		Reasons:        []string{},
		CurrentVersion: device.FirmwareVersion,
		TargetVersion:  fw.Version,
	}

	if !result.Compatible {
		current := device.FirmwareVersion
		if current == "" {
			current = fallbackVersion
		}
		if fw.MinCompatibleVersion != "" && CompareVersions(current, fw.MinCompatibleVersion) < 0 {
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("Device firmware %s is below minimum required %s", device.FirmwareVersion, fw.MinCompatibleVersion))
		}
		if len(fw.TargetDeviceModels) > 0 && !modelTargeted(device.DeviceModel, fw.TargetDeviceModels) {
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("Device model %s is not in target models: %s", device.DeviceModel, strings.Join(fw.TargetDeviceModels, ", ")))
		}
	}

	return result, nil
}

// InitiateUpdate rolls a firmware version out to one device or the whole
// active fleet. Each device gets an independent outcome; one device failing
// never aborts the rest.
func (o *Orchestrator) InitiateUpdate(ctx context.Context, req InitiateRequest) ([]hsmodels.UpdateResult, error) {
	fw, err := o.firmware.GetVersion(ctx, req.FirmwareVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to look up firmware version: %w", err)
	}
	if fw == nil {
		return nil, fmt.Errorf("%w: firmware version %s", hsmodels.ErrNotFound, req.FirmwareVersion)
	}

	if req.ScheduledAt != nil && !req.ScheduledAt.After(o.now()) {
		return nil, hsmodels.ErrInvalidSchedule
	}

	var devices []hsmodels.Device
	if req.DeviceID != "" {
		device, err := o.devices.GetDevice(ctx, req.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up device: %w", err)
		}
		if device == nil {
			return nil, fmt.Errorf("%w: device %s", hsmodels.ErrNotFound, req.DeviceID)
		}
		devices = []hsmodels.Device{*device}
	} else {
		devices, err = o.devices.ListActiveDevices(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active devices: %w", err)
		}
	}

	results := make([]hsmodels.UpdateResult, 0, len(devices))
	for _, device := range devices {
		results = append(results, o.updateOneDevice(ctx, device, *fw, req))
	}
	return results, nil
}

func (o *Orchestrator) updateOneDevice(ctx context.Context, device hsmodels.Device, fw hsmodels.FirmwareVersion, req InitiateRequest) hsmodels.UpdateResult {
	if !IsCompatible(device, fw) && !req.ForceUpdate {
		return hsmodels.UpdateResult{
			DeviceID:   device.ID,
			DeviceName: device.Name,
			Status:     hsmodels.UpdateResultSkipped,
			Reason:     "Incompatible firmware version",
		}
	}

	if device.FirmwareVersion == fw.Version && !req.ForceUpdate {
		return hsmodels.UpdateResult{
			DeviceID:   device.ID,
			DeviceName: device.Name,
			Status:     hsmodels.UpdateResultSkipped,
			Reason:     "Device already has this firmware version",
		}
	}

	now := o.now().UTC()
	issuedAt := now
	status := hsmodels.CommandStatusPending
	if req.ScheduledAt != nil {
		issuedAt = req.ScheduledAt.UTC()
		status = hsmodels.CommandStatusScheduled
	}

	cmd := hsmodels.DeviceCommand{
		ID:          uuid.New().String(),
		DeviceID:    device.ID,
		CommandType: hsmodels.CommandFirmwareUpdate,
		Payload: map[string]interface{}{
			"firmware_version": fw.Version,
			"download_url":     o.downloadURL(fw.FilePath),
			"checksum":         fw.Checksum,
			"force_update":     req.ForceUpdate,
			"current_version":  device.FirmwareVersion,
		},
		Status:     status,
		Priority:   hsmodels.PriorityHigh,
		IssuedBy:   req.IssuedBy,
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(hsmodels.CommandExpiry(hsmodels.CommandFirmwareUpdate)),
		MaxRetries: hsmodels.DefaultMaxRetries,
	}

	if err := o.commands.CreateCommand(ctx, cmd); err != nil {
		return hsmodels.UpdateResult{
			DeviceID:   device.ID,
			DeviceName: device.Name,
			Status:     hsmodels.UpdateResultFailed,
			Reason:     err.Error(),
		}
	}

	if status == hsmodels.CommandStatusScheduled {
		return hsmodels.UpdateResult{
			DeviceID:   device.ID,
			DeviceName: device.Name,
			Status:     hsmodels.UpdateResultScheduled,
			CommandID:  cmd.ID,
		}
	}

	o.dispatcher.Deliver(ctx, cmd)
	return hsmodels.UpdateResult{
		DeviceID:   device.ID,
		DeviceName: device.Name,
		Status:     hsmodels.UpdateResultInitiated,
		CommandID:  cmd.ID,
	}
}

// Rollback issues a high-priority downgrade to a previously released
// version. Compatibility gates do not apply; rollback is the escape hatch.
func (o *Orchestrator) Rollback(ctx context.Context, deviceID, targetVersion, issuedBy string) (*dispatcher.SendResult, error) {
	device, fw, err := o.lookupDeviceAndVersion(ctx, deviceID, targetVersion)
	if err != nil {
		return nil, err
	}

	now := o.now().UTC()
	cmd := hsmodels.DeviceCommand{
		ID:          uuid.New().String(),
		DeviceID:    device.ID,
		CommandType: hsmodels.CommandFirmwareUpdate,
		Payload: map[string]interface{}{
			"firmware_version": fw.Version,
			"download_url":     o.downloadURL(fw.FilePath),
			"checksum":         fw.Checksum,
			"is_rollback":      true,
			"previous_version": device.FirmwareVersion,
		},
		Status:     hsmodels.CommandStatusPending,
		Priority:   hsmodels.PriorityCritical,
		IssuedBy:   issuedBy,
		IssuedAt:   now,
		ExpiresAt:  now.Add(24 * time.Hour),
		MaxRetries: hsmodels.DefaultMaxRetries,
	}

	if err := o.commands.CreateCommand(ctx, cmd); err != nil {
		return nil, fmt.Errorf("failed to store rollback command: %w", err)
	}

	o.dispatcher.Deliver(ctx, cmd)
	o.logger.WithField("device_id", deviceID).WithField("target_version", targetVersion).Warn("Firmware rollback initiated")

	return &dispatcher.SendResult{
		CommandID: cmd.ID,
		Status:    cmd.Status,
		Message:   fmt.Sprintf("Firmware rollback to %s initiated for device %s", targetVersion, device.Name),
	}, nil
}

// ScheduleUpdate schedules the same version for several devices at once.
// Each device gets an independent outcome.
func (o *Orchestrator) ScheduleUpdate(ctx context.Context, deviceIDs []string, version string, scheduledAt time.Time, issuedBy string) ([]hsmodels.UpdateResult, error) {
	if !scheduledAt.After(o.now()) {
		return nil, hsmodels.ErrInvalidSchedule
	}

	results := make([]hsmodels.UpdateResult, 0, len(deviceIDs))
	for _, deviceID := range deviceIDs {
		deviceResults, err := o.InitiateUpdate(ctx, InitiateRequest{
			DeviceID:        deviceID,
			FirmwareVersion: version,
			ScheduledAt:     &scheduledAt,
			IssuedBy:        issuedBy,
		})
		if err != nil {
			results = append(results, hsmodels.UpdateResult{
				DeviceID: deviceID,
				Status:   hsmodels.UpdateResultFailed,
				Reason:   err.Error(),
			})
			continue
		}
		results = append(results, deviceResults...)
	}
	return results, nil
}

// GetUpdateStatus returns a device's recent firmware update history, newest
// first.
func (o *Orchestrator) GetUpdateStatus(ctx context.Context, deviceID string) ([]hsmodels.DeviceCommand, error) {
	return o.commands.GetFirmwareUpdateHistory(ctx, deviceID, 10)
}

func (o *Orchestrator) lookupDeviceAndVersion(ctx context.Context, deviceID, version string) (*hsmodels.Device, *hsmodels.FirmwareVersion, error) {
	device, err := o.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up device: %w", err)
	}
	if device == nil {
		return nil, nil, fmt.Errorf("%w: device %s", hsmodels.ErrNotFound, deviceID)
	}

	fw, err := o.firmware.GetVersion(ctx, version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up firmware version: %w", err)
	}
	if fw == nil {
		return nil, nil, fmt.Errorf("%w: firmware version %s", hsmodels.ErrNotFound, version)
	}

	return device, fw, nil
}

func (o *Orchestrator) downloadURL(filePath string) string {
	return o.cfg.DownloadBaseURL + filePath
}

func modelTargeted(model string, targets []string) bool {
	if model == "" {
		model = "unknown"
	}
	for _, t := range targets {
		if t == model {
			return true
		}
	}
	return false
}

// IsUserError reports whether a firmware error maps to a 4xx response.
func IsUserError(err error) bool {
	return dispatcher.IsUserError(err) ||
		errors.Is(err, hsmodels.ErrDuplicateVersion) ||
		errors.Is(err, hsmodels.ErrInvalidVersion)
}
