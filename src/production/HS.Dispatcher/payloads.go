package dispatcher

import (
	"encoding/json"
	"fmt"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	validator "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Validator"
)

// Each command type has exactly one payload shape. Normalization parses the
// caller's raw payload into the typed shape, rejects what a device could not
// execute, fills documented defaults, and returns the canonical form that
// gets stored and published.

type restartPayload struct {
	Reason string `json:"reason"`
}

type calibratePayload struct {
	SensorType        string    `json:"sensor_type"`
	CalibrationPoints []float64 `json:"calibration_points"`
	ReferenceValues   []float64 `json:"reference_values"`
}

type updateConfigPayload struct {
	PollingInterval int                    `json:"polling_interval"`
	AlertThresholds map[string]interface{} `json:"alert_thresholds"`
	SensorSettings  map[string]interface{} `json:"sensor_settings"`
	NetworkSettings map[string]interface{} `json:"network_settings"`
}

type firmwareUpdatePayload struct {
	FirmwareVersion string `json:"firmware_version"`
	DownloadURL     string `json:"download_url,omitempty"`
	Checksum        string `json:"checksum,omitempty"`
	ForceUpdate     bool   `json:"force_update"`
}

type resetPayload struct {
	ResetType      string `json:"reset_type"`
	PreserveConfig bool   `json:"preserve_config"`
}

type diagnosticsPayload struct {
	TestSensors      bool `json:"test_sensors"`
	TestConnectivity bool `json:"test_connectivity"`
	TestMemory       bool `json:"test_memory"`
	FullReport       bool `json:"full_report"`
}

type pollingIntervalPayload struct {
	Interval int `json:"interval"`
}

type sensorListPayload struct {
	Sensors []string `json:"sensors"`
}

// NormalizeCommandPayload validates the raw payload for the given command
// type and returns the canonical payload map. An unrecognized command type
// fails with ErrUnknownCommandType.
func NormalizeCommandPayload(commandType string, raw map[string]interface{}) (map[string]interface{}, error) {
	switch commandType {
	case hsmodels.CommandRestart:
		var p restartPayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		if p.Reason == "" {
			p.Reason = "User requested restart"
		}
		return encodePayload(p)

	case hsmodels.CommandCalibrate:
		var p calibratePayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		if !validator.IsKnownSensorType(p.SensorType) {
			return nil, fmt.Errorf("%w: valid sensor_type required for calibration", hsmodels.ErrInvalidPayload)
		}
		if p.CalibrationPoints == nil {
			p.CalibrationPoints = []float64{}
		}
		if p.ReferenceValues == nil {
			p.ReferenceValues = []float64{}
		}
		return encodePayload(p)

	case hsmodels.CommandUpdateConfig:
		var p updateConfigPayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		if p.PollingInterval == 0 {
			p.PollingInterval = 300
		}
		if p.AlertThresholds == nil {
			p.AlertThresholds = map[string]interface{}{}
		}
		if p.SensorSettings == nil {
			p.SensorSettings = map[string]interface{}{}
		}
		if p.NetworkSettings == nil {
			p.NetworkSettings = map[string]interface{}{}
		}
		return encodePayload(p)

	case hsmodels.CommandFirmwareUpdate:
		var p firmwareUpdatePayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		if p.FirmwareVersion == "" {
			return nil, fmt.Errorf("%w: firmware_version required for firmware update", hsmodels.ErrInvalidPayload)
		}
		return encodePayload(p)

	case hsmodels.CommandReset:
		var p resetPayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		if p.ResetType == "" {
			p.ResetType = "soft"
		}
		if _, set := raw["preserve_config"]; !set {
			p.PreserveConfig = true
		}
		return encodePayload(p)

	case hsmodels.CommandDiagnostics:
		var p diagnosticsPayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		if _, set := raw["test_sensors"]; !set {
			p.TestSensors = true
		}
		if _, set := raw["test_connectivity"]; !set {
			p.TestConnectivity = true
		}
		if _, set := raw["test_memory"]; !set {
			p.TestMemory = true
		}
		return encodePayload(p)

	case hsmodels.CommandSetPollingInterval:
		var p pollingIntervalPayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		if p.Interval < 30 || p.Interval > 3600 {
			return nil, fmt.Errorf("%w: interval must be between 30 and 3600 seconds", hsmodels.ErrInvalidPayload)
		}
		return encodePayload(p)

	case hsmodels.CommandEnableSensors, hsmodels.CommandDisableSensors:
		var p sensorListPayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		if len(p.Sensors) == 0 {
			return nil, fmt.Errorf("%w: non-empty sensors array required", hsmodels.ErrInvalidPayload)
		}
		return encodePayload(p)

	default:
		return nil, fmt.Errorf("%w: %s", hsmodels.ErrUnknownCommandType, commandType)
	}
}

func decodePayload(raw map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", hsmodels.ErrInvalidPayload, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", hsmodels.ErrInvalidPayload, err)
	}
	return nil
}

func encodePayload(in interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return out, nil
}
