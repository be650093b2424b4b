// Package telemetry processes inbound device traffic: sensor readings,
// heartbeats, device-originated alerts, status updates and command
// responses.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	dispatcher "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Dispatcher"
	evaluator "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Evaluator"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	interfaces "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Interfaces"
	validator "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Validator"
)

// Device health thresholds checked on every heartbeat
const (
	lowBatteryThreshold = 20
	highMemoryThreshold = 85
	highCPUThreshold    = 90
)

type Service struct {
	devices    interfaces.DeviceRepository
	readings   interfaces.ReadingRepository
	alerts     interfaces.AlertRepository
	quality    interfaces.QualityRepository
	messageLog interfaces.MessageLogRepository
	dispatcher *dispatcher.Dispatcher
	logger     *logger.Logger
	now        func() time.Time
}

func NewService(
	devices interfaces.DeviceRepository,
	readings interfaces.ReadingRepository,
	alerts interfaces.AlertRepository,
	quality interfaces.QualityRepository,
	messageLog interfaces.MessageLogRepository,
	d *dispatcher.Dispatcher,
	logger *logger.Logger,
) *Service {
	return &Service{
		devices:    devices,
		readings:   readings,
		alerts:     alerts,
		quality:    quality,
		messageLog: messageLog,
		dispatcher: d,
		logger:     logger.WithComponent("telemetry"),
		now:        time.Now,
	}
}

// IngestReading runs the full pipeline for one sensor reading: device check,
// range validation, storage, device status refresh, alert evaluation and
// quality accounting. Alert evaluation and quality failures are logged but
// never fail an already-stored reading.
func (s *Service) IngestReading(ctx context.Context, payload hsmodels.RawSensorPayload) (*hsmodels.SensorReading, error) {
	device, err := s.devices.GetDevice(ctx, payload.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up device %s: %w", payload.DeviceID, err)
	}
	if device == nil || !device.IsActive {
		return nil, fmt.Errorf("%w: invalid or inactive device %s", hsmodels.ErrNotFound, payload.DeviceID)
	}

	now := s.now().UTC()
	reading := validator.ValidateReading(payload, now)

	if err := s.readings.InsertReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to store reading: %w", err)
	}

	err = s.devices.UpdateTelemetryStatus(ctx, payload.DeviceID, interfaces.TelemetryStatus{
		Status:         hsmodels.DeviceStatusOnline,
		BatteryLevel:   payload.BatteryLevel,
		SignalStrength: payload.SignalStrength,
		SeenAt:         now,
	})
	if err != nil {
		s.logger.WithField("device_id", payload.DeviceID).WithError(err).Error("Failed to update device status")
	}

	s.evaluateAlerts(ctx, reading, now)

	if err := s.quality.RecordReading(ctx, payload.DeviceID, now, hsmodels.IsValidReading(reading.FieldCount())); err != nil {
		s.logger.WithField("device_id", payload.DeviceID).WithError(err).Error("Failed to update quality metrics")
	}

	return &reading, nil
}

func (s *Service) evaluateAlerts(ctx context.Context, reading hsmodels.SensorReading, at time.Time) {
	rules, err := s.alerts.GetActiveRulesForDevice(ctx, reading.DeviceID)
	if err != nil {
		s.logger.WithField("device_id", reading.DeviceID).WithError(err).Error("Failed to load alert rules")
		return
	}

	triggered := evaluator.Evaluate(reading, rules, at)
	if len(triggered) == 0 {
		return
	}

	if err := s.alerts.InsertAlerts(ctx, triggered); err != nil {
		s.logger.WithField("device_id", reading.DeviceID).WithError(err).Error("Failed to store alerts")
		return
	}
	s.logger.WithField("device_id", reading.DeviceID).WithField("alerts", len(triggered)).Warn("Alert rules triggered")
}

// HandleHeartbeat stores the heartbeat, refreshes the device record and
// raises health alerts for low battery, high memory or high CPU.
func (s *Service) HandleHeartbeat(ctx context.Context, hb hsmodels.DeviceHeartbeat) error {
	if hb.ID == "" {
		hb.ID = uuid.New().String()
	}
	if hb.ReceivedAt.IsZero() {
		hb.ReceivedAt = s.now().UTC()
	}

	if err := s.devices.InsertHeartbeat(ctx, hb); err != nil {
		return fmt.Errorf("failed to store heartbeat: %w", err)
	}

	if err := s.devices.UpdateFromHeartbeat(ctx, hb); err != nil {
		return fmt.Errorf("failed to update device from heartbeat: %w", err)
	}

	s.checkDeviceHealth(ctx, hb)
	return nil
}

func (s *Service) checkDeviceHealth(ctx context.Context, hb hsmodels.DeviceHeartbeat) {
	var alerts []hsmodels.Alert
	at := s.now().UTC()

	if hb.BatteryLevel != nil && *hb.BatteryLevel < lowBatteryThreshold {
		alerts = append(alerts, s.healthAlert(hb.DeviceID, hsmodels.SeverityMedium,
			fmt.Sprintf("Low battery warning: %v%%", *hb.BatteryLevel), at))
	}
	if hb.MemoryUsage != nil && *hb.MemoryUsage > highMemoryThreshold {
		alerts = append(alerts, s.healthAlert(hb.DeviceID, hsmodels.SeverityMedium,
			fmt.Sprintf("High memory usage: %v%%", *hb.MemoryUsage), at))
	}
	if hb.CPUUsage != nil && *hb.CPUUsage > highCPUThreshold {
		alerts = append(alerts, s.healthAlert(hb.DeviceID, hsmodels.SeverityHigh,
			fmt.Sprintf("High CPU usage: %v%%", *hb.CPUUsage), at))
	}

	if len(alerts) == 0 {
		return
	}
	if err := s.alerts.InsertAlerts(ctx, alerts); err != nil {
		s.logger.WithField("device_id", hb.DeviceID).WithError(err).Error("Failed to store health alerts")
	}
}

func (s *Service) healthAlert(deviceID, severity, message string, at time.Time) hsmodels.Alert {
	return hsmodels.Alert{
		ID:          uuid.New().String(),
		DeviceID:    deviceID,
		Severity:    severity,
		Message:     message,
		TriggeredAt: at,
		Resolved:    false,
	}
}

// HandleCommandResponse forwards a device's command acknowledgement to the
// dispatcher.
func (s *Service) HandleCommandResponse(ctx context.Context, commandID, status string, response map[string]interface{}, errorMessage *string) error {
	return s.dispatcher.RecordCommandResponse(ctx, commandID, status, response, errorMessage)
}

// DeviceAlert is an alert the device raised on its own, outside any
// server-side rule.
type DeviceAlert struct {
	DeviceID   string                 `json:"device_id"`
	Severity   string                 `json:"severity"`
	Message    string                 `json:"message"`
	AlertType  string                 `json:"alert_type,omitempty"`
	SensorData map[string]interface{} `json:"sensor_data,omitempty"`
}

// HandleDeviceAlert stores a device-originated alert and logs it as a
// processed high-priority message.
func (s *Service) HandleDeviceAlert(ctx context.Context, alert DeviceAlert) error {
	at := s.now().UTC()

	err := s.alerts.InsertAlert(ctx, hsmodels.Alert{
		ID:          uuid.New().String(),
		DeviceID:    alert.DeviceID,
		Severity:    alert.Severity,
		Message:     alert.Message,
		TriggeredAt: at,
		Resolved:    false,
	})
	if err != nil {
		return fmt.Errorf("failed to store device alert: %w", err)
	}

	logErr := s.messageLog.InsertMessage(ctx, hsmodels.MQTTMessageLog{
		DeviceID:    alert.DeviceID,
		Topic:       "device/alert",
		MessageType: "alert",
		Payload: map[string]interface{}{
			"device_id":   alert.DeviceID,
			"severity":    alert.Severity,
			"message":     alert.Message,
			"alert_type":  alert.AlertType,
			"sensor_data": alert.SensorData,
		},
		Direction:  hsmodels.DirectionInbound,
		Processed:  true,
		ReceivedAt: at,
	})
	if logErr != nil {
		s.logger.WithField("device_id", alert.DeviceID).WithError(logErr).Warn("Failed to log device alert")
	}

	return nil
}

// HandleStatusUpdate applies a device's self-reported status change.
func (s *Service) HandleStatusUpdate(ctx context.Context, deviceID, status string) error {
	if err := s.devices.UpdateStatus(ctx, deviceID, status, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to update status for device %s: %w", deviceID, err)
	}
	return nil
}

// LogInbound records one inbound broker message for audit. Best effort.
func (s *Service) LogInbound(ctx context.Context, deviceID, topic, messageType string, payload map[string]interface{}) {
	err := s.messageLog.InsertMessage(ctx, hsmodels.MQTTMessageLog{
		DeviceID:    deviceID,
		Topic:       topic,
		MessageType: messageType,
		Payload:     payload,
		Direction:   hsmodels.DirectionInbound,
		Processed:   false,
		ReceivedAt:  s.now().UTC(),
	})
	if err != nil {
		s.logger.WithField("topic", topic).WithError(err).Warn("Failed to log inbound message")
	}
}
