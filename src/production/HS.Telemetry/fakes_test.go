package telemetry

import (
	"context"
	"fmt"
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	interfaces "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Interfaces"
)

type fakeDeviceStore struct {
	devices          map[string]hsmodels.Device
	telemetryUpdates []interfaces.TelemetryStatus
	heartbeats       []hsmodels.DeviceHeartbeat
	heartbeatUpdates []hsmodels.DeviceHeartbeat
	statusUpdates    []string
}

func newFakeDeviceStore(devices ...hsmodels.Device) *fakeDeviceStore {
	s := &fakeDeviceStore{devices: make(map[string]hsmodels.Device)}
	for _, d := range devices {
		s.devices[d.ID] = d
	}
	return s
}

func (s *fakeDeviceStore) UpsertDevice(_ context.Context, device hsmodels.Device) error {
	s.devices[device.ID] = device
	return nil
}

func (s *fakeDeviceStore) GetDevice(_ context.Context, deviceID string) (*hsmodels.Device, error) {
	d, ok := s.devices[deviceID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *fakeDeviceStore) ListDevices(_ context.Context) ([]hsmodels.Device, error) {
	var out []hsmodels.Device
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeDeviceStore) ListActiveDevices(_ context.Context) ([]hsmodels.Device, error) {
	var out []hsmodels.Device
	for _, d := range s.devices {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeDeviceStore) UpdateTelemetryStatus(_ context.Context, _ string, status interfaces.TelemetryStatus) error {
	s.telemetryUpdates = append(s.telemetryUpdates, status)
	return nil
}

func (s *fakeDeviceStore) UpdateFromHeartbeat(_ context.Context, hb hsmodels.DeviceHeartbeat) error {
	s.heartbeatUpdates = append(s.heartbeatUpdates, hb)
	return nil
}

func (s *fakeDeviceStore) UpdateStatus(_ context.Context, _, status string, _ time.Time) error {
	s.statusUpdates = append(s.statusUpdates, status)
	return nil
}

func (s *fakeDeviceStore) InsertHeartbeat(_ context.Context, hb hsmodels.DeviceHeartbeat) error {
	s.heartbeats = append(s.heartbeats, hb)
	return nil
}

type fakeReadingStore struct {
	inserted []hsmodels.SensorReading
}

func (s *fakeReadingStore) InsertReading(_ context.Context, reading hsmodels.SensorReading) error {
	s.inserted = append(s.inserted, reading)
	return nil
}

func (s *fakeReadingStore) GetReadingsByDevice(_ context.Context, _ string, _, _ int) ([]hsmodels.SensorReading, error) {
	return s.inserted, nil
}

func (s *fakeReadingStore) GetReadingsByTimeRange(_ context.Context, _ string, _, _ time.Time, _, _ int) ([]hsmodels.SensorReading, error) {
	return s.inserted, nil
}

func (s *fakeReadingStore) GetLatestReading(_ context.Context, _ string) (*hsmodels.SensorReading, error) {
	if len(s.inserted) == 0 {
		return nil, nil
	}
	return &s.inserted[len(s.inserted)-1], nil
}

type fakeAlertStore struct {
	rules    []hsmodels.AlertRule
	inserted []hsmodels.Alert
	failWith error
}

func (s *fakeAlertStore) CreateRule(_ context.Context, rule hsmodels.AlertRule) error {
	s.rules = append(s.rules, rule)
	return nil
}

func (s *fakeAlertStore) GetActiveRulesForDevice(_ context.Context, _ string) ([]hsmodels.AlertRule, error) {
	return s.rules, nil
}

func (s *fakeAlertStore) InsertAlert(_ context.Context, alert hsmodels.Alert) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.inserted = append(s.inserted, alert)
	return nil
}

func (s *fakeAlertStore) InsertAlerts(_ context.Context, alerts []hsmodels.Alert) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.inserted = append(s.inserted, alerts...)
	return nil
}

func (s *fakeAlertStore) GetAlertsByDevice(_ context.Context, _ string, _, _ int) ([]hsmodels.Alert, error) {
	return s.inserted, nil
}

// counts maps device_id to [total, valid]
type fakeQualityStore struct {
	counts map[string][2]int
}

func (s *fakeQualityStore) RecordReading(_ context.Context, deviceID string, _ time.Time, valid bool) error {
	c := s.counts[deviceID]
	c[0]++
	if valid {
		c[1]++
	}
	s.counts[deviceID] = c
	return nil
}

func (s *fakeQualityStore) GetMetric(_ context.Context, _ string, _ time.Time) (*hsmodels.DataQualityMetric, error) {
	return nil, nil
}

type fakeMessageLog struct {
	messages []hsmodels.MQTTMessageLog
}

func (l *fakeMessageLog) InsertMessage(_ context.Context, msg hsmodels.MQTTMessageLog) error {
	l.messages = append(l.messages, msg)
	return nil
}

type fakeCommandStore struct {
	commands map[string]*hsmodels.DeviceCommand
}

func newFakeCommandStore() *fakeCommandStore {
	return &fakeCommandStore{commands: make(map[string]*hsmodels.DeviceCommand)}
}

func (s *fakeCommandStore) CreateCommand(_ context.Context, cmd hsmodels.DeviceCommand) error {
	s.commands[cmd.ID] = &cmd
	return nil
}

func (s *fakeCommandStore) GetCommand(_ context.Context, commandID string) (*hsmodels.DeviceCommand, error) {
	cmd, ok := s.commands[commandID]
	if !ok {
		return nil, nil
	}
	copied := *cmd
	return &copied, nil
}

func (s *fakeCommandStore) GetPendingCommands(_ context.Context, _ string) ([]hsmodels.DeviceCommand, error) {
	return nil, nil
}

func (s *fakeCommandStore) MarkSent(_ context.Context, commandID string, sentAt time.Time) (bool, error) {
	cmd, ok := s.commands[commandID]
	if !ok || cmd.Status != hsmodels.CommandStatusPending {
		return false, nil
	}
	cmd.Status = hsmodels.CommandStatusSent
	cmd.SentAt = &sentAt
	return true, nil
}

func (s *fakeCommandStore) Cancel(_ context.Context, _, _ string, _ time.Time) (bool, error) {
	return false, nil
}

func (s *fakeCommandStore) ResetForRetry(_ context.Context, _ string, _ int, _ time.Time) (bool, error) {
	return false, nil
}

func (s *fakeCommandStore) RecordResponse(_ context.Context, commandID, status string, response map[string]interface{}, errorMessage *string, at time.Time) (bool, error) {
	cmd, ok := s.commands[commandID]
	if !ok || (cmd.Status != hsmodels.CommandStatusSent && cmd.Status != hsmodels.CommandStatusAcknowledged) {
		return false, nil
	}
	cmd.Status = status
	cmd.Response = response
	cmd.ErrorMessage = errorMessage
	if cmd.AcknowledgedAt == nil {
		cmd.AcknowledgedAt = &at
	}
	if status == hsmodels.CommandStatusCompleted || status == hsmodels.CommandStatusFailed {
		cmd.CompletedAt = &at
	}
	return true, nil
}

func (s *fakeCommandStore) MarkFailed(_ context.Context, _, _ string, _ time.Time) (bool, error) {
	return false, nil
}

func (s *fakeCommandStore) ExpireOverdue(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeCommandStore) ListScheduledDue(_ context.Context, _ time.Time) ([]hsmodels.DeviceCommand, error) {
	return nil, nil
}

func (s *fakeCommandStore) PromoteScheduled(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (s *fakeCommandStore) GetFirmwareUpdateHistory(_ context.Context, _ string, _ int) ([]hsmodels.DeviceCommand, error) {
	return nil, nil
}

type fakePublisher struct{}

func (p *fakePublisher) Publish(_ string, _ interface{}) error { return nil }

func (p *fakePublisher) CommandTopic(deviceID string) string {
	return fmt.Sprintf("hydroscan/devices/%s/commands", deviceID)
}

func (p *fakePublisher) FirmwareTopic(deviceID string) string {
	return fmt.Sprintf("hydroscan/devices/%s/firmware/update", deviceID)
}
