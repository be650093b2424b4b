package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	interfaces "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Interfaces"
)

// fakeCommandStore is an in-memory CommandRepository that honors the same
// status-conditional transition rules as the Postgres implementation.
type fakeCommandStore struct {
	commands map[string]*hsmodels.DeviceCommand
	failWith error
}

func newFakeCommandStore() *fakeCommandStore {
	return &fakeCommandStore{commands: make(map[string]*hsmodels.DeviceCommand)}
}

func (s *fakeCommandStore) CreateCommand(_ context.Context, cmd hsmodels.DeviceCommand) error {
	if s.failWith != nil {
		return s.failWith
	}
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

func (s *fakeCommandStore) GetPendingCommands(_ context.Context, deviceID string) ([]hsmodels.DeviceCommand, error) {
	var out []hsmodels.DeviceCommand
	for _, cmd := range s.commands {
		if cmd.DeviceID == deviceID && (cmd.Status == hsmodels.CommandStatusPending || cmd.Status == hsmodels.CommandStatusSent) {
			out = append(out, *cmd)
		}
	}
	return out, nil
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

func (s *fakeCommandStore) Cancel(_ context.Context, commandID, reason string, completedAt time.Time) (bool, error) {
	cmd, ok := s.commands[commandID]
	if !ok || (cmd.Status != hsmodels.CommandStatusPending && cmd.Status != hsmodels.CommandStatusSent) {
		return false, nil
	}
	cmd.Status = hsmodels.CommandStatusCancelled
	cmd.ErrorMessage = &reason
	cmd.CompletedAt = &completedAt
	return true, nil
}

func (s *fakeCommandStore) ResetForRetry(_ context.Context, commandID string, expectedRetryCount int, issuedAt time.Time) (bool, error) {
	cmd, ok := s.commands[commandID]
	if !ok || cmd.Status != hsmodels.CommandStatusFailed ||
		cmd.RetryCount != expectedRetryCount || cmd.RetryCount >= cmd.MaxRetries {
		return false, nil
	}
	cmd.Status = hsmodels.CommandStatusPending
	cmd.RetryCount++
	cmd.ErrorMessage = nil
	cmd.SentAt = nil
	cmd.AcknowledgedAt = nil
	cmd.IssuedAt = issuedAt
	return true, nil
}

func (s *fakeCommandStore) RecordResponse(_ context.Context, commandID, status string, response map[string]interface{}, errorMessage *string, at time.Time) (bool, error) {
	cmd, ok := s.commands[commandID]
	if !ok || (cmd.Status != hsmodels.CommandStatusSent && cmd.Status != hsmodels.CommandStatusAcknowledged) {
		return false, nil
	}
	cmd.Status = status
	cmd.Response = response
	if cmd.AcknowledgedAt == nil {
		cmd.AcknowledgedAt = &at
	}
	if status == hsmodels.CommandStatusCompleted || status == hsmodels.CommandStatusFailed {
		cmd.CompletedAt = &at
	}
	cmd.ErrorMessage = errorMessage
	return true, nil
}

func (s *fakeCommandStore) MarkFailed(_ context.Context, commandID, errorMessage string, completedAt time.Time) (bool, error) {
	cmd, ok := s.commands[commandID]
	if !ok || hsmodels.IsTerminalStatus(cmd.Status) {
		return false, nil
	}
	cmd.Status = hsmodels.CommandStatusFailed
	cmd.ErrorMessage = &errorMessage
	cmd.CompletedAt = &completedAt
	return true, nil
}

func (s *fakeCommandStore) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	if s.failWith != nil {
		return 0, s.failWith
	}
	var n int64
	for _, cmd := range s.commands {
		if cmd.ExpiresAt.Before(now) &&
			(cmd.Status == hsmodels.CommandStatusPending || cmd.Status == hsmodels.CommandStatusSent) {
			cmd.Status = hsmodels.CommandStatusExpired
			msg := "Command expired"
			cmd.ErrorMessage = &msg
			cmd.CompletedAt = &now
			n++
		}
	}
	return n, nil
}

func (s *fakeCommandStore) ListScheduledDue(_ context.Context, now time.Time) ([]hsmodels.DeviceCommand, error) {
	var out []hsmodels.DeviceCommand
	for _, cmd := range s.commands {
		if cmd.Status == hsmodels.CommandStatusScheduled && !cmd.IssuedAt.After(now) {
			out = append(out, *cmd)
		}
	}
	return out, nil
}

func (s *fakeCommandStore) PromoteScheduled(_ context.Context, commandID string) (bool, error) {
	cmd, ok := s.commands[commandID]
	if !ok || cmd.Status != hsmodels.CommandStatusScheduled {
		return false, nil
	}
	cmd.Status = hsmodels.CommandStatusPending
	return true, nil
}

func (s *fakeCommandStore) GetFirmwareUpdateHistory(_ context.Context, deviceID string, limit int) ([]hsmodels.DeviceCommand, error) {
	var out []hsmodels.DeviceCommand
	for _, cmd := range s.commands {
		if cmd.DeviceID == deviceID && cmd.CommandType == hsmodels.CommandFirmwareUpdate {
			out = append(out, *cmd)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeDeviceStore struct {
	devices map[string]hsmodels.Device
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

func (s *fakeDeviceStore) UpdateTelemetryStatus(_ context.Context, _ string, _ interfaces.TelemetryStatus) error {
	return nil
}

func (s *fakeDeviceStore) UpdateFromHeartbeat(_ context.Context, _ hsmodels.DeviceHeartbeat) error {
	return nil
}

func (s *fakeDeviceStore) UpdateStatus(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func (s *fakeDeviceStore) InsertHeartbeat(_ context.Context, _ hsmodels.DeviceHeartbeat) error {
	return nil
}

type fakeMessageLog struct {
	messages []hsmodels.MQTTMessageLog
}

func (l *fakeMessageLog) InsertMessage(_ context.Context, msg hsmodels.MQTTMessageLog) error {
	l.messages = append(l.messages, msg)
	return nil
}

// fakePublisher records publishes and can be told to fail.
type fakePublisher struct {
	published []publishedMessage
	failWith  error
}

type publishedMessage struct {
	topic   string
	payload interface{}
}

func (p *fakePublisher) Publish(topic string, payload interface{}) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.published = append(p.published, publishedMessage{topic: topic, payload: payload})
	return nil
}

func (p *fakePublisher) CommandTopic(deviceID string) string {
	return fmt.Sprintf("hydroscan/devices/%s/commands", deviceID)
}

func (p *fakePublisher) FirmwareTopic(deviceID string) string {
	return fmt.Sprintf("hydroscan/devices/%s/firmware/update", deviceID)
}

var errBrokerDown = errors.New("broker unreachable")
