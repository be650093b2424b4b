package firmware

import (
	"context"
	"fmt"
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	interfaces "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Interfaces"
)

type fakeFirmwareStore struct {
	versions map[string]hsmodels.FirmwareVersion
}

func newFakeFirmwareStore(versions ...hsmodels.FirmwareVersion) *fakeFirmwareStore {
	s := &fakeFirmwareStore{versions: make(map[string]hsmodels.FirmwareVersion)}
	for _, fw := range versions {
		s.versions[fw.Version] = fw
	}
	return s
}

func (s *fakeFirmwareStore) CreateVersion(_ context.Context, fw hsmodels.FirmwareVersion) error {
	if _, exists := s.versions[fw.Version]; exists {
		return fmt.Errorf("duplicate key value violates unique constraint")
	}
	s.versions[fw.Version] = fw
	return nil
}

func (s *fakeFirmwareStore) GetVersion(_ context.Context, version string) (*hsmodels.FirmwareVersion, error) {
	fw, ok := s.versions[version]
	if !ok {
		return nil, nil
	}
	return &fw, nil
}

func (s *fakeFirmwareStore) ListVersions(_ context.Context) ([]hsmodels.FirmwareVersion, error) {
	var out []hsmodels.FirmwareVersion
	for _, fw := range s.versions {
		out = append(out, fw)
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

func (s *fakeCommandStore) Cancel(_ context.Context, _, _ string, _ time.Time) (bool, error) {
	return false, nil
}

func (s *fakeCommandStore) ResetForRetry(_ context.Context, _ string, _ int, _ time.Time) (bool, error) {
	return false, nil
}

func (s *fakeCommandStore) RecordResponse(_ context.Context, _, _ string, _ map[string]interface{}, _ *string, _ time.Time) (bool, error) {
	return false, nil
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

func (s *fakeCommandStore) ExpireOverdue(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
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

type fakeMessageLog struct {
	messages []hsmodels.MQTTMessageLog
}

func (l *fakeMessageLog) InsertMessage(_ context.Context, msg hsmodels.MQTTMessageLog) error {
	l.messages = append(l.messages, msg)
	return nil
}

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
