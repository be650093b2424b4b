// Package dispatcher owns the device command lifecycle: issuing, delivery
// over MQTT, cancellation, bounded retry, device responses, and expiry.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
	interfaces "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Repository/Interfaces"
	transport "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Transport"
)

// SendRequest is one command issue request.
type SendRequest struct {
	DeviceID     string
	CommandType  string
	Payload      map[string]interface{}
	Priority     string
	IssuedBy     string
	ScheduledFor *time.Time
}

// SendResult reports what happened to an issued command.
type SendResult struct {
	CommandID string `json:"command_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type Dispatcher struct {
	commands   interfaces.CommandRepository
	devices    interfaces.DeviceRepository
	messageLog interfaces.MessageLogRepository
	publisher  transport.Publisher
	logger     *logger.Logger
	now        func() time.Time
}

func NewDispatcher(
	commands interfaces.CommandRepository,
	devices interfaces.DeviceRepository,
	messageLog interfaces.MessageLogRepository,
	publisher transport.Publisher,
	logger *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		commands:   commands,
		devices:    devices,
		messageLog: messageLog,
		publisher:  publisher,
		logger:     logger.WithComponent("dispatcher"),
		now:        time.Now,
	}
}

// SendCommand validates and persists a command, then attempts immediate
// delivery. Delivery failure is not an error: the command stays pending and
// the device picks it up on its next pending-commands poll.
func (d *Dispatcher) SendCommand(ctx context.Context, req SendRequest) (*SendResult, error) {
	device, err := d.devices.GetDevice(ctx, req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up device %s: %w", req.DeviceID, err)
	}
	if device == nil || !device.IsActive {
		return nil, fmt.Errorf("%w: device %s", hsmodels.ErrNotFound, req.DeviceID)
	}

	payload, err := NormalizeCommandPayload(req.CommandType, req.Payload)
	if err != nil {
		return nil, err
	}

	now := d.now().UTC()
	issuedAt := now
	status := hsmodels.CommandStatusPending
	if req.ScheduledFor != nil {
		if !req.ScheduledFor.After(now) {
			return nil, fmt.Errorf("%w: scheduled time must be in the future", hsmodels.ErrInvalidSchedule)
		}
		issuedAt = req.ScheduledFor.UTC()
		status = hsmodels.CommandStatusScheduled
	}

	priority := req.Priority
	if priority == "" {
		priority = hsmodels.PriorityMedium
	}

	cmd := hsmodels.DeviceCommand{
		ID:          uuid.New().String(),
		DeviceID:    req.DeviceID,
		CommandType: req.CommandType,
		Payload:     payload,
		Status:      status,
		Priority:    priority,
		IssuedBy:    req.IssuedBy,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(hsmodels.CommandExpiry(req.CommandType)),
		MaxRetries:  hsmodels.DefaultMaxRetries,
	}

	if err := d.commands.CreateCommand(ctx, cmd); err != nil {
		return nil, fmt.Errorf("failed to store command: %w", err)
	}

	if status == hsmodels.CommandStatusScheduled {
		return &SendResult{
			CommandID: cmd.ID,
			Status:    status,
			Message:   fmt.Sprintf("Command %s scheduled for device %s", req.CommandType, device.Name),
		}, nil
	}

	delivered, _ := d.Deliver(ctx, cmd)
	finalStatus := hsmodels.CommandStatusPending
	verb := "queued for"
	if delivered {
		finalStatus = hsmodels.CommandStatusSent
		verb = "sent to"
	}

	return &SendResult{
		CommandID: cmd.ID,
		Status:    finalStatus,
		Message:   fmt.Sprintf("Command %s %s device %s", req.CommandType, verb, device.Name),
	}, nil
}

// Deliver publishes a stored command and marks it sent on success. Firmware
// updates go to the device's firmware topic with the update message shape;
// everything else goes to the command topic. Returns whether the command
// reached the broker, plus the publish error when it did not.
func (d *Dispatcher) Deliver(ctx context.Context, cmd hsmodels.DeviceCommand) (bool, error) {
	var topic string
	var message map[string]interface{}

	if cmd.CommandType == hsmodels.CommandFirmwareUpdate {
		topic = d.publisher.FirmwareTopic(cmd.DeviceID)
		message = map[string]interface{}{
			"command_id":       cmd.ID,
			"firmware_version": cmd.Payload["firmware_version"],
			"download_url":     cmd.Payload["download_url"],
			"checksum":         cmd.Payload["checksum"],
			"timestamp":        d.now().UTC().Format(time.RFC3339),
		}
	} else {
		topic = d.publisher.CommandTopic(cmd.DeviceID)
		message = map[string]interface{}{
			"command_id":   cmd.ID,
			"command_type": cmd.CommandType,
			"payload":      cmd.Payload,
			"priority":     cmd.Priority,
			"issued_at":    cmd.IssuedAt.Format(time.RFC3339),
			"expires_at":   cmd.ExpiresAt.Format(time.RFC3339),
		}
	}

	if err := d.publisher.Publish(topic, message); err != nil {
		d.logger.WithField("command_id", cmd.ID).WithError(err).Warn("Command delivery failed, left pending")
		return false, err
	}

	marked, err := d.commands.MarkSent(ctx, cmd.ID, d.now().UTC())
	if err != nil {
		d.logger.WithField("command_id", cmd.ID).WithError(err).Error("Failed to mark command sent")
		return false, nil
	}
	if !marked {
		return false, nil
	}

	d.logOutbound(ctx, cmd, topic, message)
	return true, nil
}

func (d *Dispatcher) logOutbound(ctx context.Context, cmd hsmodels.DeviceCommand, topic string, message map[string]interface{}) {
	messageType := "command"
	if cmd.CommandType == hsmodels.CommandFirmwareUpdate {
		messageType = "firmware_update"
	}
	err := d.messageLog.InsertMessage(ctx, hsmodels.MQTTMessageLog{
		DeviceID:    cmd.DeviceID,
		Topic:       topic,
		MessageType: messageType,
		Payload:     message,
		Direction:   hsmodels.DirectionOutbound,
		Processed:   true,
		ReceivedAt:  d.now().UTC(),
	})
	if err != nil {
		d.logger.WithField("command_id", cmd.ID).WithError(err).Warn("Failed to log outbound command")
	}
}

func (d *Dispatcher) GetPendingCommands(ctx context.Context, deviceID string) ([]hsmodels.DeviceCommand, error) {
	return d.commands.GetPendingCommands(ctx, deviceID)
}

func (d *Dispatcher) GetCommandStatus(ctx context.Context, commandID string) (*hsmodels.DeviceCommand, error) {
	cmd, err := d.commands.GetCommand(ctx, commandID)
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, fmt.Errorf("%w: command %s", hsmodels.ErrNotFound, commandID)
	}
	return cmd, nil
}

// CancelCommand cancels a command that has not yet reached a terminal state.
// A command the device already completed cannot be cancelled.
func (d *Dispatcher) CancelCommand(ctx context.Context, commandID, actor string) error {
	cancelled, err := d.commands.Cancel(ctx, commandID, fmt.Sprintf("Cancelled by %s", actor), d.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cancel command %s: %w", commandID, err)
	}
	if !cancelled {
		return fmt.Errorf("%w: command %s is not cancellable", hsmodels.ErrInvalidTransition, commandID)
	}
	return nil
}

// RetryCommand re-issues a failed command, bounded by max_retries. The reset
// is conditional on the observed retry count so two operators retrying at
// once produce a single new attempt.
func (d *Dispatcher) RetryCommand(ctx context.Context, commandID string) (*SendResult, error) {
	cmd, err := d.commands.GetCommand(ctx, commandID)
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, fmt.Errorf("%w: command %s", hsmodels.ErrNotFound, commandID)
	}
	if cmd.Status != hsmodels.CommandStatusFailed {
		return nil, fmt.Errorf("%w: only failed commands can be retried", hsmodels.ErrInvalidTransition)
	}
	if cmd.RetryCount >= cmd.MaxRetries {
		return nil, fmt.Errorf("%w: command %s used %d of %d attempts", hsmodels.ErrRetryExhausted, commandID, cmd.RetryCount, cmd.MaxRetries)
	}

	issuedAt := d.now().UTC()
	reset, err := d.commands.ResetForRetry(ctx, commandID, cmd.RetryCount, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reset command %s for retry: %w", commandID, err)
	}
	if !reset {
		return nil, fmt.Errorf("%w: command %s changed state during retry", hsmodels.ErrInvalidTransition, commandID)
	}

	cmd.Status = hsmodels.CommandStatusPending
	cmd.RetryCount++
	cmd.IssuedAt = issuedAt

	delivered, _ := d.Deliver(ctx, *cmd)
	status := hsmodels.CommandStatusPending
	if delivered {
		status = hsmodels.CommandStatusSent
	}

	return &SendResult{
		CommandID: commandID,
		Status:    status,
		Message:   fmt.Sprintf("Command retry initiated (attempt %d/%d)", cmd.RetryCount, cmd.MaxRetries),
	}, nil
}

// RecordCommandResponse applies one device response. Responses carrying an
// unknown status, or arriving for a command no longer in flight, are dropped
// without error so a confused device cannot corrupt lifecycle state.
func (d *Dispatcher) RecordCommandResponse(ctx context.Context, commandID, status string, response map[string]interface{}, errorMessage *string) error {
	switch status {
	case hsmodels.CommandStatusAcknowledged, hsmodels.CommandStatusCompleted, hsmodels.CommandStatusFailed:
	default:
		d.logger.WithField("command_id", commandID).WithField("status", status).Warn("Dropping response with unknown status")
		return nil
	}

	applied, err := d.commands.RecordResponse(ctx, commandID, status, response, errorMessage, d.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record response for command %s: %w", commandID, err)
	}
	if !applied {
		d.logger.WithField("command_id", commandID).Debug("Response for command not in flight, dropped")
	}
	return nil
}

// IsUserError reports whether a dispatcher error is the caller's fault
// rather than an internal failure, for HTTP status mapping.
func IsUserError(err error) bool {
	return errors.Is(err, hsmodels.ErrNotFound) ||
		errors.Is(err, hsmodels.ErrInvalidPayload) ||
		errors.Is(err, hsmodels.ErrUnknownCommandType) ||
		errors.Is(err, hsmodels.ErrInvalidTransition) ||
		errors.Is(err, hsmodels.ErrInvalidSchedule) ||
		errors.Is(err, hsmodels.ErrRetryExhausted)
}
