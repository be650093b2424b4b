package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

// commandResponsePayload is a device's acknowledgement of a command it
// received on its command topic.
type commandResponsePayload struct {
	CommandID    string                 `json:"command_id"`
	Status       string                 `json:"status"`
	Response     map[string]interface{} `json:"response,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
}

type statusUpdatePayload struct {
	DeviceID string `json:"device_id"`
	Status   string `json:"status"`
}

// RouteMessage logs one inbound broker message and dispatches it to the
// matching handler by topic suffix. Topics follow
// hydroscan/devices/<device_id>/<kind>. The returned id is the stored
// reading's id for sensor data topics and empty otherwise. Messages on
// unrecognized topics are logged and dropped without error.
func (s *Service) RouteMessage(ctx context.Context, topic, deviceID, messageType string, payload []byte) (string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return "", fmt.Errorf("malformed message payload on %s: %w", topic, err)
	}

	s.LogInbound(ctx, deviceID, topic, messageType, raw)

	switch {
	case strings.Contains(topic, "/data"):
		var reading hsmodels.RawSensorPayload
		if err := json.Unmarshal(payload, &reading); err != nil {
			return "", fmt.Errorf("malformed sensor payload: %w", err)
		}
		if reading.DeviceID == "" {
			reading.DeviceID = deviceID
		}
		reading.Raw = raw

		stored, err := s.IngestReading(ctx, reading)
		if err != nil {
			return "", err
		}
		return stored.ID, nil

	case strings.Contains(topic, "/heartbeat"):
		var hb hsmodels.DeviceHeartbeat
		if err := json.Unmarshal(payload, &hb); err != nil {
			return "", fmt.Errorf("malformed heartbeat payload: %w", err)
		}
		if hb.DeviceID == "" {
			hb.DeviceID = deviceID
		}
		return "", s.HandleHeartbeat(ctx, hb)

	case strings.Contains(topic, "/command/response"):
		var resp commandResponsePayload
		if err := json.Unmarshal(payload, &resp); err != nil {
			return "", fmt.Errorf("malformed command response payload: %w", err)
		}
		return "", s.HandleCommandResponse(ctx, resp.CommandID, resp.Status, resp.Response, resp.ErrorMessage)

	case strings.Contains(topic, "/alert"):
		var alert DeviceAlert
		if err := json.Unmarshal(payload, &alert); err != nil {
			return "", fmt.Errorf("malformed alert payload: %w", err)
		}
		if alert.DeviceID == "" {
			alert.DeviceID = deviceID
		}
		return "", s.HandleDeviceAlert(ctx, alert)

	case strings.Contains(topic, "/status"):
		var upd statusUpdatePayload
		if err := json.Unmarshal(payload, &upd); err != nil {
			return "", fmt.Errorf("malformed status payload: %w", err)
		}
		if upd.DeviceID == "" {
			upd.DeviceID = deviceID
		}
		return "", s.HandleStatusUpdate(ctx, upd.DeviceID, upd.Status)
	}

	s.logger.WithField("topic", topic).Debug("Unrouted inbound message")
	return "", nil
}

// DeviceIDFromTopic extracts the device id segment from a broker topic of
// the form <prefix>/devices/<device_id>/<rest>.
func DeviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	for i, part := range parts {
		if part == "devices" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
