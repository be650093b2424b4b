package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

func TestRouteMessage_SensorData(t *testing.T) {
	fx := newFixture(t, activeDevice("dev-1"))

	payload := []byte(`{"ph": 7.2, "temperature": 21.0}`)
	readingID, err := fx.service.RouteMessage(context.Background(),
		"hydroscan/devices/dev-1/data", "dev-1", "sensor_data", payload)

	require.NoError(t, err)
	require.Len(t, fx.readings.inserted, 1)
	assert.Equal(t, fx.readings.inserted[0].ID, readingID)
	assert.Equal(t, 7.2, *fx.readings.inserted[0].PH)

	// inbound message logged before processing
	require.NotEmpty(t, fx.log.messages)
	assert.Equal(t, "sensor_data", fx.log.messages[0].MessageType)
	assert.Equal(t, hsmodels.DirectionInbound, fx.log.messages[0].Direction)
}

func TestRouteMessage_HeartbeatFillsDeviceID(t *testing.T) {
	fx := newFixture(t, activeDevice("dev-1"))

	// payload without device_id, filled from the topic
	payload := []byte(`{"status": "online", "battery_level": 55}`)
	_, err := fx.service.RouteMessage(context.Background(),
		"hydroscan/devices/dev-1/heartbeat", "dev-1", "heartbeat", payload)

	require.NoError(t, err)
	require.Len(t, fx.devices.heartbeats, 1)
	assert.Equal(t, "dev-1", fx.devices.heartbeats[0].DeviceID)
}

func TestRouteMessage_StatusUpdate(t *testing.T) {
	fx := newFixture(t, activeDevice("dev-1"))

	_, err := fx.service.RouteMessage(context.Background(),
		"hydroscan/devices/dev-1/status", "dev-1", "status",
		[]byte(`{"status": "maintenance"}`))

	require.NoError(t, err)
	require.Len(t, fx.devices.statusUpdates, 1)
	assert.Equal(t, hsmodels.DeviceStatusMaintenance, fx.devices.statusUpdates[0])
}

func TestRouteMessage_DeviceAlert(t *testing.T) {
	fx := newFixture(t, activeDevice("dev-1"))

	_, err := fx.service.RouteMessage(context.Background(),
		"hydroscan/devices/dev-1/alert", "dev-1", "alert",
		[]byte(`{"severity": "high", "message": "Sensor fault detected"}`))

	require.NoError(t, err)
	require.Len(t, fx.alerts.inserted, 1)
	assert.Equal(t, "Sensor fault detected", fx.alerts.inserted[0].Message)
	assert.Equal(t, "dev-1", fx.alerts.inserted[0].DeviceID)
}

func TestRouteMessage_UnroutedTopicLoggedAndDropped(t *testing.T) {
	fx := newFixture(t, activeDevice("dev-1"))

	readingID, err := fx.service.RouteMessage(context.Background(),
		"hydroscan/devices/dev-1/debug", "dev-1", "unknown", []byte(`{"x": 1}`))

	require.NoError(t, err)
	assert.Empty(t, readingID)
	assert.Empty(t, fx.readings.inserted)
	require.Len(t, fx.log.messages, 1)
}

func TestRouteMessage_MalformedPayload(t *testing.T) {
	fx := newFixture(t, activeDevice("dev-1"))

	_, err := fx.service.RouteMessage(context.Background(),
		"hydroscan/devices/dev-1/data", "dev-1", "sensor_data", []byte(`not-json`))

	assert.Error(t, err)
	assert.Empty(t, fx.readings.inserted)
}

func TestDeviceIDFromTopic(t *testing.T) {
	assert.Equal(t, "dev-1", DeviceIDFromTopic("hydroscan/devices/dev-1/data"))
	assert.Equal(t, "dev-1", DeviceIDFromTopic("hydroscan/devices/dev-1/command/response"))
	assert.Equal(t, "", DeviceIDFromTopic("hydroscan/other/dev-1"))
	assert.Equal(t, "", DeviceIDFromTopic("hydroscan/devices"))
}
