package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

func f(v float64) *float64 { return &v }

func TestValidateReading_AllFieldsInRange(t *testing.T) {
	receivedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := hsmodels.RawSensorPayload{
		DeviceID:    "dev-1",
		PH:          f(7.256),
		Turbidity:   f(120.5),
		TDS:         f(450),
		Temperature: f(21.333),
	}

	reading := ValidateReading(payload, receivedAt)

	require.NotNil(t, reading.PH)
	assert.Equal(t, 7.26, *reading.PH)
	require.NotNil(t, reading.Turbidity)
	assert.Equal(t, 120.5, *reading.Turbidity)
	require.NotNil(t, reading.TDS)
	assert.Equal(t, 450.0, *reading.TDS)
	require.NotNil(t, reading.Temperature)
	assert.Equal(t, 21.33, *reading.Temperature)
	assert.Equal(t, "dev-1", reading.DeviceID)
	assert.Equal(t, receivedAt, reading.Timestamp)
	assert.NotEmpty(t, reading.ID)
}

func TestValidateReading_OutOfRangeFieldsDropped(t *testing.T) {
	payload := hsmodels.RawSensorPayload{
		DeviceID:    "dev-1",
		PH:          f(14.01),
		Turbidity:   f(-0.5),
		TDS:         f(2000.1),
		Temperature: f(25),
	}

	reading := ValidateReading(payload, time.Now())

	assert.Nil(t, reading.PH)
	assert.Nil(t, reading.Turbidity)
	assert.Nil(t, reading.TDS)
	require.NotNil(t, reading.Temperature)
	assert.Equal(t, 25.0, *reading.Temperature)
	assert.Equal(t, 1, reading.FieldCount())
}

func TestValidateReading_BoundaryValuesKept(t *testing.T) {
	payload := hsmodels.RawSensorPayload{
		DeviceID:    "dev-1",
		PH:          f(0),
		Turbidity:   f(4000),
		TDS:         f(0),
		Temperature: f(-10),
	}

	reading := ValidateReading(payload, time.Now())

	assert.Equal(t, 4, reading.FieldCount())
	assert.Equal(t, 0.0, *reading.PH)
	assert.Equal(t, 4000.0, *reading.Turbidity)
	assert.Equal(t, -10.0, *reading.Temperature)
}

func TestValidateReading_MissingFieldsStayNil(t *testing.T) {
	payload := hsmodels.RawSensorPayload{DeviceID: "dev-1", PH: f(6.8)}

	reading := ValidateReading(payload, time.Now())

	assert.Equal(t, 1, reading.FieldCount())
	assert.Nil(t, reading.Turbidity)
	assert.Nil(t, reading.TDS)
	assert.Nil(t, reading.Temperature)
}

func TestValidateReading_DeviceTimestampPreferred(t *testing.T) {
	deviceTS := time.Date(2025, 6, 1, 11, 58, 0, 0, time.UTC)
	receivedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := hsmodels.RawSensorPayload{DeviceID: "dev-1", Timestamp: &deviceTS}

	reading := ValidateReading(payload, receivedAt)

	assert.Equal(t, deviceTS, reading.Timestamp)
}

func TestIsKnownSensorType(t *testing.T) {
	assert.True(t, IsKnownSensorType("ph"))
	assert.True(t, IsKnownSensorType("turbidity"))
	assert.True(t, IsKnownSensorType("tds"))
	assert.True(t, IsKnownSensorType("temperature"))
	assert.False(t, IsKnownSensorType("salinity"))
	assert.False(t, IsKnownSensorType(""))
}
