// Package validator screens raw sensor payloads against the physical ranges
// of the water-quality probes before anything reaches storage.
package validator

import (
	"math"
	"time"

	"github.com/google/uuid"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type sensorRange struct {
	min float64
	max float64
}

// Physical measurement ranges per probe. Values outside these are sensor
// faults, not real water conditions.
var sensorRanges = map[string]sensorRange{
	hsmodels.ParameterPH:          {min: 0, max: 14},
	hsmodels.ParameterTurbidity:   {min: 0, max: 4000},
	hsmodels.ParameterTDS:         {min: 0, max: 2000},
	hsmodels.ParameterTemperature: {min: -10, max: 60},
}

// ValidateReading turns a raw payload into a storable reading. Each field is
// checked independently against its probe's physical range; out-of-range
// values are dropped rather than failing the whole reading. In-range values
// are rounded to 2 decimal places.
func ValidateReading(payload hsmodels.RawSensorPayload, receivedAt time.Time) hsmodels.SensorReading {
	ts := receivedAt
	if payload.Timestamp != nil {
		ts = *payload.Timestamp
	}

	return hsmodels.SensorReading{
		ID:          uuid.New().String(),
		DeviceID:    payload.DeviceID,
		Timestamp:   ts,
		PH:          validateField(hsmodels.ParameterPH, payload.PH),
		Turbidity:   validateField(hsmodels.ParameterTurbidity, payload.Turbidity),
		TDS:         validateField(hsmodels.ParameterTDS, payload.TDS),
		Temperature: validateField(hsmodels.ParameterTemperature, payload.Temperature),
		RawData:     payload.Raw,
	}
}

func validateField(parameter string, value *float64) *float64 {
	if value == nil {
		return nil
	}

	r := sensorRanges[parameter]
	if *value < r.min || *value > r.max {
		return nil
	}

	rounded := math.Round(*value*100) / 100
	return &rounded
}

// IsKnownSensorType reports whether the given name is one of the four
// tracked probe types. Calibration commands only accept these.
func IsKnownSensorType(sensorType string) bool {
	_, ok := sensorRanges[sensorType]
	return ok
}
