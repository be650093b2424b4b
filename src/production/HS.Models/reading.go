package hsmodels

import "time"

// RawSensorPayload is a reading exactly as it arrives from a device, before
// range validation. Each field is optional.
type RawSensorPayload struct {
	DeviceID       string                 `json:"device_id"`
	PH             *float64               `json:"ph,omitempty"`
	Turbidity      *float64               `json:"turbidity,omitempty"`
	TDS            *float64               `json:"tds,omitempty"`
	Temperature    *float64               `json:"temperature,omitempty"`
	Timestamp      *time.Time             `json:"timestamp,omitempty"`
	BatteryLevel   *float64               `json:"battery_level,omitempty"`
	SignalStrength *float64               `json:"signal_strength,omitempty"`
	Raw            map[string]interface{} `json:"-"`
}

// SensorReading is a validated reading. A nil field means the device did not
// report it or the reported value was out of physical range and was dropped.
// Immutable once stored.
type SensorReading struct {
	ID          string                 `json:"id" db:"id"`
	DeviceID    string                 `json:"device_id" db:"device_id"`
	Timestamp   time.Time              `json:"timestamp" db:"timestamp"`
	PH          *float64               `json:"ph,omitempty" db:"ph"`
	Turbidity   *float64               `json:"turbidity,omitempty" db:"turbidity"`
	TDS         *float64               `json:"tds,omitempty" db:"tds"`
	Temperature *float64               `json:"temperature,omitempty" db:"temperature"`
	RawData     map[string]interface{} `json:"raw_data,omitempty" db:"raw_data"`
}

// Sensor parameter names, used by alert rules and calibration payloads
const (
	ParameterPH          = "ph"
	ParameterTurbidity   = "turbidity"
	ParameterTDS         = "tds"
	ParameterTemperature = "temperature"
)

// Value returns the reading's value for a named parameter, or ok=false when
// the parameter is absent or unknown.
func (r *SensorReading) Value(parameter string) (float64, bool) {
	var v *float64
	switch parameter {
	case ParameterPH:
		v = r.PH
	case ParameterTurbidity:
		v = r.Turbidity
	case ParameterTDS:
		v = r.TDS
	case ParameterTemperature:
		v = r.Temperature
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// FieldCount returns how many of the four tracked parameters are present.
func (r *SensorReading) FieldCount() int {
	n := 0
	for _, v := range []*float64{r.PH, r.Turbidity, r.TDS, r.Temperature} {
		if v != nil {
			n++
		}
	}
	return n
}
