package hsmodels

import "time"

// DataQualityMetric accumulates per-device, per-day reading completeness.
// One row per device per calendar day, upserted incrementally; counters only
// reset by day rollover.
type DataQualityMetric struct {
	ID               string    `json:"id" db:"id"`
	DeviceID         string    `json:"device_id" db:"device_id"`
	MetricDate       string    `json:"metric_date" db:"metric_date"` // YYYY-MM-DD
	TotalReadings    int       `json:"total_readings" db:"total_readings"`
	ValidReadings    int       `json:"valid_readings" db:"valid_readings"`
	InvalidReadings  int       `json:"invalid_readings" db:"invalid_readings"`
	DataCompleteness float64   `json:"data_completeness" db:"data_completeness"`
	CalculatedAt     time.Time `json:"calculated_at" db:"calculated_at"`
}

// A reading counts as valid when it carries at least half of the four
// tracked parameters.
const minValidFields = 2

// IsValidReading reports whether a reading with the given number of present
// fields counts toward valid_readings.
func IsValidReading(fieldCount int) bool {
	return fieldCount >= minValidFields
}
