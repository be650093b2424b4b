package interfaces

import (
	"context"
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type QualityRepository interface {
	// RecordReading folds one reading into the device's row for the given
	// day, creating it if absent. Atomic single-statement upsert.
	RecordReading(ctx context.Context, deviceID string, day time.Time, valid bool) error
	GetMetric(ctx context.Context, deviceID string, day time.Time) (*hsmodels.DataQualityMetric, error)
}
