package interfaces

import (
	"context"
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type ReadingRepository interface {
	InsertReading(ctx context.Context, reading hsmodels.SensorReading) error
	GetReadingsByDevice(ctx context.Context, deviceID string, limit, offset int) ([]hsmodels.SensorReading, error)
	GetReadingsByTimeRange(ctx context.Context, deviceID string, start, end time.Time, limit, offset int) ([]hsmodels.SensorReading, error)
	GetLatestReading(ctx context.Context, deviceID string) (*hsmodels.SensorReading, error)
}
