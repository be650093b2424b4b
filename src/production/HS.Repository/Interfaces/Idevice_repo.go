package interfaces

import (
	"context"
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

// TelemetryStatus is the device-side state carried on a telemetry message.
type TelemetryStatus struct {
	Status         string
	BatteryLevel   *float64
	SignalStrength *float64
	SeenAt         time.Time
}

type DeviceRepository interface {
	// Device registry
	UpsertDevice(ctx context.Context, device hsmodels.Device) error
	GetDevice(ctx context.Context, deviceID string) (*hsmodels.Device, error)
	ListDevices(ctx context.Context) ([]hsmodels.Device, error)
	ListActiveDevices(ctx context.Context) ([]hsmodels.Device, error)

	// Mutations driven by inbound traffic
	UpdateTelemetryStatus(ctx context.Context, deviceID string, status TelemetryStatus) error
	UpdateFromHeartbeat(ctx context.Context, hb hsmodels.DeviceHeartbeat) error
	UpdateStatus(ctx context.Context, deviceID, status string, seenAt time.Time) error

	// Heartbeat history
	InsertHeartbeat(ctx context.Context, hb hsmodels.DeviceHeartbeat) error
}
