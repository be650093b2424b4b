package interfaces

import (
	"context"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type FirmwareRepository interface {
	// CreateVersion persists an immutable firmware record. Inserting a
	// version string that already exists fails.
	CreateVersion(ctx context.Context, fw hsmodels.FirmwareVersion) error
	GetVersion(ctx context.Context, version string) (*hsmodels.FirmwareVersion, error)

	// ListVersions returns all firmware records, newest release first.
	ListVersions(ctx context.Context) ([]hsmodels.FirmwareVersion, error)
}
