package interfaces

import (
	"context"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type AlertRepository interface {
	// Rules are operator-managed; the evaluator only reads them. A rule with
	// a null device_id applies to every device.
	CreateRule(ctx context.Context, rule hsmodels.AlertRule) error
	GetActiveRulesForDevice(ctx context.Context, deviceID string) ([]hsmodels.AlertRule, error)

	// Alerts are append-only from this core.
	InsertAlert(ctx context.Context, alert hsmodels.Alert) error
	InsertAlerts(ctx context.Context, alerts []hsmodels.Alert) error
	GetAlertsByDevice(ctx context.Context, deviceID string, limit, offset int) ([]hsmodels.Alert, error)
}
