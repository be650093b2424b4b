package interfaces

import (
	"context"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

// MessageLogRepository records broker traffic for audit. Failures here are
// logged and never fail the request that produced the message.
type MessageLogRepository interface {
	InsertMessage(ctx context.Context, msg hsmodels.MQTTMessageLog) error
}
