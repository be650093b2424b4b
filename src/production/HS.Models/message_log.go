package hsmodels

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message log directions
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// MQTTMessageLog is one broker message, either direction, kept for audit and
// debugging. Append-only.
type MQTTMessageLog struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	DeviceID    string                 `bson:"device_id,omitempty" json:"device_id,omitempty"`
	Topic       string                 `bson:"topic" json:"topic"`
	MessageType string                 `bson:"message_type" json:"message_type"`
	Payload     map[string]interface{} `bson:"payload" json:"payload"`
	Direction   string                 `bson:"direction" json:"direction"`
	Processed   bool                   `bson:"processed" json:"processed"`
	ReceivedAt  time.Time              `bson:"received_at" json:"received_at"`
}
