package implementation

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

// MongoMessageLogRepository appends broker traffic to the mqtt_message_log
// collection. Inserts carry their own short timeout so a slow Mongo node
// never stalls the ingest path.
type MongoMessageLogRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageLogRepository(collection *mongo.Collection) *MongoMessageLogRepository {
	return &MongoMessageLogRepository{collection: collection}
}

func (r *MongoMessageLogRepository) InsertMessage(ctx context.Context, msg hsmodels.MQTTMessageLog) error {
	insertCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}
	msg.Payload = ensureMapNotNull(msg.Payload)

	_, err := r.collection.InsertOne(insertCtx, msg)
	return err
}
