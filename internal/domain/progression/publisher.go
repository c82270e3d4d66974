package progression

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/immersionlab/backend/pkg/pubsub"
	"github.com/immersionlab/backend/pkg/xcontext"
)

// EventPublisher delivers committed progression events to the presentation
// layer. Events are only logged if no publisher is configured.
type EventPublisher struct {
	publisher pubsub.Publisher
	topic     string
	node      *snowflake.Node
}

func NewEventPublisher(publisher pubsub.Publisher, topic string, nodeID int64) (*EventPublisher, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &EventPublisher{publisher: publisher, topic: topic, node: node}, nil
}

// Publish assigns an id to every event and sends them keyed by user, so the
// events of a user keep their order. A failed event is logged and skipped.
func (p *EventPublisher) Publish(ctx context.Context, events []Event) []Event {
	for i := range events {
		events[i].ID = p.node.Generate().String()

		if p.publisher == nil {
			xcontext.Logger(ctx).Infof("Progression event %s of user %s: %s",
				events[i].Type, events[i].UserID, events[i].ID)
			continue
		}

		b, err := json.Marshal(events[i])
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot marshal event %s: %v", events[i].ID, err)
			continue
		}

		err = p.publisher.Publish(ctx, p.topic, &pubsub.Pack{
			Key: []byte(events[i].UserID),
			Msg: b,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot publish event %s: %v", events[i].ID, err)
		}
	}

	return events
}
