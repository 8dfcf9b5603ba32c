package notification

import (
	"context"
	"time"

	Logger "github.com/Luismorlan/contentmux/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultTopic = "content.notification"

// WatermillPublisher publishes notifications as JSON messages on one topic of
// any watermill publisher.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewWatermillPublisher(publisher message.Publisher, topic string) *WatermillPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &WatermillPublisher{publisher: publisher, topic: topic}
}

func (p *WatermillPublisher) Publish(ctx context.Context, n Notification) error {
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now()
	}
	data, err := n.Marshal()
	if err != nil {
		return errors.Wrap(err, "fail to marshal notification")
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(PartitionKeyMetadata, n.Key)
	msg.Metadata.Set(EventNameMetadata, n.EventName)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return errors.Wrap(err, "fail to publish notification "+n.EventName)
	}
	return nil
}

// Consume hands every notification on topic to handle until ctx is done or
// the subscription closes. Messages that fail to decode or to handle are
// nacked.
func Consume(ctx context.Context, subscriber message.Subscriber, topic string, handle func(Notification) error) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return errors.Wrap(err, "fail to subscribe to "+topic)
	}
	for msg := range messages {
		n, err := Unmarshal(msg.Payload)
		if err == nil {
			err = handle(n)
		}
		if err != nil {
			Logger.Log.WithFields(logrus.Fields{"message": msg.UUID, "topic": topic}).WithError(err).Error("fail to handle notification")
			msg.Nack()
			continue
		}
		msg.Ack()
	}
	return nil
}
