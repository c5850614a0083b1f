package notifier

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
)

// NewAMQPPublisher publisher в RabbitMQ с durable очередями
func NewAMQPPublisher(url string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	config := amqp.NewDurablePubSubConfig(url, amqp.GenerateQueueNameTopicNameWithSuffix("reservation"))
	publisher, err := amqp.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: amqp: %v", ErrTransport, err)
	}
	return publisher, nil
}

// NewGoChannel in-process pub/sub для локального запуска и тестов
func NewGoChannel(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
}

// RunLogSink подписывается на топик и пишет уведомления в лог
// Используется с gochannel, когда внешнего потребителя нет. Блокируется до отмены ctx
func RunLogSink(ctx context.Context, subscriber message.Subscriber, topic string, logger Logger) error {
	if topic == "" {
		topic = DefaultTopic
	}
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("%w: subscribe %s: %v", ErrTransport, topic, err)
	}

	for msg := range messages {
		var payload Payload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			logger.Warn("RunLogSink: malformed message %s: %v", msg.UUID, err)
			msg.Ack()
			continue
		}
		bookingID := int64(0)
		if payload.Booking != nil {
			bookingID = payload.Booking.ID
		}
		logger.Info("RunLogSink: %s for user=%d, booking=%d", payload.Event, payload.RecipientUserID, bookingID)
		msg.Ack()
	}
	return nil
}
