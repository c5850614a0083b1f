// Package notifier publishes booking events to the notification topic.
// Delivery (email, push) is done by downstream consumers.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// DefaultTopic топик уведомлений
const DefaultTopic = "reservation.notifications"

// MetadataEvent ключ метаданных с типом события
const MetadataEvent = "event"

// Publisher публикует уведомления через watermill
type Publisher struct {
	publisher message.Publisher
	topic     string
	metrics   Metrics
	logger    Logger
	now       func() time.Time
}

// NewPublisher создает publisher уведомлений, metrics может быть nil
func NewPublisher(publisher message.Publisher, topic string, metrics Metrics, logger Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Publisher{
		publisher: publisher,
		topic:     topic,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Notify сериализует и публикует уведомление
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(toPayload(n, p.now()))
	if err != nil {
		p.metrics.NotificationFailed()
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetadataEvent, string(n.Event))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.metrics.NotificationFailed()
		p.logger.Error("Notify: failed to publish %s for user=%d: %v", n.Event, n.RecipientUserID, err)
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	p.logger.Info("Notify: published %s for user=%d, message=%s", n.Event, n.RecipientUserID, msg.UUID)
	return nil
}

// Close закрывает транспорт
func (p *Publisher) Close() error {
	return p.publisher.Close()
}

type noopMetrics struct{}

func (noopMetrics) NotificationFailed() {}
