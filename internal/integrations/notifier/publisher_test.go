package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
)

type countingMetrics struct{ failed int }

func (m *countingMetrics) NotificationFailed() { m.failed++ }

type brokenPublisher struct{}

func (brokenPublisher) Publish(string, ...*message.Message) error { return errors.New("connection closed") }
func (brokenPublisher) Close() error                               { return nil }

func TestPublisher_Notify(t *testing.T) {
	pubSub := NewGoChannel(watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	messages, err := pubSub.Subscribe(ctx, DefaultTopic)
	require.NoError(t, err)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPublisher(pubSub, "", nil, logger.NewNop())
	p.now = func() time.Time { return at }

	code := "RST-20250301-7-0001"
	amount := 700.0
	err = p.Notify(ctx, domain.Notification{
		Event:           domain.EventRefundRequested,
		RecipientUserID: 42,
		Booking: &domain.Booking{
			ID: 5, Kind: domain.KindResort, Status: domain.StatusCancelled, ReferenceCode: &code,
			ServiceDate: at.Add(10 * time.Hour), GuestCount: 2, TotalPrice: 1000,
		},
		RefundAmount: &amount,
	})
	require.NoError(t, err)

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, "refund.requested", msg.Metadata.Get(MetadataEvent))

		var payload Payload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, "refund.requested", payload.Event)
		assert.Equal(t, int64(42), payload.RecipientUserID)
		require.NotNil(t, payload.Booking)
		assert.Equal(t, int64(5), payload.Booking.ID)
		assert.Equal(t, "cancelled", payload.Booking.Status)
		assert.Equal(t, &code, payload.Booking.ReferenceCode)
		require.NotNil(t, payload.RefundAmount)
		assert.Equal(t, 700.0, *payload.RefundAmount)
		assert.True(t, at.Equal(payload.OccurredAt))
	case <-ctx.Done():
		t.Fatal("notification was not delivered")
	}
}

func TestPublisher_NotifyFailure(t *testing.T) {
	m := &countingMetrics{}
	p := NewPublisher(brokenPublisher{}, "custom", m, logger.NewNop())

	err := p.Notify(context.Background(), domain.Notification{Event: domain.EventBookingCreated, RecipientUserID: 1})
	assert.ErrorIs(t, err, ErrPublish)
	assert.Equal(t, 1, m.failed)
}

func TestRunLogSink_StopsOnCancel(t *testing.T) {
	pubSub := NewGoChannel(watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunLogSink(ctx, pubSub, "", logger.NewNop()) }()

	p := NewPublisher(pubSub, "", nil, logger.NewNop())
	require.Eventually(t, func() bool {
		return p.Notify(context.Background(), domain.Notification{Event: domain.EventBookingCreated, RecipientUserID: 1}) == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("log sink did not stop")
	}
}
