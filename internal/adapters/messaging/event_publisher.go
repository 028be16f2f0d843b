package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

// ErrNotAcknowledged means the broker nacked a publish. The outbox keeps the
// event pending and the relay retries it on the next sweep.
var ErrNotAcknowledged = errors.New("broker did not acknowledge event")

var _ ports.EventPublisher = (*RabbitMQBroker)(nil)

// PublishEvent sends the stored outbox payload as is, routed by event type,
// and waits for the broker's confirm.
func (rmq *RabbitMQBroker) PublishEvent(ctx context.Context, evt ports.OutboxEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := rmq.cb.Execute(func() (interface{}, error) {
		rmq.mu.Lock()
		defer rmq.mu.Unlock()

		confirm, err := rmq.ch.PublishWithDeferredConfirmWithContext(
			ctx,
			rmq.topology.Exchange,
			evt.EventType,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    evt.ID,
				Type:         evt.EventType,
				Timestamp:    time.Now(),
				Body:         evt.Payload,
			},
		)
		if err != nil {
			return nil, err
		}

		acked, err := confirm.WaitContext(ctx)
		if err != nil {
			return nil, err
		}
		if !acked {
			return nil, ErrNotAcknowledged
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("publish %s %s: %w", evt.EventType, evt.ID, err)
	}
	return nil
}
