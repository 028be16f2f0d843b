package messaging

import (
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/config"
)

// Topology describes where back-office events go. Events are published to a
// topic exchange with the event type as routing key; the queue receives
// every key matching Bindings.
type Topology struct {
	Exchange string
	Queue    string
	Bindings []string
}

// DefaultBindings routes booking and cleaning events into the queue.
var DefaultBindings = []string{"booking.#", "cleaning.#"}

// RabbitMQBroker implements ports.EventPublisher with publisher confirms, so
// an event only counts as published once the broker has taken it.
type RabbitMQBroker struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	topology Topology
	cb       *gobreaker.CircuitBreaker

	// a channel in confirm mode must not be shared by concurrent publishers
	mu sync.Mutex
}

func NewRabbitMQBroker(amqpURL string, topology Topology) (*RabbitMQBroker, error) {
	if len(topology.Bindings) == 0 {
		topology.Bindings = DefaultBindings
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declare(ch, topology); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	return &RabbitMQBroker{
		conn:     conn,
		ch:       ch,
		topology: topology,
		cb:       config.NewCircuitBreaker(config.BreakerRabbitMQ),
	}, nil
}

// declare sets up the exchange, the queue and its bindings. All three calls
// are idempotent.
func declare(ch *amqp.Channel, t Topology) error {
	if err := ch.ExchangeDeclare(t.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	for _, key := range t.Bindings {
		if err := ch.QueueBind(t.Queue, key, t.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, t.Queue, err)
		}
	}
	return nil
}

// IsClosed reports whether the broker connection has gone away.
func (rmq *RabbitMQBroker) IsClosed() bool {
	return rmq.conn == nil || rmq.conn.IsClosed() || rmq.ch.IsClosed()
}

func (rmq *RabbitMQBroker) Close() error {
	if rmq.ch != nil && !rmq.ch.IsClosed() {
		if err := rmq.ch.Close(); err != nil {
			return err
		}
	}
	if rmq.conn != nil && !rmq.conn.IsClosed() {
		return rmq.conn.Close()
	}
	return nil
}
