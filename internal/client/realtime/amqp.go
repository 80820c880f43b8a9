package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/logging"
)

// AMQPSource consumes notification payloads from a broker queue. The queue
// is declared non-durable and auto-deleted with the consumer.
type AMQPSource struct {
	url   string
	queue string
	log   logging.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
	done chan struct{}
}

func NewAMQPSource(url, queue string, log logging.Logger) *AMQPSource {
	return &AMQPSource{url: url, queue: queue, log: logging.OrNop(log).With("component", "realtime")}
}

func (s *AMQPSource) Capability() Capability { return CapabilityPush }

// Register dials the broker and starts delivering to h. A dial failure is
// returned; the caller keeps polling.
func (s *AMQPSource) Register(h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return ErrAlreadyRegistered
	}

	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("realtime: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("realtime: channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		s.queue,
		false, // durable
		true,  // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("realtime: declare %q: %w", s.queue, err)
	}
	deliveries, err := ch.Consume(
		s.queue,
		"",    // consumer tag chosen by the broker
		true,  // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("realtime: consume %q: %w", s.queue, err)
	}

	s.conn, s.ch = conn, ch
	s.done = make(chan struct{})
	go s.pump(deliveries, h, s.done)
	return nil
}

func (s *AMQPSource) pump(deliveries <-chan amqp.Delivery, h Handler, done chan struct{}) {
	defer close(done)
	for d := range deliveries {
		h(Event{Payload: d.Body, ReceivedAt: time.Now()})
	}
	s.log.Info(context.Background(), "realtime consumer stopped", "queue", s.queue)
}

// Unregister closes the broker connection and waits for the consumer to
// drain.
func (s *AMQPSource) Unregister() {
	s.mu.Lock()
	conn, done := s.conn, s.done
	s.conn, s.ch, s.done = nil, nil, nil
	s.mu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		s.log.Warn(context.Background(), "realtime close failed", "error", err)
	}
	<-done
}
