package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	ErrKafkaBusy   = errors.New("kafka queue is full")
	ErrKafkaClosed = errors.New("kafka sink is closed")
)

const (
	kafkaQueueSize    = 256
	kafkaWriteTimeout = 10 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes change events to a Kafka topic, keyed by event subject so
// that changes to one record stay ordered within a partition. Send only queues
// the message; a single producer goroutine writes it.
type KafkaSink struct {
	writer messageWriter
	log    *zap.Logger
	queue  chan kafka.Message
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafkaSink(brokers []string, topic string, log *zap.Logger) *KafkaSink {
	return newKafkaSink(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}, log)
}

func newKafkaSink(writer messageWriter, log *zap.Logger) *KafkaSink {
	s := &KafkaSink{
		writer: writer,
		log:    log,
		queue:  make(chan kafka.Message, kafkaQueueSize),
		done:   make(chan struct{}),
	}
	go s.produce()
	return s
}

func (s *KafkaSink) produce() {
	defer close(s.done)

	for msg := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), kafkaWriteTimeout)
		err := s.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			s.log.Warn("kafka write failed",
				zap.String("key", string(msg.Key)),
				zap.Error(err))
		}
	}
}

// Send queues the event without waiting for the broker.
func (s *KafkaSink) Send(_ context.Context, event cloudevents.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	key := event.Subject()
	if key == "" {
		key = event.Type()
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  event.Time(),
		Headers: []kafka.Header{
			{Key: "ce_type", Value: []byte(event.Type())},
			{Key: "ce_id", Value: []byte(event.ID())},
			{Key: "content-type", Value: []byte("application/cloudevents+json")},
		},
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrKafkaClosed
	}
	select {
	case s.queue <- msg:
		return nil
	default:
		return ErrKafkaBusy
	}
}

// Close flushes the queued messages and closes the writer.
func (s *KafkaSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.writer.Close()
}
