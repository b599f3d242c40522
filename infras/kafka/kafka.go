package kafka

//go:generate go run go.uber.org/mock/mockgen -source=./kafka.go -destination=./mocks/kafka_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"resort/config"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const (
	headerContentType = "content-type"
	contentTypeJSON   = "application/json"

	batchTimeout = 10 * time.Millisecond
	backoffBase  = time.Second
	backoffCap   = 30 * time.Second
)

var ErrNoTopic = errors.New("kafka topic is required")

// Message is a JSON encoded record. Key selects the partition.
type Message struct {
	Key   string
	Value any
}

func (m Message) encode(topic string) (kafkaGo.Message, error) {
	value, err := json.Marshal(m.Value)
	if err != nil {
		return kafkaGo.Message{}, fmt.Errorf("failed to encode message for %s: %w", topic, err)
	}

	return kafkaGo.Message{
		Topic:   topic,
		Key:     []byte(m.Key),
		Value:   value,
		Headers: []kafkaGo.Header{{Key: headerContentType, Value: []byte(contentTypeJSON)}},
	}, nil
}

// Decode unmarshals the JSON value of msg into T.
func Decode[T any](msg kafkaGo.Message) (T, error) {
	var value T

	if err := json.Unmarshal(msg.Value, &value); err != nil {
		return value, fmt.Errorf("failed to decode message at offset %d: %w", msg.Offset, err)
	}

	return value, nil
}

type Handler func(ctx context.Context, message kafkaGo.Message) error

type Client interface {
	Publish(ctx context.Context, topic string, messages ...Message) error
	Consume(ctx context.Context, consumerGroup, topic string, handler Handler) error
	Close() error
}

type kafkaClientImpl struct {
	config *config.Config
	dialer *kafkaGo.Dialer
	writer *kafkaGo.Writer
}

func New(cfg *config.Config) Client {
	dialer := &kafkaGo.Dialer{DualStack: true, Timeout: 10 * time.Second}
	transport := &kafkaGo.Transport{}

	if cfg.Kafka.SASL.Username != "" {
		mechanism := plain.Mechanism{
			Username: cfg.Kafka.SASL.Username,
			Password: cfg.Kafka.SASL.Password,
		}

		dialer.SASLMechanism = mechanism
		transport.SASL = mechanism
	}

	log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka client initialized")

	return &kafkaClientImpl{
		config: cfg,
		dialer: dialer,
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(cfg.Kafka.Brokers...),
			Transport:              transport,
			Balancer:               &kafkaGo.Hash{},
			BatchTimeout:           batchTimeout,
			RequiredAcks:           kafkaGo.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes the messages synchronously through the shared writer.
func (k *kafkaClientImpl) Publish(ctx context.Context, topic string, messages ...Message) error {
	if topic == "" {
		return ErrNoTopic
	}

	records := make([]kafkaGo.Message, len(messages))

	for i, message := range messages {
		record, err := message.encode(topic)
		if err != nil {
			return err
		}

		records[i] = record
	}

	if err := k.writer.WriteMessages(ctx, records...); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to publish to Kafka.")

		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	log.Debug().Str("topic", topic).Int("count", len(records)).Msg("Published to Kafka.")

	return nil
}

func (k *kafkaClientImpl) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}

	return nil
}

// Consume blocks until ctx is done. A message is committed once its handler
// succeeds or after MaxAttempts failed deliveries, whichever comes first.
func (k *kafkaClientImpl) Consume(ctx context.Context, consumerGroup, topic string, handler Handler) error {
	if topic == "" {
		return ErrNoTopic
	}

	if consumerGroup == "" {
		consumerGroup = k.config.Kafka.ConsumerGroup
	}

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:     k.config.Kafka.Brokers,
		Topic:       topic,
		GroupID:     consumerGroup,
		Dialer:      k.dialer,
		StartOffset: kafkaGo.FirstOffset,
	})

	defer func() {
		if err := reader.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Kafka reader.")
		}
	}()

	for fetchFailures := 0; ; {
		msg, err := reader.FetchMessage(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("Failed to fetch from Kafka.")

			if !sleep(ctx, backoff(fetchFailures)) {
				return nil
			}

			fetchFailures++

			continue
		}

		fetchFailures = 0

		if !k.deliver(ctx, msg, handler) {
			return nil
		}

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("topic", topic).Int64("offset", msg.Offset).Msg("Failed to commit Kafka message.")
		}
	}
}

// deliver runs the handler until it succeeds or the attempts run out. It
// returns false when ctx ends first.
func (k *kafkaClientImpl) deliver(ctx context.Context, msg kafkaGo.Message, handler Handler) bool {
	attempts := max(k.config.Kafka.MaxAttempts, 1)

	for attempt := range attempts {
		err := handler(ctx, msg)
		if err == nil {
			return true
		}

		logger := log.Error().Err(err).Str("topic", msg.Topic).Int64("offset", msg.Offset).Int("attempt", attempt+1)

		if attempt+1 == attempts {
			logger.Msg("Giving up on Kafka message.")

			return true
		}

		logger.Msg("Failed to handle Kafka message.")

		if !sleep(ctx, backoff(attempt)) {
			return false
		}
	}

	return true
}

func backoff(attempt int) time.Duration {
	delay := backoffBase << min(attempt, 5)

	return min(delay, backoffCap)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
