package kafka

import (
	"context"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resort/config"
)

type payload struct {
	Type string `json:"type"`
	To   string `json:"to"`
}

func TestMessage_Encode(t *testing.T) {
	msg := Message{Key: "guest@example.com", Value: payload{Type: "otp", To: "guest@example.com"}}

	record, err := msg.encode("resort.notifications")
	require.NoError(t, err)
	assert.Equal(t, "resort.notifications", record.Topic)
	assert.Equal(t, []byte("guest@example.com"), record.Key)
	assert.JSONEq(t, `{"type":"otp","to":"guest@example.com"}`, string(record.Value))
	assert.Equal(t, []kafkaGo.Header{{Key: headerContentType, Value: []byte(contentTypeJSON)}}, record.Headers)

	_, err = Message{Value: make(chan int)}.encode("resort.notifications")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	decoded, err := Decode[payload](kafkaGo.Message{Value: []byte(`{"type":"otp","to":"a@b.c"}`)})
	require.NoError(t, err)
	assert.Equal(t, payload{Type: "otp", To: "a@b.c"}, decoded)

	_, err = Decode[payload](kafkaGo.Message{Value: []byte(`not-json`)})
	assert.Error(t, err)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(0))
	assert.Equal(t, 4*time.Second, backoff(2))
	assert.Equal(t, backoffCap, backoff(5))
	assert.Equal(t, backoffCap, backoff(60))
}

func TestPublishRequiresTopic(t *testing.T) {
	client := New(&config.Config{})

	assert.ErrorIs(t, client.Publish(context.Background(), "", Message{Key: "k"}), ErrNoTopic)
	assert.ErrorIs(t, client.Consume(context.Background(), "", "", nil), ErrNoTopic)
}

func TestDeliver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Kafka.MaxAttempts = 1

	client := &kafkaClientImpl{config: cfg}

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		done := client.deliver(context.Background(), kafkaGo.Message{}, func(context.Context, kafkaGo.Message) error {
			calls++

			return assert.AnError
		})

		assert.True(t, done)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when the context ends during backoff", func(t *testing.T) {
		retrying := &kafkaClientImpl{config: &config.Config{}}
		retrying.config.Kafka.MaxAttempts = 3

		ctx, cancel := context.WithCancel(context.Background())

		done := retrying.deliver(ctx, kafkaGo.Message{}, func(context.Context, kafkaGo.Message) error {
			cancel()

			return assert.AnError
		})

		assert.False(t, done)
	})
}
