package kafka_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/appraisal/internal/domain/event"
	"github.com/bibbank/appraisal/internal/infrastructure/kafka"
	pkgkafka "github.com/bibbank/appraisal/pkg/kafka"
	"github.com/bibbank/appraisal/pkg/testutil"
)

type mockProducer struct {
	publishFunc func(ctx context.Context, topic string, messages ...pkgkafka.Message) error
	topic       string
	messages    []pkgkafka.Message
}

func (m *mockProducer) Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, topic, messages...)
	}
	m.topic = topic
	m.messages = append(m.messages, messages...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEventPublisher_Publish(t *testing.T) {
	t.Run("sends one keyed message per event", func(t *testing.T) {
		producer := &mockProducer{}
		pub := kafka.NewEventPublisher(producer, "", discardLogger())

		err := pub.Publish(context.Background(),
			event.NewApplicationSubmitted("app-1", testutil.TestTenantID, "DEM-20240301-AB12", testutil.TestClientID),
			event.NewStatusChanged("app-1", testutil.TestTenantID, "DRAFT", "SUBMITTED"),
		)

		require.NoError(t, err)
		assert.Equal(t, kafka.DefaultTopic, producer.topic)
		require.Len(t, producer.messages, 2)
		msg := producer.messages[0]
		assert.Equal(t, []byte("app-1"), msg.Key)
		assert.Equal(t, event.TypeApplicationSubmitted, msg.Headers["event_type"])
		assert.Equal(t, testutil.TestTenantID, msg.Headers["tenant_id"])
		assert.NotEmpty(t, msg.Headers["event_id"])

		var body map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &body))
		assert.Equal(t, event.TypeApplicationSubmitted, body["event_type"])
		assert.Equal(t, "app-1", body["aggregate_id"])
	})

	t.Run("no events sends nothing", func(t *testing.T) {
		producer := &mockProducer{publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
			t.Fatal("producer must not be called")
			return nil
		}}
		pub := kafka.NewEventPublisher(producer, "custom", discardLogger())

		assert.NoError(t, pub.Publish(context.Background()))
	})

	t.Run("wraps producer failures", func(t *testing.T) {
		brokerDown := errors.New("broker down")
		producer := &mockProducer{publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
			return brokerDown
		}}
		pub := kafka.NewEventPublisher(producer, "custom", discardLogger())

		err := pub.Publish(context.Background(), event.NewApplicationCancelled("app-1", testutil.TestTenantID, "withdrawn"))

		assert.ErrorIs(t, err, brokerDown)
		assert.ErrorContains(t, err, "custom")
	})
}

func TestLogEventPublisher_Publish(t *testing.T) {
	var buf bytes.Buffer
	pub := kafka.NewLogEventPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := pub.Publish(context.Background(), event.NewApplicationRejected("app-9", testutil.TestTenantID, testutil.TestClientID, "over-indebted"))

	require.NoError(t, err)
	assert.Contains(t, buf.String(), event.TypeApplicationRejected)
	assert.Contains(t, buf.String(), "over-indebted")
}

func TestEventPublisher_Integration(t *testing.T) {
	ctx := context.Background()
	kc := testutil.NewKafkaContainer(ctx, t)

	producer, err := pkgkafka.NewProducer(pkgkafka.Config{Brokers: kc.Brokers})
	require.NoError(t, err)
	t.Cleanup(func() { _ = producer.Close() })

	pub := kafka.NewEventPublisher(producer, kafka.DefaultTopic, discardLogger())
	require.NoError(t, pub.Publish(ctx,
		event.NewApplicationSubmitted("app-1", testutil.TestTenantID, "DEM-20240301-AB12", testutil.TestClientID),
		event.NewApplicationPostponed("app-1", testutil.TestTenantID, "missing guarantor"),
	))

	msgs := kc.ReadMessages(t, kafka.DefaultTopic, 2, 30*time.Second)
	assert.Equal(t, "app-1", string(msgs[0].Key))
	assert.Equal(t, "app-1", string(msgs[1].Key))

	types := map[string]bool{}
	for _, m := range msgs {
		for _, h := range m.Headers {
			if h.Key == "event_type" {
				types[string(h.Value)] = true
			}
		}
	}
	assert.True(t, types[event.TypeApplicationSubmitted])
	assert.True(t, types[event.TypeApplicationPostponed])
}
