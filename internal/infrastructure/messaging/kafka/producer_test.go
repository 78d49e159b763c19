package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/internal/testutil"
	pkgerrors "github.com/turtacn/ExpTrack/pkg/errors"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closeFunc func() error
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func newTestProducer(w WriterInterface) *Producer {
	return &Producer{
		writer:  w,
		config:  ProducerConfig{Brokers: []string{"localhost:9092"}, MaxMessageBytes: 1024},
		logger:  testutil.NewMockLogger(),
		metrics: &ProducerMetrics{},
	}
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b"}, MaxRetries: -1}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{
		Brokers:  []string{"b"},
		Security: SecurityConfig{SASLEnabled: true, SASLMechanism: "PLAIN"},
	}))
}

func TestPublish_Success(t *testing.T) {
	var captured []kafka.Message
	p := newTestProducer(&mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			captured = msgs
			return nil
		},
	})

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Key: []byte("k"), Value: []byte("v")})
	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, "t", captured[0].Topic)
	assert.Equal(t, "k", string(captured[0].Key))
	assert.False(t, captured[0].Time.IsZero())
	assert.Equal(t, int64(1), p.Sent())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.True(t, pkgerrors.IsValidation(p.Publish(ctx, &ProducerMessage{Value: []byte("v")})))
	assert.True(t, pkgerrors.IsValidation(p.Publish(ctx, &ProducerMessage{Topic: "t"})))
	assert.True(t, pkgerrors.IsValidation(p.Publish(ctx, &ProducerMessage{Topic: "t", Value: make([]byte, 2048)})))
}

func TestPublish_Failure(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			return errors.New("write failed")
		},
	})
	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))
	assert.Equal(t, int64(1), p.Failed())
}

func TestPublish_AfterClose(t *testing.T) {
	closed := 0
	p := newTestProducer(&mockKafkaWriter{closeFunc: func() error { closed++; return nil }})
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, closed)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.Equal(t, ErrProducerClosed, err)
}

func TestViewEventPublisher(t *testing.T) {
	var captured []kafka.Message
	p := newTestProducer(&mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			captured = append(captured, msgs...)
			return nil
		},
	})
	p.config.MaxMessageBytes = 0
	pub := NewViewEventPublisher(p, "")

	view := &savedview.SavedView{ID: "v1", ProjectID: "proj", Name: "View 1"}
	require.NoError(t, pub.PublishViewEvent(context.Background(), savedview.NewEvent(savedview.EventCreated, view)))

	require.Len(t, captured, 1)
	assert.Equal(t, TopicViewEvents, captured[0].Topic)
	assert.Equal(t, "proj", string(captured[0].Key))

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(captured[0].Value, &env))
	assert.Equal(t, "view.created", env.EventType)

	var ev savedview.Event
	require.NoError(t, env.DecodePayload(&ev))
	assert.Equal(t, "v1", ev.ViewID)
	assert.Equal(t, "View 1", ev.Name)
}

//Personal.AI order the ending
