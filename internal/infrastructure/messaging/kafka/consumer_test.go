package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ExpTrack/internal/testutil"
)

type mockKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockKafkaReader) commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*ProducerMessage
}

func (r *recordingPublisher) Publish(ctx context.Context, msg *ProducerMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func newTestConsumer(reader ReaderInterface, retry RetryConfig) *Consumer {
	return &Consumer{
		reader:   reader,
		config:   ConsumerConfig{Brokers: []string{"localhost:9092"}, GroupID: "g", Retry: retry},
		logger:   testutil.NewMockLogger(),
		handlers: make(map[string]MessageHandler),
		metrics:  &ConsumerMetrics{},
	}
}

func TestValidateConsumerConfig(t *testing.T) {
	valid := ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "g"}
	assert.NoError(t, ValidateConsumerConfig(valid))

	noGroup := valid
	noGroup.GroupID = ""
	assert.Error(t, ValidateConsumerConfig(noGroup))

	badReset := valid
	badReset.AutoOffsetReset = "middle"
	assert.Error(t, ValidateConsumerConfig(badReset))
}

func TestStart_AlreadyRunning(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{})
	c.running.Store(true)
	assert.Equal(t, ErrAlreadyRunning, c.Start(context.Background()))
}

func TestConsumeLoop_DispatchesAndCommits(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{
		{Topic: "a", Value: []byte("1"), Headers: []kafka.Header{{Key: "h", Value: []byte("x")}}},
		{Topic: "unknown", Value: []byte("2")},
	}}
	c := newTestConsumer(reader, RetryConfig{})

	got := make(chan *Message, 1)
	c.Subscribe("a", func(ctx context.Context, msg *Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, c.Start(context.Background()))

	select {
	case msg := <-got:
		assert.Equal(t, "1", string(msg.Value))
		assert.Equal(t, "x", msg.Headers["h"])
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}

	assert.Eventually(t, func() bool { return reader.commits() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
	assert.Equal(t, int64(1), c.Processed())
}

func TestProcessMessage_RetrySuccess(t *testing.T) {
	c := newTestConsumer(nil, RetryConfig{MaxRetries: 2, RetryBackoff: time.Millisecond})

	attempts := 0
	err := c.processMessage(context.Background(), &Message{}, func(ctx context.Context, msg *Message) error {
		attempts++
		if attempts < 2 {
			return errors.New("fail")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, int64(1), c.metrics.MessagesRetried.Load())
}

func TestProcessMessage_ExhaustedGoesToDeadLetter(t *testing.T) {
	c := newTestConsumer(nil, RetryConfig{MaxRetries: 1, RetryBackoff: time.Millisecond, DeadLetterTopic: TopicDeadLetter})
	dl := &recordingPublisher{}
	c.deadLetter = dl

	msg := &Message{Topic: TopicMetricsUpdated, Value: []byte("v"), Headers: map[string]string{}}
	err := c.processMessage(context.Background(), msg, func(ctx context.Context, msg *Message) error {
		return errors.New("boom")
	})

	assert.EqualError(t, err, "boom")
	require.Len(t, dl.msgs, 1)
	assert.Equal(t, TopicDeadLetter, dl.msgs[0].Topic)
	assert.Equal(t, TopicMetricsUpdated, dl.msgs[0].Headers["original_topic"])
	assert.Equal(t, "boom", dl.msgs[0].Headers["error_message"])
	assert.Empty(t, msg.Headers)
	assert.Equal(t, int64(1), c.metrics.MessagesDeadLettered.Load())
}

type countingInvalidator struct {
	calls    atomic.Int32
	projects []string
	err      error
}

func (c *countingInvalidator) Invalidate(ctx context.Context, projectID string) error {
	c.calls.Add(1)
	c.projects = append(c.projects, projectID)
	return c.err
}

func metricsMessage(t *testing.T, eventType string, payload interface{}) *Message {
	env, err := NewEventEnvelope(eventType, payload)
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return &Message{Topic: TopicMetricsUpdated, Value: data}
}

func TestMetricsUpdatedHandler(t *testing.T) {
	inv := &countingInvalidator{}
	h := NewMetricsUpdatedHandler(inv, testutil.NewMockLogger())
	ctx := context.Background()

	require.NoError(t, h(ctx, metricsMessage(t, EventTypeMetricsUpdated, MetricsUpdatedPayload{ProjectID: "p1"})))
	assert.Equal(t, []string{"p1"}, inv.projects)

	require.NoError(t, h(ctx, metricsMessage(t, "something.else", MetricsUpdatedPayload{ProjectID: "p2"})))
	require.NoError(t, h(ctx, metricsMessage(t, EventTypeMetricsUpdated, MetricsUpdatedPayload{})))
	require.NoError(t, h(ctx, &Message{Value: []byte("not json")}))
	assert.Equal(t, int32(1), inv.calls.Load())

	inv.err = errors.New("redis down")
	assert.Error(t, h(ctx, metricsMessage(t, EventTypeMetricsUpdated, MetricsUpdatedPayload{ProjectID: "p1"})))
}

//Personal.AI order the ending
