package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/config"
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
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg *ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) published() []*ProducerMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*ProducerMessage(nil), p.msgs...)
}

func newTestConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "test-group",
		Topics:  []string{"jobs"},
		RetryConfig: RetryConfig{
			MaxRetries:      2,
			RetryBackoff:    time.Millisecond,
			DeadLetterTopic: "jobs.dlq",
		},
	}
}

func TestValidateConsumerConfig(t *testing.T) {
	assert.NoError(t, ValidateConsumerConfig(newTestConsumerConfig()))

	cfg := newTestConsumerConfig()
	cfg.Brokers = nil
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = newTestConsumerConfig()
	cfg.GroupID = ""
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = newTestConsumerConfig()
	cfg.Topics = nil
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = newTestConsumerConfig()
	cfg.AutoOffsetReset = "middle"
	assert.Error(t, ValidateConsumerConfig(cfg))
}

func TestConsumerConfigFrom(t *testing.T) {
	cfg := ConsumerConfigFrom(config.KafkaConfig{
		Brokers:      []string{"k:9092"},
		GroupID:      "g",
		JobsTopic:    "jobs",
		DLQTopic:     "dlq",
		MaxRetries:   5,
		RetryBackoff: time.Second,
	})
	assert.Equal(t, []string{"jobs"}, cfg.Topics)
	assert.Equal(t, "dlq", cfg.RetryConfig.DeadLetterTopic)
	assert.Equal(t, 5, cfg.RetryConfig.MaxRetries)
}

func TestNewRetryBackOff(t *testing.T) {
	bo := newRetryBackOff(RetryConfig{RetryBackoff: 10 * time.Millisecond, MaxRetryBackoff: 50 * time.Millisecond})
	var got []time.Duration
	for i := 0; i < 5; i++ {
		got = append(got, bo.NextBackOff())
	}
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond,
		50 * time.Millisecond, 50 * time.Millisecond,
	}, got)

	defaults := newRetryBackOff(RetryConfig{})
	assert.Equal(t, time.Second, defaults.NextBackOff())
	assert.Equal(t, 30*time.Second, defaults.MaxInterval)
}

func TestStart_AlreadyRunning(t *testing.T) {
	c := NewConsumerWithReader(&mockKafkaReader{}, newTestConsumerConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	assert.ErrorIs(t, c.Start(ctx), ErrAlreadyRunning)
	require.NoError(t, c.Close())
}

func TestConsume_HandlesAndCommits(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{
		Topic:   "jobs",
		Key:     []byte("k"),
		Value:   []byte("value"),
		Headers: []kafka.Header{{Key: "trace", Value: []byte("t1")}},
	}}}
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), nil, nil)

	got := make(chan *Message, 1)
	c.Subscribe("jobs", func(ctx context.Context, msg *Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, c.Start(context.Background()))

	select {
	case msg := <-got:
		assert.Equal(t, "value", string(msg.Value))
		assert.Equal(t, "t1", msg.Headers["trace"])
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}
	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
	processed, failed, _ := c.Stats()
	assert.Equal(t, int64(1), processed)
	assert.Equal(t, int64(0), failed)
}

func TestConsume_RetryThenSucceed(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Topic: "jobs", Value: []byte("v")}}}
	dlq := &recordingPublisher{}
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), dlq, nil)

	var calls atomic.Int32
	c.Subscribe("jobs", func(ctx context.Context, msg *Message) error {
		if calls.Add(1) < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, dlq.published())
}

func TestConsume_DeadLettersAfterRetries(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{
		Topic:   "jobs",
		Key:     []byte("job-9"),
		Value:   []byte("bad"),
		Headers: []kafka.Header{{Key: "trace", Value: []byte("t9")}},
	}}}
	dlq := &recordingPublisher{}
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), dlq, nil)

	var calls atomic.Int32
	c.Subscribe("jobs", func(ctx context.Context, msg *Message) error {
		calls.Add(1)
		return errors.New("poison")
	})
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(3), calls.Load())
	msgs := dlq.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "jobs.dlq", msgs[0].Topic)
	assert.Equal(t, "job-9", string(msgs[0].Key))
	assert.Equal(t, "jobs", msgs[0].Headers[HeaderOriginalTopic])
	assert.Equal(t, "poison", msgs[0].Headers[HeaderErrorMessage])
	assert.Equal(t, "3", msgs[0].Headers[HeaderAttempts])
	assert.Equal(t, "t9", msgs[0].Headers["trace"])

	_, failed, deadLettered := c.Stats()
	assert.Equal(t, int64(1), failed)
	assert.Equal(t, int64(1), deadLettered)
}

func TestConsume_UnroutedTopicIsCommitted(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Topic: "other", Value: []byte("v")}}}
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), nil, nil)
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
}

func TestClose_NotStarted(t *testing.T) {
	reader := &mockKafkaReader{}
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), nil, nil)
	assert.NoError(t, c.Close())
	assert.False(t, reader.closed)
}

//Personal.AI order the ending
