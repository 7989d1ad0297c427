package kafka

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/config"
	apperrors "github.com/turtacn/MolProp-Intelligence/pkg/errors"
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

func (m *mockKafkaWriter) Stats() kafka.WriterStats { return kafka.WriterStats{} }

func newTestProducer(w WriterInterface) *Producer {
	return NewProducerWithWriter(w, ProducerConfig{Brokers: []string{"localhost:9092"}}, nil)
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"k:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"k:9092"}, MaxRetries: -1}))
}

func TestProducerConfigFrom(t *testing.T) {
	cfg := ProducerConfigFrom(config.KafkaConfig{Brokers: []string{"a:9092"}, MaxRetries: 2})
	assert.Equal(t, []string{"a:9092"}, cfg.Brokers)
	assert.Equal(t, "all", cfg.Acks)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestPublish_Success(t *testing.T) {
	var captured []kafka.Message
	p := newTestProducer(&mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			captured = msgs
			return nil
		},
	})
	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   "jobs",
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: map[string]string{"h": "1"},
	})
	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, "jobs", captured[0].Topic)
	assert.Equal(t, "k", string(captured[0].Key))
	assert.Equal(t, "v", string(captured[0].Value))
	assert.Equal(t, []kafka.Header{{Key: "h", Value: []byte("1")}}, captured[0].Headers)
	assert.False(t, captured[0].Time.IsZero())
	assert.Equal(t, int64(1), p.Sent())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	err := p.Publish(ctx, &ProducerMessage{Value: []byte("v")})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	err = p.Publish(ctx, &ProducerMessage{Topic: "t"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	err = p.Publish(ctx, &ProducerMessage{Topic: "t", Value: []byte(strings.Repeat("x", 1024*1024+1))})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
	assert.Equal(t, int64(0), p.Sent())
}

func TestPublish_WriterFailure(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			return errors.New("write failed")
		},
	})
	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMessageError))
	assert.Equal(t, int64(1), p.metrics.MessagesFailed.Load())
}

func TestPublishJSON(t *testing.T) {
	var captured kafka.Message
	p := newTestProducer(&mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			captured = msgs[0]
			return nil
		},
	})
	err := p.PublishJSON(context.Background(), "results", "job-1", map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, "job-1", string(captured.Key))
	assert.JSONEq(t, `{"n":1}`, string(captured.Value))
	assert.Equal(t, "content_type", captured.Headers[0].Key)

	err = p.PublishJSON(context.Background(), "results", "k", func() {})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMessageError))
}

func TestProducerClose(t *testing.T) {
	closes := 0
	p := newTestProducer(&mockKafkaWriter{
		closeFunc: func() error {
			closes++
			return nil
		},
	})
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, closes)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.ErrorIs(t, err, ErrProducerClosed)
}

//Personal.AI order the ending
