// Package kafka carries batch prediction jobs and their results over Kafka
// using segmentio/kafka-go.
package kafka

import (
	"context"
	"time"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMessage is a record to publish.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one message. A non-nil error triggers retries.
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher publishes single messages.
type Publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

// Header keys added to dead-lettered messages.
const (
	HeaderOriginalTopic = "original_topic"
	HeaderErrorMessage  = "error_message"
	HeaderAttempts      = "attempts"
)

//Personal.AI order the ending
