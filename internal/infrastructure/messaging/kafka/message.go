package kafka

import (
	"context"
	"time"
)

// Message is a consumed record with headers flattened to strings.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMessage is a record to publish.  A zero Timestamp is stamped with
// the current time.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one message.  Returning an error triggers retry.
type MessageHandler func(ctx context.Context, msg *Message) error

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
}

//Personal.AI order the ending
