package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// RetryConfig defines handler retry behavior.
type RetryConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
}

// ConsumerConfig configures a group reader.
type ConsumerConfig struct {
	Brokers         []string       `mapstructure:"brokers"`
	GroupID         string         `mapstructure:"group_id"`
	Topics          []string       `mapstructure:"topics"`
	AutoOffsetReset string         `mapstructure:"auto_offset_reset"`
	MaxWait         time.Duration  `mapstructure:"max_wait"`
	Security        SecurityConfig `mapstructure:"security"`
	Retry           RetryConfig    `mapstructure:"retry"`
}

// ConsumerMetrics holds consumer counters.
type ConsumerMetrics struct {
	MessagesConsumed     atomic.Int64
	MessagesProcessed    atomic.Int64
	MessagesFailed       atomic.Int64
	MessagesRetried      atomic.Int64
	MessagesDeadLettered atomic.Int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// publisher is the dead-letter sink.
type publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
	Close() error
}

// Consumer dispatches fetched messages to per-topic handlers.  A message is
// committed once its handler succeeds or its retries are exhausted.
type Consumer struct {
	reader ReaderInterface
	config ConsumerConfig
	logger logging.Logger

	handlers map[string]MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	deadLetter publisher
	metrics    *ConsumerMetrics
}

func NewConsumer(cfg ConsumerConfig, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = time.Second
	}

	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	tlsConfig, err := cfg.Security.tlsConfig()
	if err != nil {
		return nil, err
	}
	dialer.TLS = tlsConfig
	mech, err := cfg.Security.mechanism()
	if err != nil {
		return nil, err
	}
	dialer.SASLMechanism = mech

	readerCfg := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
		Dialer:      dialer,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	c := &Consumer{
		reader:   kafka.NewReader(readerCfg),
		config:   cfg,
		logger:   logger,
		handlers: make(map[string]MessageHandler),
		metrics:  &ConsumerMetrics{},
	}

	if cfg.Retry.DeadLetterTopic != "" {
		p, err := NewProducer(ProducerConfig{Brokers: cfg.Brokers, Security: cfg.Security}, logger)
		if err != nil {
			return nil, err
		}
		c.deadLetter = p
	}
	return c, nil
}

func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Start runs the fetch loop in a goroutine until ctx is done or Close.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("Kafka consumer started", logging.String("group", c.config.GroupID))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("FetchMessage error", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.metrics.MessagesConsumed.Add(1)

		msg := &Message{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
			Timestamp: m.Time,
			Headers:   make(map[string]string, len(m.Headers)),
		}
		for _, h := range m.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
		} else if err := c.processMessage(ctx, msg, handler); err == nil {
			c.metrics.MessagesProcessed.Add(1)
		} else {
			c.metrics.MessagesFailed.Add(1)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("CommitMessages failed", logging.Err(err))
		}
	}
}

// processMessage retries handler with exponential backoff.  When retries are
// exhausted the message goes to the dead-letter topic, if configured, and the
// last handler error is returned.
func (c *Consumer) processMessage(ctx context.Context, msg *Message, handler MessageHandler) error {
	err := handler(ctx, msg)
	if err == nil {
		return nil
	}

	maxRetries := c.config.Retry.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	backoff := c.config.Retry.RetryBackoff
	if backoff == 0 {
		backoff = time.Second
	}
	maxBackoff := c.config.Retry.MaxRetryBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	for i := 0; i < maxRetries; i++ {
		c.metrics.MessagesRetried.Add(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	c.logger.Error("Message processing failed after retries",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))

	if c.deadLetter != nil && c.config.Retry.DeadLetterTopic != "" {
		headers := make(map[string]string, len(msg.Headers)+2)
		for k, v := range msg.Headers {
			headers[k] = v
		}
		headers["original_topic"] = msg.Topic
		headers["error_message"] = err.Error()
		dl := &ProducerMessage{
			Topic:   c.config.Retry.DeadLetterTopic,
			Key:     msg.Key,
			Value:   msg.Value,
			Headers: headers,
		}
		if dlErr := c.deadLetter.Publish(ctx, dl); dlErr != nil {
			c.logger.Error("Failed to send to dead letter queue", logging.Err(dlErr))
		} else {
			c.metrics.MessagesDeadLettered.Add(1)
		}
	}
	return err
}

func (c *Consumer) Processed() int64 {
	return c.metrics.MessagesProcessed.Load()
}

// Close stops the loop and waits for it.  Repeated calls are no-ops.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	if c.deadLetter != nil {
		c.deadLetter.Close()
	}
	c.logger.Info("Kafka consumer closed", logging.Int64("consumed", c.metrics.MessagesConsumed.Load()))
	return err
}

func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "Brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "GroupID required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.New(errors.ErrCodeValidation, "Invalid AutoOffsetReset")
	}
	if cfg.Retry.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	return cfg.Security.validate()
}

//Personal.AI order the ending
