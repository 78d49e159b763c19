// Package testutil provides common test utilities for ExpTrack.
package testutil

import (
	"sync"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger for testing purposes.
// It records log messages and can be used to verify logging behavior.
type MockLogger struct {
	mu       *sync.Mutex
	name     string
	fields   []logging.Field
	Messages *[]LogMessage
}

// LogMessage represents a single log entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// NewMockLogger creates a new MockLogger instance.
func NewMockLogger() *MockLogger {
	msgs := make([]LogMessage, 0)
	return &MockLogger{mu: &sync.Mutex{}, Messages: &msgs}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := append(append([]logging.Field(nil), m.fields...), fields...)
	*m.Messages = append(*m.Messages, LogMessage{
		Level:   level,
		Logger:  m.name,
		Message: msg,
		Fields:  all,
	})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

// With returns a child sharing the same message sink.
func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	return &MockLogger{
		mu:       m.mu,
		name:     m.name,
		fields:   append(append([]logging.Field(nil), m.fields...), fields...),
		Messages: m.Messages,
	}
}

// Named returns a child sharing the same message sink.
func (m *MockLogger) Named(name string) logging.Logger {
	n := name
	if m.name != "" {
		n = m.name + "." + name
	}
	return &MockLogger{mu: m.mu, name: n, fields: m.fields, Messages: m.Messages}
}

// GetMessages returns a copy of all logged messages.
func (m *MockLogger) GetMessages() []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]LogMessage, len(*m.Messages))
	copy(result, *m.Messages)
	return result
}

// Clear removes all logged messages.
func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.Messages = (*m.Messages)[:0]
}

// HasMessage checks if a message with the given level and content was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	for _, logged := range m.GetMessages() {
		if logged.Level == level && logged.Message == msg {
			return true
		}
	}
	return false
}

// CountLevel returns how many messages were logged at level.
func (m *MockLogger) CountLevel(level string) int {
	n := 0
	for _, logged := range m.GetMessages() {
		if logged.Level == level {
			n++
		}
	}
	return n
}

//Personal.AI order the ending
