package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a logger implementation for testing that captures all log
// messages instead of writing them anywhere. Loggers derived with
// WithField/WithFields/WithError record into the same capture buffer.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	zerolog  zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{
		messages: make([]LogMessage, 0),
		zerolog:  zerolog.Nop(),
	}
}

func (l *TestLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

func (l *TestLogger) Debug(msg string) { l.record("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.record("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.record("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.record("ERROR", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.record("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.record("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.record("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.record("ERROR", msg, fields)
}

// WithField returns a derived logger sharing this logger's capture buffer
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a derived logger sharing this logger's capture buffer
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &testFieldLogger{root: l, fields: copied}
}

// WithError attaches an error field
func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// GetZerolog returns a no-op zerolog instance
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return &l.zerolog
}

// Messages returns all captured messages
func (l *TestLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasMessage reports whether a message with the given level and text was logged
func (l *TestLogger) HasMessage(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.Level == level && m.Message == msg {
			return true
		}
	}
	return false
}

// testFieldLogger carries accumulated fields and records into the root
// TestLogger's buffer.
type testFieldLogger struct {
	root   *TestLogger
	fields map[string]interface{}
}

func (l *testFieldLogger) merged(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (l *testFieldLogger) Debug(msg string) { l.root.record("DEBUG", msg, l.merged(nil)) }
func (l *testFieldLogger) Info(msg string)  { l.root.record("INFO", msg, l.merged(nil)) }
func (l *testFieldLogger) Warn(msg string)  { l.root.record("WARN", msg, l.merged(nil)) }
func (l *testFieldLogger) Error(msg string) { l.root.record("ERROR", msg, l.merged(nil)) }

func (l *testFieldLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.root.record("DEBUG", msg, l.merged(fields))
}

func (l *testFieldLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.root.record("INFO", msg, l.merged(fields))
}

func (l *testFieldLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.root.record("WARN", msg, l.merged(fields))
}

func (l *testFieldLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.root.record("ERROR", msg, l.merged(fields))
}

func (l *testFieldLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *testFieldLogger) WithFields(fields map[string]interface{}) Logger {
	return &testFieldLogger{root: l.root, fields: l.merged(fields)}
}

func (l *testFieldLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *testFieldLogger) GetZerolog() *zerolog.Logger {
	return l.root.GetZerolog()
}
