// Package testutil provides shared fixtures for MolProp-Intelligence tests:
// a recording logger and deterministic miniature artifact sets.
package testutil

import (
	"strings"
	"sync"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
)

// LogEntry is a single captured log call.
type LogEntry struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field and whether it was present.
func (e LogEntry) Field(key string) (interface{}, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

type logStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

// RecordingLogger implements logging.Logger and keeps every entry in memory.
// Children from With and Named share the parent's store.
type RecordingLogger struct {
	store  *logStore
	name   string
	fields []logging.Field
}

// NewRecordingLogger returns an empty recorder.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{store: &logStore{}}
}

func (l *RecordingLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.entries = append(l.store.entries, LogEntry{Level: level, Logger: l.name, Message: msg, Fields: all})
}

func (l *RecordingLogger) Debug(msg string, fields ...logging.Field) { l.log("debug", msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...logging.Field)  { l.log("info", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...logging.Field)  { l.log("warn", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...logging.Field) { l.log("error", msg, fields) }

// Fatal records at fatal level without exiting.
func (l *RecordingLogger) Fatal(msg string, fields ...logging.Field) { l.log("fatal", msg, fields) }

func (l *RecordingLogger) With(fields ...logging.Field) logging.Logger {
	child := *l
	child.fields = append(append([]logging.Field(nil), l.fields...), fields...)
	return &child
}

func (l *RecordingLogger) Named(name string) logging.Logger {
	child := *l
	if l.name != "" {
		name = l.name + "." + name
	}
	child.name = name
	return &child
}

func (l *RecordingLogger) Sync() error { return nil }

// Entries returns a copy of everything recorded so far.
func (l *RecordingLogger) Entries() []LogEntry {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return append([]LogEntry(nil), l.store.entries...)
}

// Find returns the entries at level whose message contains substr.
func (l *RecordingLogger) Find(level, substr string) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether any entry matches Find(level, substr).
func (l *RecordingLogger) Has(level, substr string) bool {
	return len(l.Find(level, substr)) > 0
}

// Reset drops all entries.
func (l *RecordingLogger) Reset() {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.entries = nil
}

var _ logging.Logger = (*RecordingLogger)(nil)

//Personal.AI order the ending
