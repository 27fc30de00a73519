package logger

import (
	"fmt"
	"maps"
	"sync"
)

type testLoggerStorage struct {
	mu      sync.RWMutex
	entries []TestLogEntry
}

// TestLogger keeps every entry in memory. Loggers derived through WithField(s)
// share the same storage as their parent.
type TestLogger struct {
	storage *testLoggerStorage
	fields  Fields
}

type TestLogEntry struct {
	Level   string
	Message string
	Fields  Fields
}

func NewTestLogger() *TestLogger {
	return &TestLogger{
		storage: &testLoggerStorage{},
		fields:  make(Fields),
	}
}

func (l *TestLogger) addEntry(level string, args []any) {
	l.storage.mu.Lock()
	defer l.storage.mu.Unlock()

	fields := make(Fields, len(l.fields))
	maps.Copy(fields, l.fields)

	l.storage.entries = append(l.storage.entries, TestLogEntry{
		Level:   level,
		Message: fmt.Sprint(args...),
		Fields:  fields,
	})
}

func (l *TestLogger) Trace(args ...any) { l.addEntry("trace", args) }
func (l *TestLogger) Debug(args ...any) { l.addEntry("debug", args) }
func (l *TestLogger) Info(args ...any)  { l.addEntry("info", args) }
func (l *TestLogger) Warn(args ...any)  { l.addEntry("warn", args) }
func (l *TestLogger) Error(args ...any) { l.addEntry("error", args) }
func (l *TestLogger) Fatal(args ...any) { l.addEntry("fatal", args) }

func (l *TestLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	maps.Copy(merged, l.fields)
	maps.Copy(merged, fields)

	return &TestLogger{
		storage: l.storage,
		fields:  merged,
	}
}

func (l *TestLogger) WithField(key string, value any) Logger {
	return l.WithFields(Fields{key: value})
}

func (l *TestLogger) WithError(err error) Logger {
	return l.WithFields(Fields{"error": err})
}

// Methods for testing

func (l *TestLogger) GetEntries() []TestLogEntry {
	l.storage.mu.RLock()
	defer l.storage.mu.RUnlock()
	return append([]TestLogEntry{}, l.storage.entries...)
}

func (l *TestLogger) Clear() {
	l.storage.mu.Lock()
	defer l.storage.mu.Unlock()
	l.storage.entries = nil
}

func (l *TestLogger) HasEntry(level, message string) bool {
	_, ok := l.FindEntry(level, message)
	return ok
}

func (l *TestLogger) FindEntry(level, message string) (TestLogEntry, bool) {
	for _, entry := range l.GetEntries() {
		if entry.Level == level && entry.Message == message {
			return entry, true
		}
	}
	return TestLogEntry{}, false
}

func (l *TestLogger) CountLevel(level string) int {
	count := 0
	for _, entry := range l.GetEntries() {
		if entry.Level == level {
			count++
		}
	}
	return count
}

func (l *TestLogger) CountEntries() int {
	l.storage.mu.RLock()
	defer l.storage.mu.RUnlock()
	return len(l.storage.entries)
}
