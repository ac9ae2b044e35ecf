// Package testutils provides small in-memory fakes shared by the package
// tests.
package testutils

import (
	"sync"

	"stratum/logger"
)

// Entry is one captured log call.
type Entry struct {
	Level  string
	Msg    string
	Fields []logger.Field
}

// MockLogger records every log call so tests can assert on the emitted
// events instead of parsing output.
type MockLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMockLogger() *MockLogger { return &MockLogger{} }

func (m *MockLogger) Info(msg string, fields ...logger.Field)  { m.record("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logger.Field)  { m.record("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logger.Field) { m.record("error", msg, fields) }

func (m *MockLogger) record(level, msg string, fields []logger.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Msg: msg, Fields: fields})
}

// Entries returns a copy of everything logged so far.
func (m *MockLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Has reports whether a message was logged at least once.
func (m *MockLogger) Has(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Msg == msg {
			return true
		}
	}
	return false
}

// Count returns how many times a message was logged.
func (m *MockLogger) Count(msg string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Msg == msg {
			n++
		}
	}
	return n
}
