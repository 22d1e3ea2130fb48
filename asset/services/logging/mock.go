/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// Ensure MockLogger satisfies the Logger interface
var _ Logger = (*MockLogger)(nil)

// MockLogger records every line it is asked to log.
type MockLogger struct {
	mu    sync.Mutex
	lines []string
}

func (m *MockLogger) record(level string, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, level+": "+msg)
}

// Lines returns a copy of the recorded lines.
func (m *MockLogger) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// Contains reports whether any recorded line contains s.
func (m *MockLogger) Contains(s string) bool {
	for _, l := range m.Lines() {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

func (m *MockLogger) Debug(args ...interface{}) { m.record("DEBUG", fmt.Sprint(args...)) }

func (m *MockLogger) Debugf(format string, args ...interface{}) {
	m.record("DEBUG", fmt.Sprintf(format, args...))
}

func (m *MockLogger) Error(args ...interface{}) { m.record("ERROR", fmt.Sprint(args...)) }

func (m *MockLogger) Errorf(format string, args ...interface{}) {
	m.record("ERROR", fmt.Sprintf(format, args...))
}

func (m *MockLogger) Fatal(args ...interface{}) { m.record("FATAL", fmt.Sprint(args...)) }

func (m *MockLogger) Fatalf(format string, args ...interface{}) {
	m.record("FATAL", fmt.Sprintf(format, args...))
}

func (m *MockLogger) Info(args ...interface{}) { m.record("INFO", fmt.Sprint(args...)) }

func (m *MockLogger) Infof(format string, args ...interface{}) {
	m.record("INFO", fmt.Sprintf(format, args...))
}

func (m *MockLogger) Panic(args ...interface{}) { m.record("PANIC", fmt.Sprint(args...)) }

func (m *MockLogger) Panicf(format string, args ...interface{}) {
	m.record("PANIC", fmt.Sprintf(format, args...))
}

func (m *MockLogger) Warn(args ...interface{}) { m.record("WARN", fmt.Sprint(args...)) }

func (m *MockLogger) Warnf(format string, args ...interface{}) {
	m.record("WARN", fmt.Sprintf(format, args...))
}

func (m *MockLogger) IsEnabledFor(zapcore.Level) bool { return true }
