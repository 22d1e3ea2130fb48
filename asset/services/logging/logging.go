/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"go.uber.org/zap/zapcore"
)

const loggerNameSeparator = "."

// Logger provides logging API
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Panic(args ...interface{})
	Panicf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	IsEnabledFor(level zapcore.Level) bool
}

// Log levels.
const (
	SILENT = "SILENT"
	DEBUG  = "DEBUG"
	INFO   = "INFO"
	WARN   = "WARN"
	ERROR  = "ERROR"
	FATAL  = "FATAL"
)

// DefaultLevel is used when no level, or an unsupported one, is configured.
const DefaultLevel = INFO

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "%{color}%{time:2006-01-02 15:04:05.000 MST} [%{module}] %{shortfunc} -> %{level:.4s} %{color:reset} %{message}"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = FormatConsole

// MustGetLogger returns the logger registered under the passed name parts, joined by dots.
// Empty parts are skipped.
func MustGetLogger(parts ...string) Logger {
	return flogging.MustGetLogger(loggerName(parts...))
}

// Init configures the global fabric logging backend.
func Init(level, format string) {
	initWithWriter(level, format, os.Stderr)
}

func initWithWriter(level, format string, w io.Writer) {
	level = strings.ToUpper(level)
	if !slices.Contains(supportedLevels(), level) {
		if len(level) != 0 {
			fmt.Fprintf(w, "Incorrect logging level '%s', fallback to default value '%s'\n", level, DefaultLevel)
		}
		level = DefaultLevel
	}
	if len(format) == 0 {
		format = DefaultFormat
	}
	if level == SILENT {
		// flogging has no silent level, errors above fatal are never emitted
		level = "PANIC"
	}

	flogging.Init(flogging.Config{
		Format:  format,
		Writer:  w,
		LogSpec: strings.ToLower(level),
	})
}

func supportedLevels() []string {
	return []string{SILENT, DEBUG, INFO, WARN, ERROR, FATAL}
}

func isEmptyString(s string) bool { return len(s) == 0 }

func loggerName(parts ...string) string {
	return strings.Join(slices.DeleteFunc(slices.Clone(parts), isEmptyString), loggerNameSeparator)
}
