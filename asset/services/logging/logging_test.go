/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLoggerName(t *testing.T) {
	assert.Equal(t, "asset.lifecycle", loggerName("asset", "", "lifecycle"))
	assert.Equal(t, "asset", loggerName("asset"))
	assert.Equal(t, "", loggerName())
}

func TestInitFallsBackToDefaultLevel(t *testing.T) {
	b := &bytes.Buffer{}
	initWithWriter("verbose", "", b)
	assert.Contains(t, b.String(), "Incorrect logging level 'VERBOSE'")

	logger := MustGetLogger("asset", "test")
	assert.True(t, logger.IsEnabledFor(zapcore.InfoLevel))
	assert.False(t, logger.IsEnabledFor(zapcore.DebugLevel))

	initWithWriter("debug", FormatJSON, b)
	assert.True(t, MustGetLogger("asset", "test").IsEnabledFor(zapcore.DebugLevel))
	initWithWriter(DefaultLevel, "", b)
}

func TestMockLogger(t *testing.T) {
	m := &MockLogger{}
	m.Infof("asset %s", "asset101")
	m.Error("boom")
	assert.Equal(t, []string{"INFO: asset asset101", "ERROR: boom"}, m.Lines())
	assert.True(t, m.Contains("asset101"))
	assert.False(t, m.Contains("asset102"))
}
