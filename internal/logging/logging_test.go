// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "routinechat.log")

	logger, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)
	logger.Info().Str("component", "test").Msg("hello")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, "info", line["level"])
}

func TestNewWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "warn")
	require.NoError(t, err)

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty", File: filepath.Join(t.TempDir(), "x.log")})
	assert.Error(t, err)
}

func TestNop_Close(t *testing.T) {
	assert.NoError(t, Nop().Close())
	var l *Logger
	assert.NoError(t, l.Close())
}
