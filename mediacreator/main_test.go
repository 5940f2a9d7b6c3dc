// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitStderrLog()
	os.Exit(m.Run())
}

func TestTelemetryDisabledByFlag(t *testing.T) {
	assert.True(t, telemetryDisabled(true, ""))
}

func TestTelemetryDisabledBySettingsFile(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "settings.ini")
	err := os.WriteFile(settingsPath, []byte("disable_telemetry = true\n"), 0o644)
	require.NoError(t, err)

	assert.True(t, telemetryDisabled(false, settingsPath))
}

func TestTelemetryEnabledWithoutOptOut(t *testing.T) {
	assert.False(t, telemetryDisabled(false, filepath.Join(t.TempDir(), "settings.ini")))
}
