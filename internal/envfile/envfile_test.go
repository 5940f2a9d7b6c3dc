// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package envfile

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

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "settings.ini"))
	require.NoError(t, err)

	assert.Empty(t, settings.CacheDir)
	assert.Empty(t, settings.ProxyUrl)
	assert.Empty(t, settings.SignatureTool)
	assert.False(t, settings.DisableTelemetry)
}

func TestLoadParsesSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	content := `cache_dir = D:\mediacache
proxy_url = http://proxy.corp.example.com:8080
signature_tool = signtool
disable_telemetry = true
`
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, `D:\mediacache`, settings.CacheDir)
	assert.Equal(t, "http://proxy.corp.example.com:8080", settings.ProxyUrl)
	assert.Equal(t, "signtool", settings.SignatureTool)
	assert.True(t, settings.DisableTelemetry)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	err := os.WriteFile(path, []byte("[unterminated\n"), 0o644)
	require.NoError(t, err)

	_, err = Load(path)
	assert.Error(t, err)
}
