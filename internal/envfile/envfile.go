// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package envfile loads the optional per-operator settings file.
package envfile

import (
	"fmt"
	"os"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"gopkg.in/ini.v1"
)

// Settings holds operator-tunable values that rarely change between runs and
// therefore live in a settings file rather than on the command line.
type Settings struct {
	// Directory downloads are cached in. Defaults next to the tool's build directory.
	CacheDir string `ini:"cache_dir"`
	// HTTP proxy URL, empty for direct access.
	ProxyUrl string `ini:"proxy_url"`
	// Override for the host signature verification tool.
	SignatureTool string `ini:"signature_tool"`
	// Disables the telemetry exporter entirely.
	DisableTelemetry bool `ini:"disable_telemetry"`
}

// Load reads the settings file at path. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	settings := &Settings{}

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		logger.Log.Debugf("No settings file (%s), using defaults", path)
		return settings, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file (%s):\n%w", path, err)
	}

	err = iniFile.Section("").MapTo(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings file (%s):\n%w", path, err)
	}

	return settings, nil
}
