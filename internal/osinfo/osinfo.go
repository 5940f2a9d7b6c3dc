// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package osinfo

import (
	"os"
	"runtime"
	"strings"
)

// GetOsAndVersion reports the host OS name and version for telemetry.
func GetOsAndVersion() (string, string) {
	switch runtime.GOOS {
	case "linux":
		return linuxOsAndVersion()
	default:
		return runtime.GOOS, "Unknown Version"
	}
}

func linuxOsAndVersion() (string, string) {
	output, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "Unknown Distro", "Unknown Version"
	}

	distro := "Unknown Distro"
	version := "Unknown Version"

	for _, line := range strings.Split(string(output), "\n") {
		if strings.HasPrefix(line, "NAME=") {
			distro = strings.Trim(strings.TrimPrefix(line, "NAME="), "\"")
		} else if strings.HasPrefix(line, "VERSION=") {
			version = strings.Trim(strings.TrimPrefix(line, "VERSION="), "\"")
		}
	}

	return distro, version
}
