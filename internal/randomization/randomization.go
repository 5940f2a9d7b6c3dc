// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package randomization

import (
	"strings"

	"github.com/google/uuid"
)

// CreateScratchName returns a unique name with the given prefix, suitable for
// scratch directories and staging files.
func CreateScratchName(prefix string) string {
	return prefix + uuid.NewString()
}

// CreateVolumeSerial returns an 8-character hex serial suitable for labeling
// removable media volumes.
func CreateVolumeSerial() string {
	id := uuid.NewString()
	return strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}
