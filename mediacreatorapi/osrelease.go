// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorapi

import (
	"fmt"

	"github.com/asaskevich/govalidator"
)

// OsRelease is the per-major-OS-version configuration block of a kit.
type OsRelease struct {
	// Label is the human-readable name of the release.
	Label string `yaml:"label" json:"label"`
	// BaseImage pins the identity of the operator-supplied installation image.
	BaseImage BaseImageIdentity `yaml:"baseImage" json:"baseImage"`
	// RequiredUpdates maps update names to their download URLs. These are
	// applied to the media regardless of menu selections.
	RequiredUpdates map[string]string `yaml:"requiredUpdates" json:"requiredUpdates,omitempty"`
}

func (r *OsRelease) IsValid() error {
	if r.Label == "" {
		return fmt.Errorf("OS release must have a label")
	}

	err := r.BaseImage.IsValid()
	if err != nil {
		return fmt.Errorf("invalid 'baseImage' field:\n%w", err)
	}

	for name, url := range r.RequiredUpdates {
		if name == "" {
			return fmt.Errorf("required update name must not be empty")
		}
		if !govalidator.IsURL(url) {
			return fmt.Errorf("required update (%s) has invalid URL (%s)", name, url)
		}
	}

	return nil
}
