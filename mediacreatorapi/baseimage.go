// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorapi

import (
	"encoding/hex"
	"fmt"
)

// BaseImageIdentity pins the exact identity of the operator-supplied base OS
// image: the candidate file must match both values byte for byte.
type BaseImageIdentity struct {
	// SizeBytes is the expected file length.
	SizeBytes int64 `yaml:"sizeBytes" json:"sizeBytes"`
	// Sha256 is the expected content hash, lowercase hex.
	Sha256 string `yaml:"sha256" json:"sha256"`
	// SourceHint points the operator at the canonical download location when
	// the check fails.
	SourceHint string `yaml:"sourceHint" json:"sourceHint,omitempty"`
}

func (b *BaseImageIdentity) IsValid() error {
	if b.SizeBytes <= 0 {
		return fmt.Errorf("base image size must be positive (%d)", b.SizeBytes)
	}

	hash, err := hex.DecodeString(b.Sha256)
	if err != nil || len(hash) != 32 {
		return fmt.Errorf("base image sha256 must be 64 hex characters (%s)", b.Sha256)
	}

	return nil
}
