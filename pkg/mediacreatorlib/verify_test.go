// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, content string) (string, mediacreatorapi.BaseImageIdentity) {
	path := filepath.Join(t.TempDir(), "install.wim")
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)

	hash := sha256.Sum256([]byte(content))

	identity := mediacreatorapi.BaseImageIdentity{
		SizeBytes:  int64(len(content)),
		Sha256:     hex.EncodeToString(hash[:]),
		SourceHint: "https://example.com/downloads",
	}

	return path, identity
}

func TestCheckBaseImageIdentityMatch(t *testing.T) {
	path, identity := writeTestImage(t, "image bytes")

	err := CheckBaseImageIdentity(path, identity)
	assert.NoError(t, err)
}

func TestCheckBaseImageIdentityHashCaseInsensitive(t *testing.T) {
	path, identity := writeTestImage(t, "image bytes")
	identity.Sha256 = strings.ToUpper(identity.Sha256)

	err := CheckBaseImageIdentity(path, identity)
	assert.NoError(t, err)
}

func TestCheckBaseImageIdentityWrongSize(t *testing.T) {
	path, identity := writeTestImage(t, "image bytes")
	identity.SizeBytes += 1

	err := CheckBaseImageIdentity(path, identity)
	require.ErrorIs(t, err, ErrBaseImageSize)
	assert.ErrorContains(t, err, "https://example.com/downloads")

	// The operator's file is never deleted.
	assert.FileExists(t, path)
}

func TestCheckBaseImageIdentityWrongHash(t *testing.T) {
	path, identity := writeTestImage(t, "image bytes")
	identity.Sha256 = strings.Repeat("00", 32)

	err := CheckBaseImageIdentity(path, identity)
	require.ErrorIs(t, err, ErrBaseImageHash)
	assert.FileExists(t, path)
}
