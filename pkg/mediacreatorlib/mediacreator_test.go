// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/microsoft/roomsystems-media-tools/internal/envfile"
	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withToolVersion(t *testing.T, version string) {
	original := ToolVersion
	ToolVersion = version
	t.Cleanup(func() {
		ToolVersion = original
	})
}

func TestCheckToolVersion(t *testing.T) {
	withToolVersion(t, "2.1.0")

	assert.NoError(t, checkToolVersion(""))
	assert.NoError(t, checkToolVersion("2.1.0"))
	assert.NoError(t, checkToolVersion("2.0.5"))
	assert.ErrorIs(t, checkToolVersion("2.2"), ErrToolTooOld)
}

func TestCheckToolVersionDevBuildAcceptsAnyKit(t *testing.T) {
	withToolVersion(t, "")

	assert.NoError(t, checkToolVersion("99.0"))
}

func TestCheckToolVersionMalformedMinimum(t *testing.T) {
	withToolVersion(t, "2.1.0")

	assert.ErrorIs(t, checkToolVersion("two.one"), ErrKitManifest)
}

func TestSelectedOsRelease(t *testing.T) {
	manifest := testManifest()

	vars := NewMenuVariables()
	vars.Merge(map[string]string{VarOsRelease: "10"})

	release, err := selectedOsRelease(manifest, vars)
	require.NoError(t, err)
	assert.Equal(t, "Windows 10", release.Label)
}

func TestSelectedOsReleaseUnsetVariable(t *testing.T) {
	manifest := testManifest()

	_, err := selectedOsRelease(manifest, NewMenuVariables())
	require.ErrorIs(t, err, ErrOsReleaseUnknown)
	assert.ErrorContains(t, err, "known releases: 10")
}

func TestSelectedOsReleaseUnknownId(t *testing.T) {
	manifest := testManifest()

	vars := NewMenuVariables()
	vars.Merge(map[string]string{VarOsRelease: "7"})

	_, err := selectedOsRelease(manifest, vars)
	assert.ErrorIs(t, err, ErrOsReleaseUnknown)
}

func TestApplySettingsFillsOnlyUnsetOptions(t *testing.T) {
	options := MediaCreatorOptions{
		CacheDir: `D:\explicit-cache`,
	}
	settings := &envfile.Settings{
		CacheDir:      `C:\settings-cache`,
		ProxyUrl:      "http://proxy.corp.example.com:8080",
		SignatureTool: "signtool",
	}

	applySettings(&options, settings)

	assert.Equal(t, `D:\explicit-cache`, options.CacheDir)
	assert.Equal(t, "http://proxy.corp.example.com:8080", options.ProxyUrl)
	assert.Equal(t, "signtool", options.SignatureTool)
}

func TestCleanupBuildDirRemovesExtractedKit(t *testing.T) {
	removed := []string(nil)
	originalRemoveTree := removeTree
	removeTree = func(path string) error {
		removed = append(removed, path)
		return os.RemoveAll(path)
	}
	t.Cleanup(func() {
		removeTree = originalRemoveTree
	})

	buildDir := t.TempDir()
	kitDir := filepath.Join(buildDir, extractedKitDirName)
	require.NoError(t, os.MkdirAll(filepath.Join(kitDir, "drivers", "audio"), os.ModePerm))

	cachedKit := filepath.Join(buildDir, "cache", "kit-1.0.0.msi")
	require.NoError(t, os.MkdirAll(filepath.Dir(cachedKit), os.ModePerm))
	require.NoError(t, os.WriteFile(cachedKit, []byte("cached"), 0o644))

	err := cleanupBuildDir(buildDir)
	assert.NoError(t, err)

	assert.Equal(t, []string{kitDir}, removed)
	assert.NoDirExists(t, kitDir)
	assert.FileExists(t, cachedKit)
}

func TestMediaCreatorOptionsValidation(t *testing.T) {
	valid := MediaCreatorOptions{
		BuildDir:     `C:\build`,
		KitPath:      `C:\kit`,
		BaseMediaDir: `D:\basemedia`,
		MediaRoot:    `E:\`,
	}
	assert.NoError(t, valid.IsValid())

	noKit := valid
	noKit.KitPath = ""
	assert.ErrorIs(t, noKit.IsValid(), ErrInvalidOptions)

	bothKits := valid
	bothKits.KitSource = &mediacreatorapi.KitSource{Url: "https://example.com/kit.msi"}
	assert.ErrorIs(t, bothKits.IsValid(), ErrInvalidOptions)

	noMedia := valid
	noMedia.MediaRoot = ""
	assert.ErrorIs(t, noMedia.IsValid(), ErrInvalidOptions)
}

func TestSortedValuesOrdersByKey(t *testing.T) {
	values := sortedValues(map[string]string{
		"b-second": "2",
		"a-first":  "1",
		"c-third":  "3",
	})
	assert.Equal(t, []string{"1", "2", "3"}, values)
}

func TestDriveLetterOf(t *testing.T) {
	assert.Equal(t, "E:", driveLetterOf(`E:\`))
	assert.Equal(t, "E:", driveLetterOf("E:"))
}
