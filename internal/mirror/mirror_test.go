// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mirror

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitStderrLog()
	os.Exit(m.Run())
}

// stubMirrorCommand replaces the robocopy invocation for the duration of one
// test.
func stubMirrorCommand(t *testing.T, stub func(args ...string) (int, error)) {
	original := runMirrorCommand
	runMirrorCommand = stub
	t.Cleanup(func() {
		runMirrorCommand = original
	})
}

// fakeMirror emulates robocopy's mirror mode: the destination becomes an
// exact copy of the source.
func fakeMirror(exitCode int) func(args ...string) (int, error) {
	return func(args ...string) (int, error) {
		src := args[0]
		dst := args[1]

		err := os.RemoveAll(dst)
		if err != nil {
			return -1, err
		}

		err = os.MkdirAll(dst, os.ModePerm)
		if err != nil {
			return -1, err
		}

		err = os.CopyFS(dst, os.DirFS(src))
		if err != nil {
			return -1, err
		}

		return exitCode, nil
	}
}

func TestSyncAcceptsInformationalExitCode(t *testing.T) {
	capturedArgs := []string(nil)
	stubMirrorCommand(t, func(args ...string) (int, error) {
		capturedArgs = args
		return 3, nil
	})

	err := Sync("C:\\src", "D:\\dst", AcceptDefault, "/XF", "*.tmp")
	assert.NoError(t, err)

	require.GreaterOrEqual(t, len(capturedArgs), 4)
	assert.Equal(t, "C:\\src", capturedArgs[0])
	assert.Equal(t, "D:\\dst", capturedArgs[1])
	assert.Contains(t, capturedArgs, "/MIR")
	assert.Contains(t, capturedArgs, "/R:0")
	assert.Contains(t, capturedArgs, "/XF")
}

func TestSyncRejectsFailureExitCode(t *testing.T) {
	stubMirrorCommand(t, func(args ...string) (int, error) {
		return 9, nil
	})

	err := Sync("C:\\src", "D:\\dst", AcceptDefault, "/XF", "*.tmp")
	require.Error(t, err)
	assert.ErrorContains(t, err, "src=C:\\src")
	assert.ErrorContains(t, err, "dst=D:\\dst")
	assert.ErrorContains(t, err, "flags=/XF *.tmp")
	assert.ErrorContains(t, err, "code=9")
}

func TestSyncCustomAcceptance(t *testing.T) {
	stubMirrorCommand(t, func(args ...string) (int, error) {
		return 4, nil
	})

	err := Sync("src", "dst", AcceptBelow(4))
	assert.Error(t, err)

	err = Sync("src", "dst", AcceptBelow(5))
	assert.NoError(t, err)
}

func TestSyncAllSubdirectoriesIsAdditive(t *testing.T) {
	stubMirrorCommand(t, fakeMirror(1))

	srcDir := t.TempDir()
	dstDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "drivers"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "drivers", "audio.inf"), []byte("inf"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "langpacks"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "langpacks", "de-de.cab"), []byte("cab"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "loose.txt"), []byte("loose"), 0o644))

	// Pre-existing unrelated destination content must survive.
	require.NoError(t, os.MkdirAll(filepath.Join(dstDir, "unrelated"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(dstDir, "unrelated", "keep.txt"), []byte("keep"), 0o644))

	err := SyncAllSubdirectories(srcDir, dstDir, AcceptDefault)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dstDir, "drivers", "audio.inf"))
	assert.FileExists(t, filepath.Join(dstDir, "langpacks", "de-de.cab"))
	assert.FileExists(t, filepath.Join(dstDir, "unrelated", "keep.txt"))
	assert.NoFileExists(t, filepath.Join(dstDir, "loose.txt"))
}

func TestSyncSubtree(t *testing.T) {
	capturedSrc := ""
	capturedDst := ""
	stubMirrorCommand(t, func(args ...string) (int, error) {
		capturedSrc = args[0]
		capturedDst = args[1]
		return 0, nil
	})

	err := SyncSubtree("src", "dst", "drivers", AcceptDefault)
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(capturedSrc, filepath.Join("src", "drivers")))
	assert.True(t, strings.HasSuffix(capturedDst, filepath.Join("dst", "drivers")))
}

func TestRemoveTreeDeletesPopulatedTree(t *testing.T) {
	stubMirrorCommand(t, fakeMirror(1))

	parentDir := t.TempDir()
	treeDir := filepath.Join(parentDir, "tree")

	nestedDir := filepath.Join(treeDir, "a", "b", "c", "d")
	require.NoError(t, os.MkdirAll(nestedDir, os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(nestedDir, "leaf.txt"), []byte("leaf"), 0o644))

	err := RemoveTree(treeDir)
	require.NoError(t, err)

	assert.NoDirExists(t, treeDir)

	// No scratch directories left behind either.
	entries, err := os.ReadDir(parentDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveTreeMissingPathIsNoOp(t *testing.T) {
	stubMirrorCommand(t, func(args ...string) (int, error) {
		t.Fatal("mirror must not run for a missing path")
		return -1, nil
	})

	err := RemoveTree(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.NoError(t, err)
}
