// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package mirror synchronizes directory trees using robocopy's mirror mode.
package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/microsoft/roomsystems-media-tools/internal/file"
	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/microsoft/roomsystems-media-tools/internal/shell"
	"github.com/sirupsen/logrus"
)

// Robocopy exit codes are a bitmask. Values below 8 are informational
// ("copied files", "extra files present", ...) and indicate success; 8 and
// above indicate that files failed to copy.
const FailureThreshold = 8

const robocopyTool = "robocopy"

// AcceptFunc decides whether an exit code counts as success. Call sites pass
// their own predicate because some accept a broader range than others.
type AcceptFunc func(exitCode int) bool

// AcceptBelow accepts all exit codes in [0, limit).
func AcceptBelow(limit int) AcceptFunc {
	return func(exitCode int) bool {
		return exitCode >= 0 && exitCode < limit
	}
}

// AcceptDefault accepts every informational exit code.
var AcceptDefault = AcceptBelow(FailureThreshold)

// runMirrorCommand invokes robocopy. Tests replace this to simulate the
// tool's exit-code contract without the tool present.
var runMirrorCommand = func(args ...string) (int, error) {
	exitCode, _, _, err := shell.NewExecBuilder(robocopyTool, args...).
		LogLevel(logrus.TraceLevel, logrus.DebugLevel).
		ExecuteExitCode()
	return exitCode, err
}

// Sync mirrors the src tree onto dst. Extra flags are passed through to
// robocopy. Retries are disabled; a failed mirror is surfaced immediately
// with full invocation context.
func Sync(src string, dst string, accept AcceptFunc, flags ...string) error {
	logger.Log.Debugf("Mirroring (%s) to (%s)", src, dst)

	args := append([]string{src, dst, "/MIR", "/R:0"}, flags...)

	exitCode, err := runMirrorCommand(args...)
	if err != nil {
		return fmt.Errorf("failed to run mirror copy (%s) -> (%s):\n%w", src, dst, err)
	}

	if !accept(exitCode) {
		return fmt.Errorf("mirror copy failed (src=%s, dst=%s, flags=%s, code=%d)", src, dst,
			strings.Join(flags, " "), exitCode)
	}

	return nil
}

// SyncSubtree mirrors the named child directory of src onto the same name
// under dst.
func SyncSubtree(src string, dst string, name string, accept AcceptFunc, flags ...string) error {
	return Sync(filepath.Join(src, name), filepath.Join(dst, name), accept, flags...)
}

// SyncAllSubdirectories mirrors each immediate subdirectory of src into the
// corresponding location under dst. Loose files at the top level of src are
// deliberately not copied, and destination subdirectories without a source
// counterpart are deliberately left alone: the destination may already hold
// unrelated content.
func SyncAllSubdirectories(src string, dst string, accept AcceptFunc, flags ...string) error {
	names, err := file.EnumerateSubdirectories(src)
	if err != nil {
		return err
	}

	for _, name := range names {
		err = SyncSubtree(src, dst, name, accept, flags...)
		if err != nil {
			return err
		}
	}

	return nil
}

// RemoveTree deletes the directory tree at path. Deeply nested trees can
// exceed the host's path-length limit for direct recursive deletes, so the
// tree is first emptied by mirroring an empty scratch directory onto it. The
// mirror primitive cannot remove the tree's own root entry, hence the second
// phase deleting the now-empty directories directly.
func RemoveTree(path string) error {
	exists, err := file.DirExists(path)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	scratchDir, err := os.MkdirTemp(filepath.Dir(path), "emptydir-")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory:\n%w", err)
	}

	err = Sync(scratchDir, path, AcceptDefault)
	if err != nil {
		return fmt.Errorf("failed to empty directory tree (%s):\n%w", path, err)
	}

	err = os.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to remove directory (%s):\n%w", path, err)
	}

	err = os.Remove(scratchDir)
	if err != nil {
		return fmt.Errorf("failed to remove scratch directory (%s):\n%w", scratchDir, err)
	}

	return nil
}
