// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package shell runs external host commands with logging and output capture.
package shell

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/sirupsen/logrus"
)

// Execute runs the command and returns its stdout and stderr.
func Execute(name string, args ...string) (stdout string, stderr string, err error) {
	return NewExecBuilder(name, args...).ExecuteCaptureOutput()
}

// ExecuteLive runs the command, streaming its output to the log at info level.
// If squashErrors is set, stderr is logged at info level instead of warn.
func ExecuteLive(squashErrors bool, name string, args ...string) error {
	stderrLevel := logrus.WarnLevel
	if squashErrors {
		stderrLevel = logrus.InfoLevel
	}

	return NewExecBuilder(name, args...).
		LogLevel(logrus.InfoLevel, stderrLevel).
		Execute()
}

func commandString(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

func joinLastLines(text string, maxLines int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}

// exitCodeOf extracts the process exit code from an exec error, if there is one.
func exitCodeOf(err error) (int, bool) {
	exitErr := (*exec.ExitError)(nil)
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// commandError wraps a command failure with the full invocation for diagnosis.
// Trailing stderr lines are included only when the caller asked for them.
func commandError(name string, args []string, stderr string, stderrLines int, err error) error {
	stderrTail := ""
	if stderrLines > 0 {
		stderrTail = joinLastLines(stderr, stderrLines)
	}
	if stderrTail != "" {
		return fmt.Errorf("command failed (%s):\n%s\n%w", commandString(name, args), stderrTail, err)
	}
	return fmt.Errorf("command failed (%s):\n%w", commandString(name, args), err)
}

func logCommand(name string, args []string) {
	logger.Log.Debugf("Executing: %s", commandString(name, args))
}
