// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package shell

import (
	"bufio"
	"bytes"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/sirupsen/logrus"
)

// LogDisabledLevel disables output logging for a stream when passed to LogLevel.
const LogDisabledLevel = logrus.Level(255)

// ExecBuilder configures and runs an external command.
type ExecBuilder struct {
	name             string
	args             []string
	stdinString      string
	workingDirectory string
	environment      []string
	stdoutLogLevel   logrus.Level
	stderrLogLevel   logrus.Level
	errorStderrLines int
}

// NewExecBuilder creates a builder for the given command.
// By default, stdout is logged at debug level and stderr at warn level.
func NewExecBuilder(name string, args ...string) ExecBuilder {
	return ExecBuilder{
		name:           name,
		args:           args,
		stdoutLogLevel: logrus.DebugLevel,
		stderrLogLevel: logrus.WarnLevel,
	}
}

// Stdin provides a string to feed into the command's stdin.
func (b ExecBuilder) Stdin(value string) ExecBuilder {
	b.stdinString = value
	return b
}

// WorkingDirectory sets the command's working directory.
func (b ExecBuilder) WorkingDirectory(path string) ExecBuilder {
	b.workingDirectory = path
	return b
}

// EnvironmentVariables appends environment variables of the form NAME=VALUE.
func (b ExecBuilder) EnvironmentVariables(env []string) ExecBuilder {
	b.environment = env
	return b
}

// LogLevel sets the log levels used for the command's stdout and stderr streams.
func (b ExecBuilder) LogLevel(stdoutLevel logrus.Level, stderrLevel logrus.Level) ExecBuilder {
	b.stdoutLogLevel = stdoutLevel
	b.stderrLogLevel = stderrLevel
	return b
}

// ErrorStderrLines sets how many trailing stderr lines are included in the error
// when the command fails.
func (b ExecBuilder) ErrorStderrLines(lines int) ExecBuilder {
	b.errorStderrLines = lines
	return b
}

// Execute runs the command, logging its output.
func (b ExecBuilder) Execute() error {
	_, _, err := b.run()
	return err
}

// ExecuteCaptureOutput runs the command and returns its stdout and stderr.
func (b ExecBuilder) ExecuteCaptureOutput() (stdout string, stderr string, err error) {
	return b.run()
}

// ExecuteExitCode runs the command and returns its exit code.
// A non-zero exit code is not treated as an error; the caller owns the
// interpretation of the code. Errors are only returned when the process could
// not be started or was killed by a signal.
func (b ExecBuilder) ExecuteExitCode() (exitCode int, stdout string, stderr string, err error) {
	stdout, stderr, err = b.run()
	if err != nil {
		code, isExit := exitCodeOf(unwrapRunError(err))
		if isExit {
			return code, stdout, stderr, nil
		}
		return -1, stdout, stderr, err
	}

	return 0, stdout, stderr, nil
}

type runError struct {
	message string
	cause   error
}

func (e *runError) Error() string {
	return e.message
}

func (e *runError) Unwrap() error {
	return e.cause
}

func unwrapRunError(err error) error {
	if rErr, ok := err.(*runError); ok {
		return rErr.cause
	}
	return err
}

func (b ExecBuilder) run() (string, string, error) {
	logCommand(b.name, b.args)

	cmd := exec.Command(b.name, b.args...)
	cmd.Dir = b.workingDirectory
	if b.environment != nil {
		cmd.Env = append(cmd.Environ(), b.environment...)
	}
	if b.stdinString != "" {
		cmd.Stdin = strings.NewReader(b.stdinString)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", "", commandError(b.name, b.args, "", 0, err)
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", "", commandError(b.name, b.args, "", 0, err)
	}

	err = cmd.Start()
	if err != nil {
		return "", "", commandError(b.name, b.args, "", 0, err)
	}

	stdoutBuf := &bytes.Buffer{}
	stderrBuf := &bytes.Buffer{}

	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.consumeStream(stdoutPipe, stdoutBuf, b.stdoutLogLevel)
	}()
	go func() {
		defer wg.Done()
		b.consumeStream(stderrPipe, stderrBuf, b.stderrLogLevel)
	}()
	wg.Wait()

	err = cmd.Wait()
	if err != nil {
		wrapped := commandError(b.name, b.args, stderrBuf.String(), b.errorStderrLines, err)
		return stdoutBuf.String(), stderrBuf.String(), &runError{message: wrapped.Error(), cause: err}
	}

	return stdoutBuf.String(), stderrBuf.String(), nil
}

func (b ExecBuilder) consumeStream(reader io.Reader, buffer *bytes.Buffer, level logrus.Level) {
	scanner := bufio.NewScanner(reader)
	// Some tools (robocopy in particular) emit very long progress lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		buffer.WriteString(line)
		buffer.WriteByte('\n')

		if level != LogDisabledLevel {
			logger.Log.Log(level, line)
		}
	}
}
