// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package logger implements the shared logger used across all media tools.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Log is the shared logger for all tools in this module.
var Log *logrus.Logger

var stderrHook *writerHook

const (
	LevelsFlag        = "log-level"
	LevelsHelp        = "Minimum log level to show on the console."
	LevelsPlaceholder = "(panic|fatal|error|warn|info|debug|trace)"

	FileFlag     = "log-file"
	FileFlagHelp = "Duplicate all log output into the given file at trace level."

	ColorFlag         = "log-color"
	ColorFlagHelp     = "Use colors on the console output."
	ColorsPlaceholder = "(always|auto|never)"

	defaultConsoleLevel = logrus.InfoLevel
	defaultFileLevel    = logrus.TraceLevel
)

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

type LogFlags struct {
	LogColor *string
	LogFile  *string
	LogLevel *string
}

// Levels lists all supported log level names, in increasing order of severity.
func Levels() []string {
	levels := []string{}
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}
	return levels
}

// Colors lists all supported values of the log color flag.
func Colors() []string {
	return []string{colorAlways, colorAuto, colorNever}
}

// InitStderrLog initializes the logger with console output only.
// Intended for tests and small utilities.
func InitStderrLog() {
	initLog(os.Stderr, defaultConsoleLevel, colorAuto)
}

// InitBestEffort initializes the logger from the given flag values, proceeding with
// defaults for any value that cannot be honored.
func InitBestEffort(flags *LogFlags) {
	level := defaultConsoleLevel
	if flags.LogLevel != nil && *flags.LogLevel != "" {
		parsedLevel, err := logrus.ParseLevel(*flags.LogLevel)
		if err == nil {
			level = parsedLevel
		} else {
			defer Log.Warnf("Unknown log level (%s), defaulting to (%s)", *flags.LogLevel, level)
		}
	}

	logColor := colorAuto
	if flags.LogColor != nil && *flags.LogColor != "" {
		logColor = *flags.LogColor
	}

	initLog(os.Stderr, level, logColor)

	if flags.LogFile != nil && *flags.LogFile != "" {
		err := AddFileOutput(*flags.LogFile)
		if err != nil {
			Log.Warnf("Failed to add log file (%s): %v", *flags.LogFile, err)
		}
	}
}

// AddFileOutput duplicates all log output into the given file at trace level.
func AddFileOutput(logFilePath string) error {
	err := os.MkdirAll(filepath.Dir(logFilePath), os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create log file directory:\n%w", err)
	}

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file:\n%w", err)
	}

	Log.AddHook(newWriterHook(logFile, defaultFileLevel, false))
	return nil
}

// SetConsoleLevel adjusts the verbosity of the console output after initialization.
func SetConsoleLevel(level logrus.Level) {
	if stderrHook != nil {
		stderrHook.level = level
	}
}

func initLog(console io.Writer, consoleLevel logrus.Level, logColor string) {
	Log = logrus.New()

	// All output goes through hooks so that console and file levels can differ.
	Log.SetOutput(io.Discard)
	Log.SetLevel(logrus.TraceLevel)

	useColor := false
	switch logColor {
	case colorAlways:
		useColor = true
	case colorNever:
		useColor = false
	case colorAuto:
		if consoleFile, isFile := console.(*os.File); isFile {
			fileInfo, err := consoleFile.Stat()
			useColor = err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0
		}
	}

	stderrHook = newWriterHook(console, consoleLevel, useColor)
	Log.AddHook(stderrHook)
}

// writerHook forwards formatted log entries to a writer, filtered by its own level.
type writerHook struct {
	writer    io.Writer
	level     logrus.Level
	formatter logrus.Formatter
}

func newWriterHook(writer io.Writer, level logrus.Level, useColor bool) *writerHook {
	return &writerHook{
		writer:    writer,
		level:     level,
		formatter: &consoleFormatter{useColor: useColor},
	}
}

func (h *writerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	if entry.Level > h.level {
		return nil
	}

	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	_, err = h.writer.Write(line)
	return err
}

type consoleFormatter struct {
	useColor bool
}

func (f *consoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	levelText := strings.ToLower(entry.Level.String())
	if f.useColor {
		levelText = levelColor(entry.Level).Sprint(levelText)
	}

	timestamp := entry.Time.Format("2006-01-02T15:04:05")
	line := fmt.Sprintf("%s [%s] %s\n", timestamp, levelText, entry.Message)
	return []byte(line), nil
}

func levelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return color.New(color.FgRed)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgCyan)
	}
}
