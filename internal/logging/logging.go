// Package logging configures the logrus logger shared by the command line
// tools.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupParams selects the level, format and destinations of the logger
// built by Setup.
type SetupParams struct {
	// LogFileName enables a rotated log file. ".log" is appended when missing.
	LogFileName string
	// LogToConsole also writes to Console when LogFileName is set.
	LogToConsole bool
	// Console defaults to Stderr so Stdout stays free for command output.
	Console       io.Writer
	LogLevel      string
	LogFormatJSON bool
}

// Setup builds a logger from params. Without a log file it writes to the
// console only.
func Setup(params SetupParams) *logrus.Logger {
	log := logrus.New()
	if params.LogFormatJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	log.SetLevel(GetLevel(params.LogLevel))

	console := params.Console
	if console == nil {
		console = os.Stderr
	}
	if params.LogFileName == "" {
		log.SetOutput(console)
		return log
	}

	if !strings.HasSuffix(params.LogFileName, ".log") {
		params.LogFileName += ".log"
	}

	rotated := &lumberjack.Logger{
		Filename: params.LogFileName,
		MaxSize:  20, // megabytes
		Compress: true,
	}

	if params.LogToConsole {
		log.SetOutput(io.MultiWriter(console, rotated))
	} else {
		log.SetOutput(rotated)
	}
	return log
}

// GetLevel maps a level name to its logrus level. Unknown names fall back
// to info.
func GetLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "trace":
		return logrus.TraceLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}
