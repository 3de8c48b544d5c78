package log

import (
	"log"
	"os"
	"strings"

	"github.com/bombsimon/logrusr/v2"
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"
)

// Logger exposes logging capabilities using
// https://pkg.go.dev/github.com/go-logr/logr.
type Logger struct {
	*logr.Logger
}

// NewLogger creates an instance of *Logger for interactive CLI use
// (yans-collate, yans-vulngen run from a terminal).
func NewLogger(logLevel Level) *Logger {
	logrusLog := logrus.New()

	// Set log level from logrus
	logrusLevel := parseLogrusLevel(logLevel)
	logrusLog.SetLevel(logrusLevel)

	return NewLogrusLogger(logrusLog)
}

// NewDaemonLogger creates an instance of *Logger for long-running
// eds-hosted services (stored) and unattended batch runs, where stdout is
// consumed by a log collector rather than a human.
func NewDaemonLogger(logLevel Level) *Logger {
	logrusLog := logrus.New()

	// Services run under eds write structured lines to stdout; stderr is
	// reserved for the supervisor's own diagnostics.
	logrusLog.SetOutput(os.Stdout)
	logrusLog.SetFormatter(&logrus.JSONFormatter{FieldMap: logrus.FieldMap{
		logrus.FieldKeyLevel: "severity",
		logrus.FieldKeyMsg:   "message",
	}})

	// Set log level from logrus
	logrusLevel := parseLogrusLevel(logLevel)
	logrusLog.SetLevel(logrusLevel)

	return NewLogrusLogger(logrusLog)
}

// NewLogrusLogger creates an instance of *Logger backed by the supplied
// logrusLog instance.
func NewLogrusLogger(logrusLog *logrus.Logger) *Logger {
	logrLogger := logrusr.New(logrusLog)
	logger := &Logger{
		&logrLogger,
	}
	return logger
}

// ParseLevel takes a string level and returns the sclog Level constant.
// If the level is not recognized, it defaults to `sclog.InfoLevel` to swallow
// potential configuration errors/typos when specifying log levels.
// https://pkg.go.dev/github.com/sirupsen/logrus#ParseLevel
func ParseLevel(lvl string) Level {
	switch strings.ToLower(lvl) {
	case "panic":
		return PanicLevel
	case "fatal":
		return FatalLevel
	case "error":
		return ErrorLevel
	case "warn":
		return WarnLevel
	case "info":
		return InfoLevel
	case "debug":
		return DebugLevel
	case "trace":
		return TraceLevel
	}

	return DefaultLevel
}

// Level is a string representation of log level, which can easily be passed as
// a parameter, in lieu of defined types in upstream logging packages.
type Level string

// Log levels.
const (
	DefaultLevel       = InfoLevel
	TraceLevel   Level = "trace"
	DebugLevel   Level = "debug"
	InfoLevel    Level = "info"
	WarnLevel    Level = "warn"
	ErrorLevel   Level = "error"
	PanicLevel   Level = "panic"
	FatalLevel   Level = "fatal"
)

func (l Level) String() string {
	return string(l)
}

func parseLogrusLevel(lvl Level) logrus.Level {
	logrusLevel, err := logrus.ParseLevel(lvl.String())
	if err != nil {
		log.Printf(
			"defaulting to INFO log level, as %s is not a valid log level: %+v",
			lvl,
			err,
		)

		logrusLevel = logrus.InfoLevel
	}

	return logrusLevel
}
