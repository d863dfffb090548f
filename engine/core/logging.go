package core

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	once.Do(func() {
		l := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "Vortex 🌀 ",
		})
		// Verbose until ConfigureLogging applies the configured level.
		l.SetLevel(log.DebugLevel)
		singleton = &logger{l}
	})
	return singleton
}

// LoggingOptions mirrors the [Logging] configuration section. Keys the core
// logger has no sink for (async queueing, rotation) are accepted by the
// configuration schema but ignored here.
type LoggingOptions struct {
	Level             string
	EnableConsole     bool
	ConsoleColors     bool
	EnableFileLogging bool
	LogDirectory      string
}

// ConfigureLogging reapplies logger settings. Safe to call more than once;
// the last call wins. A file sink failure falls back to console only.
func ConfigureLogging(opts LoggingOptions) {
	l := getLogger()

	if lvl, ok := ParseLogLevel(opts.Level); ok {
		l.SetLevel(lvl)
	} else if opts.Level != "" {
		LogWarn("unknown log level '%s', keeping current", opts.Level)
	}

	var sinks []io.Writer
	if opts.EnableConsole {
		sinks = append(sinks, os.Stderr)
	}
	if opts.EnableFileLogging {
		dir := opts.LogDirectory
		if dir == "" {
			dir = "Logs"
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			LogWarn("cannot create log directory '%s': %v", dir, err)
		} else {
			name := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
			f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				LogWarn("cannot open log file '%s': %v", name, err)
			} else {
				sinks = append(sinks, f)
			}
		}
	}
	switch len(sinks) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(sinks[0])
	default:
		l.SetOutput(io.MultiWriter(sinks...))
	}

	if opts.EnableConsole && !opts.ConsoleColors {
		// The logfmt formatter never emits ANSI sequences.
		l.SetFormatter(log.LogfmtFormatter)
	}
}

// ParseLogLevel maps the configuration level strings onto charmbracelet
// levels. "trace" collapses into debug and "critical" into fatal; "off"
// parks the level above fatal so nothing is emitted.
func ParseLogLevel(s string) (log.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug":
		return log.DebugLevel, true
	case "info":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	case "critical", "fatal":
		return log.FatalLevel, true
	case "off":
		return log.FatalLevel + 1, true
	}
	return log.InfoLevel, false
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
