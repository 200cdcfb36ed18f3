// Package logger is the process-wide structured logger. Every helper is a
// no-op until Init has run, so packages can log unconditionally.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/habitual/internal/constants"
)

// Logger is the global logger; nil before Init.
var Logger *log.Logger

// Format selects how records are rendered.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
)

type Config struct {
	Debug bool
	// ConfigDir holds the logs/ directory.
	ConfigDir string
	// Stderr mirrors records at info level to stderr (used by serve).
	Stderr bool
	Format Format
}

// Path returns the log file location for cfg.
func (cfg Config) Path() string {
	return filepath.Join(cfg.ConfigDir, constants.DefaultLogDir, constants.DefaultLogFile)
}

func (cfg Config) level() log.Level {
	switch {
	case cfg.Debug:
		return log.DebugLevel
	case cfg.Stderr:
		return log.InfoLevel
	default:
		return log.WarnLevel
	}
}

func (cfg Config) formatter() (log.Formatter, error) {
	switch cfg.Format {
	case "", FormatText:
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	}
	return 0, fmt.Errorf("unknown log format %q", cfg.Format)
}

// Init configures the global logger to write to a rotating file under
// cfg.ConfigDir, and to stderr as well in debug or serve mode.
func Init(cfg Config) error {
	formatter, err := cfg.formatter()
	if err != nil {
		return err
	}

	path := cfg.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var w io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	if cfg.Debug || cfg.Stderr {
		w = io.MultiWriter(os.Stderr, w)
	}

	Logger = New(w, cfg.level(), formatter, cfg.Debug)
	return nil
}

// New builds a logger with the application prefix.
func New(w io.Writer, level log.Level, formatter log.Formatter, caller bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportCaller:    caller,
		ReportTimestamp: true,
		Level:           level,
		Formatter:       formatter,
		Prefix:          constants.AppName,
	})
}

func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs and exits with status 1.
func Fatal(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}

// CronLogger adapts the global logger to robfig/cron's Logger interface.
// Cron's chatty info records are demoted to debug.
type CronLogger struct{}

func (CronLogger) Info(msg string, keysAndValues ...any) {
	Debug("cron: "+msg, keysAndValues...)
}

func (CronLogger) Error(err error, msg string, keysAndValues ...any) {
	Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
