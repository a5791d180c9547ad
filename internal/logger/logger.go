// Package logger is the zap setup shared by every teamsweep command.
//
// Scans and sweeps log through a Logger carrying the fields an operator
// filters on afterwards: the run stamp, the team set id and the table
// being checked.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dbsmedya/teamsweep/internal/config"
)

// Logger is a sugared zap logger. Derived loggers share the parent's core,
// so a single Sync flushes them all.
type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

var levels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// New builds the logger described by the logging section of the config.
func New(cfg *config.LoggingConfig) (*Logger, error) {
	core := zapcore.NewCore(buildEncoder(cfg.Format), buildWriters(cfg.Output), parseLevel(cfg.Level))
	base := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{SugaredLogger: base.Sugar(), base: base}, nil
}

// NewDefault logs text at info level to stdout. Commands use it until the
// config file has been read.
func NewDefault() *Logger {
	logger, _ := New(&config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"})
	return logger
}

// NewNop discards everything. Tests hand it to the scanner.
func NewNop() *Logger {
	base := zap.NewNop()
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

// parseLevel maps a config level name to zap. Unknown names log at info.
func parseLevel(level string) zapcore.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return zapcore.InfoLevel
}

// buildEncoder returns a JSON encoder for "json" and a colored console
// encoder for anything else.
func buildEncoder(format string) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// buildWriters resolves the output setting. A file path is appended to and
// mirrored on stdout so an interactive sweep still shows progress. If the
// file cannot be opened the logger writes to stdout alone.
func buildWriters(output string) zapcore.WriteSyncer {
	stdout := zapcore.AddSync(os.Stdout)
	switch output {
	case "stdout", "":
		return stdout
	case "stderr":
		return zapcore.AddSync(os.Stderr)
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return stdout
	}
	return zapcore.NewMultiWriteSyncer(zapcore.AddSync(file), stdout)
}

func (l *Logger) with(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...), base: l.base}
}

// WithRun tags entries with the run stamp, the same value the sweep writes
// to date_modified. Grepping a log for it finds the rows a revert restores.
func (l *Logger) WithRun(stamp string) *Logger {
	return l.with("run", stamp)
}

// WithTeamSet tags entries with the team set being classified or deleted.
func (l *Logger) WithTeamSet(id string) *Logger {
	return l.with("team_set_id", id)
}

// WithTable tags entries with a table name.
func (l *Logger) WithTable(table string) *Logger {
	return l.with("table", table)
}

// WithFields tags entries with arbitrary key/value pairs.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.with(args...)
}

// Sync flushes the shared core.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
