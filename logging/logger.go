package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level, encoding and outputs of the service logger.
type Config struct {
	Level  string // debug, info, warn or error
	Format string // json or console

	// File enables a rotated log file in addition to the console.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console defaults to stdout.
	Console io.Writer
}

// NewLogger builds a zap logger writing to the console and, when configured,
// to a rotated file.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(cfg.Format), zapcore.AddSync(console), level),
	}

	if cfg.File != "" {
		writer := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 10),
			MaxAge:     orDefault(cfg.MaxAgeDays, 30),
			Compress:   true,
		}
		// Files are always JSON so they can be shipped as-is.
		cores = append(cores, zapcore.NewCore(newEncoder("json"), zapcore.AddSync(writer), level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// ParseLevel maps a level name to a zap level. An empty name means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
