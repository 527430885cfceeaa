// Package logging builds the structured zap logger used by the sedir
// command line tool.
package logging

import (
	goerrors "errors"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrInvalidLevel is returned for log levels zap does not know.
var ErrInvalidLevel = goerrors.New("invalid log level")

// Config controls logger construction. The zero value logs human-readable
// info-level output to stderr.
type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `yaml:"level"`

	// Format is "json" or "text". Empty means text.
	Format string `yaml:"format"`

	// Output is "stderr", "stdout", or a file path. File output rotates.
	Output string `yaml:"output"`

	// MaxSizeMB is the size a log file may reach before rotation.
	MaxSizeMB int `yaml:"maxSizeMB"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `yaml:"maxBackups"`

	// MaxAgeDays is the age in days after which rotated files are removed.
	MaxAgeDays int `yaml:"maxAgeDays"`

	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

// New builds a zap logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidLevel, "%q", cfg.Level)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, sink(cfg), level)

	return zap.New(core), nil
}

// sink picks the write target. File paths go through lumberjack so long
// running processes never fill the disk with one unbounded log.
func sink(cfg Config) zapcore.WriteSyncer {
	switch cfg.Output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr)
	case "stdout":
		return zapcore.Lock(os.Stdout)
	}

	maxSize := cfg.MaxSizeMB
	if maxSize == 0 {
		maxSize = 100
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
}
