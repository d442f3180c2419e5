// Package logging builds the process logger from the [log] section.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeJamon/goFracVault/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Component logger names
const (
	Engine  = "engine"
	RPC     = "rpc"
	Index   = "index"
	Storage = "storage"
)

// New builds a logger for cfg. Format "json" uses the production encoder and
// "console" the development one. When cfg.File is set every entry is also
// appended to that file as json. The returned cleanup flushes and closes it.
func New(cfg config.LogConfig) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	case "", "console":
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level),
	}

	cleanup := func() {}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(f), level))
		cleanup = func() { _ = f.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger, func() {
		_ = logger.Sync()
		cleanup()
	}, nil
}

// Named returns a child of l named after a component, or a no-op logger if
// l is nil.
func Named(l *zap.Logger, component string) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.Named(component)
}
