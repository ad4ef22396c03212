package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a config log level to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}

// NewLevel returns a runtime-adjustable level set from cfg
func NewLevel(cfg *Config) (zap.AtomicLevel, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, err
	}
	return zap.NewAtomicLevelAt(level), nil
}

// NewLogger builds the production or development logger for cfg at the given level
func NewLogger(cfg *Config, level zap.AtomicLevel) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// FollowLogLevel updates level whenever the watched config changes it
func FollowLogLevel(w *Watcher, level zap.AtomicLevel) {
	w.OnChange(func(old, next *Config) {
		if old.LogLevel == next.LogLevel {
			return
		}
		if l, err := ParseLevel(next.LogLevel); err == nil {
			level.SetLevel(l)
		}
	})
}
