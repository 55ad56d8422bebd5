package main

import (
	"fmt"
	stdslog "log/slog"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/swcache"
	"github.com/unkn0wn-root/swcache/internal/config"
	logruslog "github.com/unkn0wn-root/swcache/log/logrus"
	slogadapter "github.com/unkn0wn-root/swcache/log/slog"
	zaplog "github.com/unkn0wn-root/swcache/log/zap"
	zerologlog "github.com/unkn0wn-root/swcache/log/zerolog"
)

// buildLogger returns the configured adapter and a flush func.
func buildLogger(cfg config.LoggingConfig) (swcache.Logger, func(), error) {
	level := strings.ToLower(cfg.Level)
	switch cfg.Backend {
	case "zap":
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, fmt.Errorf("logging.level: %w", err)
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(lvl)
		l, err := zc.Build()
		if err != nil {
			return nil, nil, err
		}
		return zaplog.ZapLogger{L: l}, func() { _ = l.Sync() }, nil
	case "zerolog":
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("logging.level: %w", err)
		}
		l := zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
		return zerologlog.Logger{L: l}, func() {}, nil
	case "logrus":
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("logging.level: %w", err)
		}
		l := logrus.New()
		l.SetLevel(lvl)
		l.SetFormatter(&logrus.JSONFormatter{})
		return logruslog.LogrusLogger{E: logrus.NewEntry(l)}, func() {}, nil
	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, fmt.Errorf("logging.level: %w", err)
		}
		l := stdslog.New(stdslog.NewJSONHandler(os.Stdout, &stdslog.HandlerOptions{Level: lvl}))
		stdslog.SetDefault(l)
		return slogadapter.Logger{L: l}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("logging.backend %q is not supported", cfg.Backend)
	}
}
