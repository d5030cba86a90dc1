package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/store"
)

const (
	defaultLogSamplingTick  = 5 * time.Second
	defaultLogSamplingAfter = 2 * time.Second
)

// configureLogger applies cfg to the process logger. Debug turns on caller
// reporting; the "dev" dev key switches to human readable text.
func configureLogger(cfg fields.Config) {
	logrusLogger.SetOutput(os.Stderr)
	logrusLogger.SetLevel(logLevel(cfg))
	logrusLogger.SetReportCaller(cfg.IsDebug)
	logrusLogger.SetFormatter(logFormatter(cfg))
	store.SetMigrationLogger(logrusLogger)

	logSampling = gateway.LogSamplingConfig{
		Tick:  durationFromMs(cfg.LogSamplingTickMs, defaultLogSamplingTick),
		After: durationFromMs(cfg.LogSamplingAfterMs, defaultLogSamplingAfter),
	}
}

func logLevel(cfg fields.Config) logrus.Level {
	if cfg.IsDebug {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

func logFormatter(cfg fields.Config) logrus.Formatter {
	if cfg.DevKey == "dev" {
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.TimeOnly}
	}
	return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
}

func durationFromMs(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
