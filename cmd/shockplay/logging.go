package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quackster/libreshockwave/runtime"
)

// newLogger builds a zap logger from cfg's log_level/log_format, mirroring
// the teacher's trace.Init(enabled, filters, writer) call in cmd/barn's
// main, but routed through zap so it composes with trace.Tracer's own
// logger rather than writing to a second, separate stream.
func newLogger(cfg *runtime.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.LogFormat == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log_level %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = level

	return zcfg.Build()
}
