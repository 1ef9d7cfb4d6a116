package bootstrap

import (
	"fmt"

	"go-payroll/internal/config"
	"go-payroll/internal/shared/apperror"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON in production, console
// otherwise. LOG_LEVEL overrides the preset level.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}

	return zc.Build(zap.Fields(zap.String("env", cfg.Env)))
}

// Init installs logger as the zap global and registers validator tag names.
// The returned func flushes the logger.
func Init(logger *zap.Logger) func() {
	zap.ReplaceGlobals(logger)
	apperror.Init()
	return func() { _ = logger.Sync() }
}
