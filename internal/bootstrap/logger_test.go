package bootstrap_test

import (
	"testing"

	"go-payroll/internal/bootstrap"
	"go-payroll/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("development defaults to debug", func(t *testing.T) {
		logger, err := bootstrap.NewLogger(config.Config{Env: "development"})

		assert.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("production defaults to info", func(t *testing.T) {
		logger, err := bootstrap.NewLogger(config.Config{Env: "production"})

		assert.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("level override", func(t *testing.T) {
		logger, err := bootstrap.NewLogger(config.Config{Env: "development", LogLevel: "warn"})

		assert.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := bootstrap.NewLogger(config.Config{LogLevel: "loud"})
		assert.ErrorContains(t, err, "LOG_LEVEL")
	})
}
