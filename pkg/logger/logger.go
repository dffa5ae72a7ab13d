// pkg/logger/logger.go
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Sugared = *zap.SugaredLogger

// New builds a production JSON logger for env "prod" and a console logger otherwise.
// An unparsable level falls back to info.
func New(env, level string) Sugared {
	var zc zap.Config
	if env == "prod" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	z, err := zc.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return z.Sugar()
}

// Nop is used by tests and tools that want silence.
func Nop() Sugared { return zap.NewNop().Sugar() }
