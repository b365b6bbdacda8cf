package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mercadodasophia-design/mercadodasophia/pkg/config"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// InitLogger builds the global logger from configuration. Development mode
// uses the human-readable console encoder.
func InitLogger(cfg *config.Config) {
	once.Do(func() {
		var zapCfg zap.Config
		if cfg.Server.Env == "development" {
			zapCfg = zap.NewDevelopmentConfig()
		} else {
			zapCfg = zap.NewProductionConfig()
		}
		zapCfg.OutputPaths = []string{"stdout"}
		if level, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
			zapCfg.Level = zap.NewAtomicLevelAt(level)
		}
		logger, err := zapCfg.Build()
		if err != nil {
			panic(err)
		}
		instance = logger
	})
}

// GetLogger returns the global logger, building a production default when
// InitLogger has not run yet.
func GetLogger() *zap.Logger {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		logger, err := cfg.Build()
		if err != nil {
			panic(err)
		}
		instance = logger
	})
	return instance
}
