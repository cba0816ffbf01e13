package logger

import (
	"sync"

	"github.com/paybridge/paybridge/infra/config"
	"github.com/paybridge/paybridge/infra/opensearch"
)

var (
	globalLogger *SystemLogger
	once         sync.Once
)

// InitGlobalLogger initializes the global system logger.
func InitGlobalLogger(osClient *opensearch.Client) {
	once.Do(func() {
		cfg := SystemLoggerConfig{
			EnableConsole:    true,
			EnableOpenSearch: osClient.IsEnabled(),
			MinLevel:         LevelInfo,
			Service:          "paybridge",
		}

		if config.GetEnv("PAYBRIDGE_ENVIRONMENT", "sandbox") != "production" {
			cfg.MinLevel = LevelDebug
		}

		globalLogger = NewSystemLogger(osClient, cfg)
	})
}

// GetGlobalLogger returns the global logger instance.
func GetGlobalLogger() *SystemLogger {
	if globalLogger == nil {
		// Fallback to console-only logger if not initialized
		globalLogger = NewSystemLogger(nil, SystemLoggerConfig{
			EnableConsole: true,
			MinLevel:      LevelInfo,
			Service:       "paybridge",
		})
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().Debug(message, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().Info(message, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().Warn(message, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Error(message, err, ctx...)
}
