package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a console logger in development and a JSON logger otherwise
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		zc := zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zc.Build()
	}
	return zap.NewProduction()
}
