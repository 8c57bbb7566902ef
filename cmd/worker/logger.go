package main

import (
	"go.uber.org/zap"

	"github.com/hidrotec/water-metering-worker/internal/config"
	"github.com/hidrotec/water-metering-worker/internal/logging"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}
