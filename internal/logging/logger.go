package logging

import (
	"go.uber.org/zap"
)

// NewLogger creates a new structured logger
func NewLogger(serviceName string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

// WithMeter returns a logger with a meter field
func WithMeter(logger *zap.Logger, meterID string) *zap.Logger {
	return logger.With(zap.String("meter", meterID))
}

// WithFile returns a logger with a file field
func WithFile(logger *zap.Logger, path string) *zap.Logger {
	return logger.With(zap.String("file", path))
}
