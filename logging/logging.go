package logging

import "go.uber.org/zap"

// New creates a new zap logger
func New() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewExample()
	}
	return logger
}
