package logger

import "go.uber.org/zap"

// LoggerConfig controls logger construction for the command-line tools.
type LoggerConfig struct {
	Debug bool
}

// NewLogger builds a zap logger. Debug selects the human-readable
// development configuration; otherwise the production JSON encoder is used.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg != nil && cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
