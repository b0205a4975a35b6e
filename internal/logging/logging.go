// Package logging builds the zap loggers used by the CLI and the MCP server.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Modes accepted by New.
const (
	ModeProduction  = "prod"
	ModeDevelopment = "dev"
	ModeNop         = "nop"
)

// New returns a logger for mode. Production logs JSON at info level,
// development logs console output at debug level, and "nop", "off" or
// "none" discard everything. Output always goes to stderr so stdio
// transports keep stdout for protocol traffic.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeNop, "off", "none":
		return zap.NewNop(), nil
	case ModeProduction, "production", "":
		cfg = zap.NewProductionConfig()
	case ModeDevelopment, "development", "debug":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("logging: unknown mode %q", mode)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build %s logger: %w", mode, err)
	}
	return log, nil
}

// Sync flushes log, ignoring the error stderr returns on some platforms.
func Sync(log *zap.Logger) {
	_ = log.Sync()
}
