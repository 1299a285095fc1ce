// Package logging initializes the process-wide structured logger shared
// by the domain engine, request FSM, and transport layer (SPEC_FULL.md
// AMBIENT STACK).
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Config selects the logger's verbosity, loaded from the master's YAML
// configuration file.
type Config struct {
	Level zapcore.Level `yaml:"level"`
}

// DefaultConfig returns an info-level logging configuration.
func DefaultConfig() Config {
	return Config{Level: zapcore.InfoLevel}
}

// Init builds the sugared logger used throughout the master: a console
// encoder, colored when stderr is a terminal, plain otherwise.
func Init(cfg Config) (*zap.SugaredLogger, zap.AtomicLevel, error) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()

	if term.IsTerminal(int(os.Stderr.Fd())) {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(cfg.Level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("initializing logger: %w", err)
	}

	return logger.Sugar(), zapConfig.Level, nil
}
