package config

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// NewLogger builds the process logger. Verbose selects the development
// encoder with debug level enabled.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewFileLogger writes logs to valet.log under the base directory instead
// of stderr. The interactive UI owns the terminal, so stderr output would
// corrupt the display.
func NewFileLogger(verbose bool) (*zap.Logger, error) {
	base, err := BaseDir()
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{filepath.Join(base, "valet.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
