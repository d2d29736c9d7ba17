// Package tisio holds the logger construction shared by cmd/tisasm
// and cmd/tisvm.
package tisio

import (
	"go.uber.org/zap"
)

// NewLogger builds the SugaredLogger both CLIs use for warnings and
// diagnostics. verbose raises the level to debug; otherwise only info
// and above are shown, matching the assembler/VM's default terseness.
func NewLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
