// Package main is the entry point for the terrain editor.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Terrain Editor ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ed, err := newEditor(cfg)
	if err != nil {
		logger.Error("failed to create editor", zap.Error(err))
		os.Exit(1)
	}
	defer ed.Close()

	if err := ed.Run(); err != nil {
		logger.Error("editor error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("editor closed normally")
}
