package runtimeinit

import (
	"fmt"
	"log"
	"os"

	"github.com/SysAdminDoc/SwiftShot/src/clipboard"
	"github.com/SysAdminDoc/SwiftShot/src/config"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
}

// Bootstrap loads configuration and brings up the process-wide services
// shared by the resident tray app and the one-shot CLI paths.
func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory %s: %w", cfg.SaveDir, err)
	}

	snapshot.Init()

	// Clipboard init can fail on headless systems. Captures can still be
	// saved to disk, so log and continue.
	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable: %v (captures will only be saved to disk)", err)
	}

	return cfg, nil
}
