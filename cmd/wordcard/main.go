package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mjbernaski/word-card/internal/config"
	"github.com/mjbernaski/word-card/internal/logging"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	baseDir := os.Getenv("WORDCARD_HOME")
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
			os.Exit(1)
		}
		baseDir = filepath.Join(homeDir, ".wordcard")
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if os.Getenv("WORDCARD_DEBUG") != "" {
		level = slog.LevelDebug
	}

	app := newCLIApp(&env{
		baseDir: baseDir,
		cfg:     cfg,
		log:     logging.NewText(os.Stderr, level),
	})
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
