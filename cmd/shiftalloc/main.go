// cmd/shiftalloc/main.go
//
// This is the entry point for the shiftalloc tool.
// Run it from the directory holding (or about to hold) the .shiftalloc data
// folder.
//
// Flow:
// 1. Load .env (optional, carries SHIFTALLOC_ADMIN_HASH)
// 2. Create the .shiftalloc directory structure if missing
// 3. Load settings, roster CSVs, history and audit trail
// 4. Launch the TUI

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shiftalloc/internal/allocator"
	"shiftalloc/internal/audit"
	"shiftalloc/internal/auth"
	"shiftalloc/internal/config"
	"shiftalloc/internal/history"
	"shiftalloc/internal/logging"
	"shiftalloc/internal/roster"
	"shiftalloc/internal/tui"
)

func main() {
	// Optional: a .env next to the binary may carry the admin hash.
	_ = godotenv.Load()

	// SHIFTALLOC_HOME pins the data root; otherwise it is wherever the tool
	// was started.
	root := os.Getenv("SHIFTALLOC_HOME")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
		root = cwd
	}

	if err := config.Init(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .shiftalloc directory: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.New(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.LogsDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	r, err := roster.Load(roster.Paths{
		Workers:       cfg.WorkersCSVPath(),
		Tasks:         cfg.TasksCSVPath(),
		Products:      cfg.ProductsCSVPath(),
		ProcessGroups: cfg.ProcessGroupsCSVPath(),
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading roster: %v\n", err)
		os.Exit(1)
	}

	h := history.Load(cfg.HistoryPath(), r.GroupFor, logger)
	trail := audit.Load(cfg.AuditPath(), logger)
	alloc := allocator.New(cfg, r, h, trail, logger)
	gate := auth.New(cfg.Settings.AdminHash)

	logger.Info("shiftalloc started",
		zap.String("data_root", cfg.DataRoot),
		zap.Int("workers", len(r.Workers())))

	p := tea.NewProgram(
		tui.NewApp(alloc, gate, logger),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
