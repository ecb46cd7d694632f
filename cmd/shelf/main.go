package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/hsorel/shelf/internal/config"
	"github.com/hsorel/shelf/internal/logging"
	"github.com/hsorel/shelf/internal/manifest"
	"github.com/hsorel/shelf/internal/query"
	"github.com/hsorel/shelf/internal/seed"
	"github.com/hsorel/shelf/internal/store"
	"github.com/hsorel/shelf/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("shelf %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("shelf requires an interactive terminal")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.Setup(&cfg.Logging)
	if err != nil {
		// Fall back to a null logger if file logging fails
		logger = logging.Null()
	}
	slog.SetDefault(logger)

	logger.Info("starting shelf", "version", Version)

	if !cfg.IsConfigured() {
		return fmt.Errorf("manifest.url is not configured; set it in %s or via SHELF_MANIFEST_URL",
			"~/.config/shelf/config.yaml")
	}

	st, err := store.Open(cfg.StorePath(), logger)
	if err != nil {
		logger.Error("store is unusable", "error", err)
		return err
	}
	defer st.Close()

	client := manifest.NewClient(cfg.Manifest.URL, cfg.Manifest.LatestURL, logger)
	seeder := seed.NewSeeder(st, client, logger)
	reconciler := seed.NewReconciler(st, client, seeder, logger)
	engine := query.NewEngine(st, logger)

	model := tui.NewModel(engine, reconciler, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
