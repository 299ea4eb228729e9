package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/akademi/akademi/internal/api"
	"github.com/akademi/akademi/internal/config"
	"github.com/akademi/akademi/internal/domain"
	"github.com/akademi/akademi/internal/log"
	"github.com/akademi/akademi/internal/playback"
	"github.com/akademi/akademi/internal/player"
	"github.com/akademi/akademi/internal/search"
	"github.com/akademi/akademi/internal/service"
	"github.com/akademi/akademi/internal/store"
	"github.com/akademi/akademi/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("akademi %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting akademi", "version", Version)

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("akademi requires an interactive terminal")
	}

	client := api.NewClient(cfg.Server.URL, logger)

	db, err := store.New(config.CachePath(), logger)
	if err != nil {
		logger.Warn("persistent cache unavailable, using memory only", "error", err)
		db, err = store.New("", logger)
		if err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
	}
	defer db.Close()

	catalogSvc := service.NewCatalogService(client, db, logger)

	var sink domain.ProgressSink
	if cfg.Server.ReportProgress {
		sink = client
	}
	progressSvc := service.NewProgressService(db, sink, logger)

	engine := search.NewEngine(catalogSvc, client, logger)

	launcher := player.NewLauncher(cfg.Player.Command, cfg.Player.Args, cfg.Player.StartFlag, cfg.Player.IPCSocket, logger)
	probe := player.NewMpvProbe(cfg.Player.IPCSocket, logger)
	defer probe.Close()

	playbackCfg := playback.Config{
		CompletionPercent: cfg.Playback.CompletionPercent,
		AdvanceDelay:      time.Duration(cfg.Playback.AdvanceDelayMs) * time.Millisecond,
	}

	model := tui.New(catalogSvc, progressSvc, engine, client, launcher, probe, db, playbackCfg, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow handles the initial setup when no server URL is configured.
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to Akademi!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	var serverURL string
	for {
		fmt.Print("Enter your catalog server URL (e.g., http://learn.example.com:3000): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimSpace(input)

		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		fmt.Print("Checking server... ")
		if err := probeServer(serverURL); err != nil {
			fmt.Printf("✗ %v\n", err)
			fmt.Println("The catalog could not be reached. You can still continue; cached data will be used once available.")
			fmt.Print("Use this URL anyway? [y/N]: ")
			answer, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
				continue
			}
		} else {
			fmt.Println("✓ Connected")
		}
		break
	}

	cfg.Server.URL = serverURL

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run akademi again to start the application.")

	return nil
}

func probeServer(serverURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := api.NewClient(serverURL, log.NullLogger())
	_, err := client.Categories(ctx)
	return err
}
