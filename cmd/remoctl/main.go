package main

import (
	"flag"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/remoctl/internal/app"
	"github.com/dokzlo13/remoctl/internal/config"
	"github.com/dokzlo13/remoctl/internal/tui"
)

func main() {
	// Support both -c and --config for config path
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&configPath, "c", "config.yaml", "Path to configuration file (shorthand)")
	envPath := flag.String("env", ".env", "Path to .env file with secrets")
	headless := flag.Bool("headless", false, "Run without the terminal UI, only poll and log")
	title := flag.String("title", "Aircon", "Title shown in the terminal UI")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Fatal().Err(err).Str("path", *envPath).Msg("Failed to load .env file")
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// The UI owns the terminal; logs go to a file or nowhere
	var logFile *os.File
	out := io.Writer(os.Stderr)
	if !*headless {
		out = io.Discard
		if cfg.Log.File != "" {
			logFile, err = os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to open log file")
			}
			defer logFile.Close()
			out = logFile
		}
	}
	setupLogging(out, cfg.Log.Level, cfg.Log.UseJSON, cfg.Log.Colors && *headless)

	log.Info().Str("config", configPath).Bool("headless", *headless).Msg("Starting remoctl")

	// Create application
	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	// Create context that cancels on shutdown signal
	ctx := app.SignalContext()

	// Start the application
	if err := application.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	if *headless {
		application.Wait()
	} else {
		changes, unsubscribe := application.Session().Subscribe()
		model := tui.New(ctx, *title, application.Session(), application.Commander(), changes, application.History)
		if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Terminal UI error")
		}
		unsubscribe()
	}

	// Graceful shutdown
	if err := application.Stop(); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
}

func setupLogging(out io.Writer, level string, useJSON bool, colors bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		// JSON output for production
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		// Text output (with optional colors)
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
