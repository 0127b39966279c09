// Package cli implements the sat-gbdx command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rkm/sat-gbdx/internal/config"
	"github.com/rkm/sat-gbdx/internal/fetch"
	"github.com/rkm/sat-gbdx/internal/gbdx"
	"github.com/rkm/sat-gbdx/internal/imaging"
	"github.com/rkm/sat-gbdx/internal/registry"
	"github.com/rkm/sat-gbdx/internal/scene"
	"github.com/rkm/sat-gbdx/internal/translate"
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sat-gbdx",
		Short: "Search, order and fetch DigitalGlobe imagery through GBDX",
		Long: `sat-gbdx queries the GBDX catalog for DigitalGlobe scenes, filters them
by area-of-interest overlap, and manages ordering and imagery downloads.

Configuration is read from the environment (GBDX_TOKEN, SATUTILS_DATADIR,
SATUTILS_FILENAME). A .env file in the working directory is loaded if present.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newLoadCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// app bundles the wired components every subcommand needs.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	client     *gbdx.Client
	registry   *registry.Registry
	translator *translate.Translator
	normalizer *scene.Normalizer
	fetcher    *fetch.Fetcher
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	reg, err := registry.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load collection registry: %w", err)
	}

	client := gbdx.NewClient(cfg.GBDX.BaseURL, cfg.GBDX.Token, cfg.GBDX.Timeout).WithLogger(logger)
	proc := imaging.NewGDALProcessor(logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		registry:   reg,
		translator: translate.NewTranslator(reg, logger),
		normalizer: scene.NewNormalizer(reg),
		fetcher:    fetch.NewFetcher(client, proc, cfg.Data.Dir, cfg.Data.Filename, logger),
	}, nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
