// Package cli implements the xray-tools command line.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/xray-tools-mcp/internal/config"
	"github.com/ironsheep/xray-tools-mcp/internal/detection"
	"github.com/ironsheep/xray-tools-mcp/internal/engine"
	"github.com/ironsheep/xray-tools-mcp/internal/imaging"
	"github.com/ironsheep/xray-tools-mcp/internal/logger"
	"github.com/ironsheep/xray-tools-mcp/internal/service"
	"github.com/ironsheep/xray-tools-mcp/internal/storage"
)

// BuildInfo is stamped by the linker.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// globalFlags override environment configuration when set.
type globalFlags struct {
	logLevel      string
	strategy      string
	contrastLevel int
	maxDimension  int
	workers       int
}

// New returns the root xray-tools command.
func New(info BuildInfo) *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   "xray-tools",
		Short: "Radiograph enhancement and anomaly screening",
		Long: `xray-tools enhances radiographs and screens them for structural
discontinuities. It runs as an MCP stdio server, an HTTP API or a one-shot
command. Results are heuristic screening aids, not diagnoses.

Settings are read from XRAY_* environment variables; flags override them.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&g.strategy, "strategy", "", "detector: neighbor_deviation or convolution_kernel")
	pf.IntVar(&g.contrastLevel, "contrast-level", 0, "contrast stretch level, strictly between -255 and 259")
	pf.IntVar(&g.maxDimension, "max-dimension", 0, "downsize captures whose longer side exceeds this (0 disables)")
	pf.IntVar(&g.workers, "workers", 0, "row partitions per stage")

	cmd.AddCommand(
		mcpCmd(&g, info),
		serveCmd(&g, info),
		analyzeCmd(&g),
		versionCmd(info),
	)
	return cmd
}

// loadConfig reads the environment and applies the flags the user set.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("strategy") {
		st, err := detection.ParseStrategy(g.strategy)
		if err != nil {
			return nil, err
		}
		if st != cfg.Engine.Strategy {
			preset := engine.PresetFor(st)
			preset.ContrastLevel = cfg.Engine.ContrastLevel
			preset.Workers = cfg.Engine.Workers
			preset.TopK = cfg.Engine.TopK
			cfg.Engine = preset
		}
	}
	if flags.Changed("contrast-level") {
		cfg.Engine.ContrastLevel = g.contrastLevel
	}
	if flags.Changed("max-dimension") {
		cfg.MaxDimension = g.maxDimension
	}
	if flags.Changed("workers") {
		cfg.Engine.Workers = g.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the JSON logger on the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) *logrus.Logger {
	return logger.New(cfg.LogLevel, cmd.ErrOrStderr())
}

// newService wires storage, cache and service for cfg.
func newService(cfg *config.Config, log *logrus.Logger) (*service.Service, error) {
	router := storage.NewRouter()
	if cfg.AzureEnabled() {
		az, err := storage.NewAzureFetcher(cfg.AzureAccount, cfg.AzureKey)
		if err != nil {
			return nil, fmt.Errorf("azure storage: %w", err)
		}
		router.Azure = az
	}
	return service.New(
		imaging.NewImageCache(router,
			imaging.WithCapacity(cfg.CacheSize),
			imaging.WithTTL(cfg.CacheTTL),
		),
		cfg.Engine,
		service.WithMaxDimension(cfg.MaxDimension),
		service.WithLogger(logger.Component(log, "service")),
	)
}
