// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath  string
	logLevel    string
	logFormat   string
	metricsDump bool

	cfg    *config.Config
	logger zerolog.Logger

	store    songStore
	closeFn  func() error
	engine   *recommend.Engine
	skipSeed bool
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "cadence",
		Short: "Multimodal music recommendations",
		Long: `Cadence ranks songs by fusing pre-computed audio, cover-image and lyrics
vectors. Recommendations can start from a song, a mood, an image vector,
a user's listening history, or plain popularity.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd, a)

	rootCmd.AddCommand(
		newImportCmd(a),
		newRecommendCmd(a),
		newSongsCmd(a),
		newMoodsCmd(a),
		newInteractionCmd(a, "like"),
		newInteractionCmd(a, "play"),
		newWatchCmd(a),
	)
	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command, a *app) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: $CADENCE_CONFIG or ./cadence.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level override (trace|debug|info|warn|error|disabled)")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format override (json|console)")
	flags.BoolVar(&a.metricsDump, "metrics-dump", false, "Print Prometheus metrics to stderr on exit")
}

// loadConfig loads koanf configuration, applies flag overrides and
// initializes the global logger.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadWithKoanf(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if flags.Changed("metrics-dump") {
		cfg.Metrics.Dump = a.metricsDump
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flag override: %w", err)
	}

	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	logging.Init(lc)

	a.cfg = cfg
	a.logger = logging.WithComponent("cli")
	return nil
}
