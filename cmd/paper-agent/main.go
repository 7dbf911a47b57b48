// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-agent CLI. Each subcommand
// drives the stage-agent pipeline or one of its supporting components:
// run, phase, render, search and version.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-agent/internal/logging"
	"github.com/pdiddy/paper-agent/internal/secrets"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// appConfig is the configuration resolved in PersistentPreRunE.
	appConfig types.Config

	// logger is built from appConfig.Log before any subcommand runs.
	logger = zap.NewNop()

	// loadedSecrets holds values loaded from the secrets directory at startup.
	loadedSecrets map[string]string
)

// secretDefault returns fallback when set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the paper-agent CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-agent",
	Short: "Draft an academic paper with a pipeline of stage agents",
	Long: `paper-agent drafts an academic paper from a title, authors and keywords.
Six stage agents run in four phases: research, writing, review and
finalization. Each agent reads the shared context, calls academic search
APIs or a text-generation model, and merges its results back.

Run the whole pipeline with "run", or one phase at a time with "phase";
progress is kept in a session file that "render" turns into a paper.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("names", keys))
		}

		cfg.Search.SemanticScholarAPIKey = secretDefault("semantic-scholar-api-key", cfg.Search.SemanticScholarAPIKey)
		cfg.Search.OpenAlexEmail = secretDefault("openalex-email", cfg.Search.OpenAlexEmail)
		cfg.Search.Concurrency = cfg.Pipeline.Concurrency
		appConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-agent.yaml or ~/.config/paper-agent/paper-agent.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of plain-text secret files")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus text metrics to this file after the command")
	rootCmd.PersistentFlags().Bool("trace", false, "export OpenTelemetry spans to stderr")
	rootCmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func setDefaults() {
	viper.SetDefault("generation.provider", string(types.ProviderOpenAI))
	viper.SetDefault("generation.model", "")
	viper.SetDefault("generation.base_url", "")
	viper.SetDefault("generation.max_tokens", 4096)
	viper.SetDefault("generation.timeout", 120*time.Second)
	viper.SetDefault("generation.requests_per_second", 0)

	viper.SetDefault("search.backends", []string{"arxiv", "semantic_scholar"})
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.user_agent", "paper-agent/"+version)
	viper.SetDefault("search.semantic_scholar_api_key", "")
	viper.SetDefault("search.openalex_email", "")

	viper.SetDefault("pipeline.concurrency", 1)
	viper.SetDefault("pipeline.style", "IEEE")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-agent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-agent"))
		}
	}

	viper.SetEnvPrefix("PAPER_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged viper settings into a Config, matching keys
// against the yaml tag names.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
