/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blogpipe/internal/config"
	"blogpipe/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blogpipe",
		Short: "Content pipeline for the coaching blog: extract, analyze, connect, migrate.",
		Long: `blogpipe turns the site's static blog pages into a content graph.

Stages:
  extract    Static HTML pages → raw article document
  analyze    Articles → psychological analysis (LLM, with fallback provenance)
  connect    Analyses → ranked "related articles" per post
  migrate    Old WordPress blog → new static post pages (deduplicated)

Examples:
  # Run extract, analyze and connect in one go
  blogpipe pipeline

  # Re-analyze everything, including real analyses
  blogpipe analyze --force

  # See what the migration would import
  blogpipe migrate --dry-run`,
		SilenceUsage: true,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.blogpipe.yaml)")

	rootCmd.AddCommand(NewExtractCmd())
	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewConnectCmd())
	rootCmd.AddCommand(NewPipelineCmd())
	rootCmd.AddCommand(NewMigrateCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewBrowseCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
}
