package handlers

import (
	"context"

	"github.com/spf13/cobra"

	"blogpipe/internal/config"
)

// NewPipelineCmd creates the pipeline command
func NewPipelineCmd() *cobra.Command {
	var (
		analyzeOpts analyzeFlags
		connectOpts connectFlags
	)

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run extract, analyze and connect in sequence",
		Long: `Run the full content pipeline: extract the site's pages, analyze the blog
articles and compute their connections.

With --dry-run nothing is written and no classifier calls are made; the
connection stage then ranks the previous analyses.

Examples:
  blogpipe pipeline
  blogpipe pipeline --limit 5 --no-embeddings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			startRun("pipeline")
			return runPipeline(cmd.Context(), cfg, analyzeOpts, connectOpts)
		},
	}

	analyzeOpts.register(cmd)
	connectOpts.register(cmd, false)

	return cmd
}

// runPipeline checks the classifier credential before any stage touches a file.
func runPipeline(ctx context.Context, cfg *config.Config, analyzeOpts analyzeFlags, connectOpts connectFlags) error {
	if err := requireClassifier(cfg, analyzeOpts); err != nil {
		return err
	}

	raw, err := runExtract(ctx, cfg, analyzeOpts.opts.DryRun)
	if err != nil {
		return err
	}
	doc, err := runAnalyze(ctx, cfg, analyzeOpts, raw)
	if err != nil {
		return err
	}
	connectOpts.dryRun = analyzeOpts.opts.DryRun
	return runConnect(ctx, cfg, connectOpts, doc)
}
