package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"blogpipe/internal/config"
	"blogpipe/internal/connect"
	"blogpipe/internal/core"
	"blogpipe/internal/llm"
	"blogpipe/internal/logger"
	"blogpipe/internal/store"
)

type connectFlags struct {
	noEmbeddings bool
	dryRun       bool
}

func (f *connectFlags) register(cmd *cobra.Command, withDryRun bool) {
	cmd.Flags().BoolVar(&f.noEmbeddings, "no-embeddings", false, "Rank with the rule-based scores only")
	if withDryRun {
		cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Compute connections without writing the document")
	}
}

// NewConnectCmd creates the connect command
func NewConnectCmd() *cobra.Command {
	var flags connectFlags

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Compute related-article connections",
		Long: `Rank, for every analyzed blog article, the most related other articles.

Scores combine category, theme, transformation, tone and life-phase overlap
with curated journey maps. When an LLM credential is configured, embedding
similarity is merged in; if embeddings fail the run degrades to rule-based
ranking and records embeddingsUsed=false.

Examples:
  blogpipe connect
  blogpipe connect --no-embeddings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			startRun("connect")
			return runConnect(cmd.Context(), cfg, flags, nil)
		},
	}

	flags.register(cmd, true)

	return cmd
}

// runConnect adds connections to doc, loading it from the store when nil.
func runConnect(ctx context.Context, cfg *config.Config, flags connectFlags, doc *core.IntelligenceDocument) error {
	st := newStore(cfg)

	if doc == nil {
		var err error
		doc, err = st.LoadIntelligence()
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("intelligence document %s not found, run 'blogpipe analyze' first", cfg.Paths.IntelligenceFile)
		}
		if err != nil {
			return err
		}
	}

	var embedder llm.Embedder
	switch {
	case flags.noEmbeddings:
		logger.Info("Embeddings disabled by flag")
	case !cfg.HasLLM():
		logger.Warn("No LLM credential configured, using rule-based connections only")
	default:
		client, _, err := newLLMClient(ctx, cfg, "")
		if err != nil {
			logger.Warn("Embeddings unavailable, using rule-based connections only", "error", err.Error())
		} else {
			embedder = client
		}
	}

	engine := connect.New(connect.Options{
		TopN:           cfg.Connect.TopN,
		EmbeddingTopN:  cfg.Connect.EmbeddingTopN,
		EmbeddingScale: cfg.Connect.EmbeddingScale,
	}, embedder)

	articles, stats, err := engine.Run(ctx, doc.Articles)
	if err != nil {
		return err
	}
	doc.Articles = articles
	doc.ConnectionsGeneratedAt = core.Now()
	doc.EmbeddingsUsed = stats.EmbeddingsUsed

	printConnectReport(stats)

	if flags.dryRun {
		fmt.Println(mutedStyle.Render("Dry run: intelligence document not written"))
		return nil
	}

	if err := st.SaveIntelligence(doc); err != nil {
		return fmt.Errorf("failed to save intelligence document: %w", err)
	}
	logger.Info("Connections written", "path", cfg.Paths.IntelligenceFile, "connections", stats.Connections)
	return nil
}

func printConnectReport(stats connect.Stats) {
	printHeader("🔗 Connections")
	mode := "rules only"
	if stats.EmbeddingsUsed {
		mode = "rules + embeddings"
	}
	fmt.Printf("Articles: %d | Connections: %d | Mode: %s\n", stats.Articles, stats.Connections, mode)
	if stats.Isolated > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Articles without connections: %d", stats.Isolated)))
	}
	if stats.MissingAnalysis > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Articles without analysis: %d", stats.MissingAnalysis)))
	}

	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-17s %d\n", t, stats.ByType[core.ConnectionType(t)])
	}
	fmt.Println()
}
