package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"blogpipe/internal/analyze"
	"blogpipe/internal/config"
	"blogpipe/internal/core"
	"blogpipe/internal/logger"
	"blogpipe/internal/store"
)

type analyzeFlags struct {
	provider string
	opts     analyze.Options
}

func (f *analyzeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM backend: gemini or vertex (default from config)")
	cmd.Flags().IntVar(&f.opts.Limit, "limit", 0, "Analyze at most N blog articles; the rest keep their previous analysis")
	cmd.Flags().BoolVar(&f.opts.SkipExisting, "skip-existing", false, "Reuse fallback analyses instead of retrying them")
	cmd.Flags().BoolVar(&f.opts.Force, "force", false, "Re-classify real analyses too (a failure keeps the old one)")
	cmd.Flags().BoolVar(&f.opts.DryRun, "dry-run", false, "Report what would be classified without calling the LLM or writing")
}

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify blog articles with the LLM",
		Long: `Enrich every blog article of the raw document with a psychological analysis:
core message, emotional tone, transformation, themes, life phase and reader profile.

Real analyses from the previous run are reused. Fallback analyses (written when
the classifier failed) are retried unless --skip-existing is set. A fallback
never replaces a real analysis, even with --force.

Examples:
  blogpipe analyze
  blogpipe analyze --limit 10
  blogpipe analyze --force --provider vertex
  blogpipe analyze --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			startRun("analyze")
			_, err := runAnalyze(cmd.Context(), cfg, flags, nil)
			return err
		},
	}

	flags.register(cmd)

	return cmd
}

// runAnalyze analyzes raw, loading it from the store when nil.
func runAnalyze(ctx context.Context, cfg *config.Config, flags analyzeFlags, raw *core.RawDocument) (*core.IntelligenceDocument, error) {
	st := newStore(cfg)

	if raw == nil {
		var err error
		raw, err = st.LoadRaw()
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("raw document %s not found, run 'blogpipe extract' first", cfg.Paths.RawFile)
		}
		if err != nil {
			return nil, err
		}
	}

	previous, err := st.LoadIntelligenceOrEmpty()
	if err != nil {
		return nil, fmt.Errorf("failed to load previous analyses: %w", err)
	}

	var classifier analyze.Classifier = noClassifier{}
	provider := previous.Provider
	if !flags.opts.DryRun {
		if err := requireClassifier(cfg, flags); err != nil {
			return nil, err
		}
		client, name, err := newLLMClient(ctx, cfg, flags.provider)
		if err != nil {
			return nil, err
		}
		provider = name
		classifier = analyze.NewLLMClassifier(client,
			analyze.WithContentBudget(cfg.Analyze.ContentBudget),
			analyze.WithMaxBlockquotes(cfg.Analyze.MaxBlockquotes),
			analyze.WithGeneration(cfg.AI.Gemini.MaxTokens, cfg.AI.Gemini.Temperature))
	}

	analyzer := analyze.NewAnalyzer(classifier, config.Duration(cfg.Analyze.RateLimit, analyze.DefaultRateLimit))
	articles, stats, err := analyzer.Run(ctx, raw.Articles, previous, flags.opts)
	if err != nil {
		return nil, err
	}

	doc := &core.IntelligenceDocument{
		AnalyzedAt: core.Now(),
		Provider:   provider,
		Articles:   articles,
	}

	printAnalyzeReport(stats, flags.opts.DryRun)

	if flags.opts.DryRun {
		return doc, nil
	}

	if err := st.SaveIntelligence(doc); err != nil {
		return nil, fmt.Errorf("failed to save intelligence document: %w", err)
	}
	logger.Info("Intelligence document written", "path", cfg.Paths.IntelligenceFile, "articles", len(articles))
	return doc, nil
}

// requireClassifier applies --provider and fails when a real run would have
// no credential. Dry runs never call the classifier.
func requireClassifier(cfg *config.Config, flags analyzeFlags) error {
	if flags.opts.DryRun {
		return nil
	}
	if flags.provider != "" {
		cfg.AI.Gemini.Backend = flags.provider
	}
	return cfg.RequireLLM()
}

// noClassifier stands in during dry runs, where the analyzer never calls it.
type noClassifier struct{}

func (noClassifier) Classify(context.Context, core.Article) (core.Analysis, error) {
	return core.Analysis{}, errors.New("classifier not available in dry run")
}

func printAnalyzeReport(stats analyze.Stats, dryRun bool) {
	printHeader("🧠 Analysis")
	fmt.Printf("Blog articles: %d\n", stats.Blog)
	fmt.Printf("  Reused (real):      %d\n", stats.Protected)
	fmt.Printf("  Reused (fallback):  %d\n", stats.Reused)
	fmt.Printf("  Classified:         %d\n", stats.Classified)
	if stats.Fallback > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("  Fallback:           %d", stats.Fallback)))
	} else {
		fmt.Printf("  Fallback:           %d\n", stats.Fallback)
	}
	if stats.KeptOnFailure > 0 {
		fmt.Printf("  Kept on failure:    %d\n", stats.KeptOnFailure)
	}
	if stats.CarriedForward > 0 {
		fmt.Printf("  Beyond --limit:     %d\n", stats.CarriedForward)
	}
	if dryRun {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("Dry run: %d classifier calls pending, nothing written", stats.Pending)))
	}
	fmt.Println()
}
