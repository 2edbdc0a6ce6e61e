package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"blogpipe/internal/config"
	"blogpipe/internal/core"
	"blogpipe/internal/extract"
	"blogpipe/internal/logger"
)

// NewExtractCmd creates the extract command
func NewExtractCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract articles from the site's static HTML pages",
		Long: `Parse every *.html page in the site directory into an article record
(title, category, type, excerpt, content, quotes, headings, internal links)
and write the raw extraction document.

Non-article pages (excluded names, pages without a title, pages with too
little text) are skipped and counted.

Examples:
  blogpipe extract
  blogpipe extract --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			startRun("extract")
			_, err := runExtract(cmd.Context(), cfg, dryRun)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Extract and report without writing the raw document")

	return cmd
}

func runExtract(ctx context.Context, cfg *config.Config, dryRun bool) (*core.RawDocument, error) {
	extractor := extract.New(extract.Options{
		Brand:            cfg.Extract.Brand,
		DefaultCategory:  cfg.Extract.DefaultCategory,
		MinContentLength: cfg.Extract.MinContentLength,
		ExcludeFiles:     cfg.Extract.ExcludeFiles,
	})

	articles, stats, err := extractor.ExtractDir(ctx, cfg.Paths.SiteDir, cfg.Extract.Workers)
	if err != nil {
		return nil, err
	}

	doc := &core.RawDocument{
		ExtractedAt:   core.Now(),
		TotalArticles: len(articles),
		Articles:      articles,
	}

	printExtractReport(stats)

	if dryRun {
		fmt.Println(mutedStyle.Render("Dry run: raw document not written"))
		return doc, nil
	}

	if err := newStore(cfg).SaveRaw(doc); err != nil {
		return nil, fmt.Errorf("failed to save raw document: %w", err)
	}
	logger.Info("Raw document written", "path", cfg.Paths.RawFile, "articles", len(articles))
	return doc, nil
}

func printExtractReport(stats extract.Stats) {
	printHeader("📄 Extraction")
	fmt.Printf("Files: %d | Articles: %d | Skipped: %d | Failed: %d\n",
		stats.Files, stats.Total, stats.Skipped, stats.Failed)

	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-10s %d\n", t, stats.ByType[core.ArticleType(t)])
	}
	fmt.Println()
}
