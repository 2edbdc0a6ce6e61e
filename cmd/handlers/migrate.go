package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"blogpipe/internal/clean"
	"blogpipe/internal/config"
	"blogpipe/internal/crawl"
	"blogpipe/internal/dedup"
	"blogpipe/internal/migrate"
	"blogpipe/internal/render"
)

// NewMigrateCmd creates the migrate command for importing the old blog
func NewMigrateCmd() *cobra.Command {
	var (
		dryRun   bool
		forceAll bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import posts from the old WordPress blog",
		Long: `Crawl the old blog's listing pages, drop posts that already exist on the new
site (same slug, or a title at least 85% similar), then download, clean and
render the remaining posts as static pages in the site directory.

Migrated posts are recorded in the migration cache.

Examples:
  # See what would be imported
  blogpipe migrate --dry-run

  # Import new posts
  blogpipe migrate

  # Regenerate every crawled post, existing ones included
  blogpipe migrate --force-all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			startRun("migrate")
			return runMigrate(cmd.Context(), cfg, dryRun, forceAll)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List posts that would be migrated without downloading them")
	cmd.Flags().BoolVar(&forceAll, "force-all", false, "Migrate every crawled post, even if it already exists")

	return cmd
}

func runMigrate(ctx context.Context, cfg *config.Config, dryRun, forceAll bool) error {
	crawler, err := crawl.New(crawl.Options{
		BaseURL:   cfg.Migrate.BaseURL,
		BlogPath:  cfg.Migrate.BlogPath,
		UserAgent: cfg.Migrate.UserAgent,
		Timeout:   config.Duration(cfg.Migrate.Timeout, crawl.DefaultTimeout),
		MaxPages:  cfg.Migrate.MaxPages,
	})
	if err != nil {
		return err
	}

	renderer, err := render.New(cfg.Migrate.SiteURL, cfg.Extract.Brand)
	if err != nil {
		return err
	}

	migrator := migrate.New(
		crawler,
		dedup.New(cfg.Migrate.SimilarityThreshold),
		clean.New(cfg.Migrate.BaseURL, cfg.Extract.Brand),
		renderer,
		newStore(cfg),
		migrate.Options{
			SiteDir:          cfg.Paths.SiteDir,
			Workers:          cfg.Migrate.Workers,
			MinContentLength: cfg.Migrate.MinContentLength,
			SkipPages:        cfg.Migrate.SkipPages,
			DryRun:           dryRun,
			ForceAll:         forceAll,
		})

	report, err := migrator.Run(ctx)
	if err != nil {
		return err
	}

	printMigrateReport(report)
	return nil
}

func printMigrateReport(r migrate.Report) {
	printHeader("📦 Migration")
	fmt.Printf("Crawled: %d | Existing: %d | New: %d | Duplicates: %d\n",
		r.Crawled, r.Existing, r.New, len(r.Duplicates))
	if r.InternalDuplicates > 0 {
		fmt.Printf("Repeated on the old blog: %d\n", r.InternalDuplicates)
	}

	for _, d := range r.Duplicates {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("  = %s ↔ %s (%s)", d.Candidate.Title, d.Existing.Title, d.Reason)))
	}

	if r.DryRun {
		fmt.Println()
		fmt.Printf("Would migrate %d posts:\n", len(r.Planned))
		for _, p := range r.Planned {
			fmt.Printf("  + %s [%s] %s\n", p.Slug, p.Category, p.Title)
		}
		fmt.Println(mutedStyle.Render("Dry run: nothing downloaded or written"))
		return
	}

	fmt.Printf("\n✅ Migrated: %d\n", len(r.Migrated))
	for _, m := range r.Migrated {
		fmt.Printf("  + %s.html\n", m.Slug)
	}
	if len(r.Failures) > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("❌ Failed: %d", len(r.Failures))))
		for _, f := range r.Failures {
			fmt.Printf("  - %s: %s\n", f.Post.Slug, f.Error)
		}
	}
	fmt.Println()
}
