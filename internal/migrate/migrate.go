// Package migrate moves posts from the old blog into the static site:
// crawl, deduplicate against the existing pages, clean, render and record
// what was written in the migration cache.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"blogpipe/internal/clean"
	"blogpipe/internal/core"
	"blogpipe/internal/dedup"
	"blogpipe/internal/logger"
	"blogpipe/internal/render"
	"blogpipe/internal/slug"
	"blogpipe/internal/store"
	"blogpipe/internal/workpool"
)

// ErrContentTooShort is returned for posts whose cleaned content is too small to publish.
var ErrContentTooShort = errors.New("cleaned content too short")

const DefaultMinContentLength = 200

// DefaultSkipPages are site pages that are never blog posts.
var DefaultSkipPages = []string{"index", "blog", "kathrin", "media", "contact", "impressum", "datenschutzerklaerung"}

// Crawler lists and downloads posts of the old blog.
type Crawler interface {
	CrawlAll(ctx context.Context) ([]core.PostRef, error)
	Download(ctx context.Context, postURL string) (string, error)
}

// Options controls a migration run.
type Options struct {
	SiteDir          string   // Where existing pages live and new pages are written
	Workers          int      // Concurrent downloads
	MinContentLength int      // Minimum cleaned content length, in characters
	SkipPages        []string // Page stems that are not posts
	DryRun           bool     // Report what would be migrated without writing
	ForceAll         bool     // Regenerate every crawled post, including duplicates
}

// Failure records a post that could not be migrated.
type Failure struct {
	Post  core.PostRef
	Error string
}

// Report summarises a migration run.
type Report struct {
	Crawled            int
	Existing           int
	New                int
	Duplicates         []dedup.Duplicate
	InternalDuplicates int
	Planned            []core.PostRef // Posts selected for migration
	Migrated           []core.MigratedPost
	Failures           []Failure
	DryRun             bool
}

// Migrator runs migrations.
type Migrator struct {
	crawler  Crawler
	dedup    *dedup.Deduplicator
	cleaner  *clean.Cleaner
	renderer *render.Renderer
	store    *store.Store
	opts     Options
}

// New creates a Migrator.
func New(crawler Crawler, deduplicator *dedup.Deduplicator, cleaner *clean.Cleaner, renderer *render.Renderer, st *store.Store, opts Options) *Migrator {
	if opts.Workers <= 0 {
		opts.Workers = workpool.DefaultWorkers
	}
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = DefaultMinContentLength
	}
	if opts.SkipPages == nil {
		opts.SkipPages = DefaultSkipPages
	}
	return &Migrator{
		crawler:  crawler,
		dedup:    deduplicator,
		cleaner:  cleaner,
		renderer: renderer,
		store:    st,
		opts:     opts,
	}
}

// Run performs one migration. Per-post failures are reported, not returned.
func (m *Migrator) Run(ctx context.Context) (Report, error) {
	report := Report{DryRun: m.opts.DryRun}

	crawled, err := m.crawler.CrawlAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to crawl old blog: %w", err)
	}
	report.Crawled = len(crawled)

	existing, err := ExistingPosts(m.opts.SiteDir, m.opts.SkipPages, m.cleaner)
	if err != nil {
		return report, err
	}
	report.Existing = len(existing)

	res := m.dedup.FindDuplicates(existing, crawled)
	report.New = len(res.Unique)
	report.Duplicates = res.Duplicates
	report.InternalDuplicates = len(res.InternalDuplicates)
	logger.Info("Deduplicated crawled posts",
		"crawled", len(crawled),
		"existing", len(existing),
		"new", len(res.Unique),
		"duplicates", len(res.Duplicates),
		"internal_duplicates", len(res.InternalDuplicates))

	report.Planned = res.Unique
	if m.opts.ForceAll {
		report.Planned = firstBySlug(crawled)
	}
	if len(report.Planned) == 0 || m.opts.DryRun {
		return report, nil
	}

	results := workpool.Run(ctx, m.opts.Workers, report.Planned,
		func(p core.PostRef) string { return p.Slug },
		m.migratePost)

	byKey := make(map[string]core.PostRef, len(report.Planned))
	for _, p := range report.Planned {
		byKey[p.Slug] = p
	}
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("Post migration failed", "slug", r.Key, "url", byKey[r.Key].URL, "error", r.Err.Error())
			report.Failures = append(report.Failures, Failure{Post: byKey[r.Key], Error: r.Err.Error()})
			continue
		}
		report.Migrated = append(report.Migrated, r.Value)
	}
	if ctx.Err() != nil {
		return report, fmt.Errorf("migration interrupted: %w", ctx.Err())
	}

	if err := m.updateCache(report.Migrated); err != nil {
		return report, err
	}
	return report, nil
}

func (m *Migrator) migratePost(ctx context.Context, ref core.PostRef) (core.MigratedPost, error) {
	raw, err := m.crawler.Download(ctx, ref.URL)
	if err != nil {
		return core.MigratedPost{}, err
	}

	post, err := m.cleaner.Clean(strings.NewReader(raw))
	if err != nil {
		return core.MigratedPost{}, err
	}
	if n := len([]rune(post.Content)); n < m.opts.MinContentLength {
		return core.MigratedPost{}, fmt.Errorf("%w: %d characters", ErrContentTooShort, n)
	}

	path, err := m.renderer.WriteFile(m.opts.SiteDir, render.Post{
		Slug:        ref.Slug,
		Title:       post.Title,
		Description: post.Description,
		Category:    ref.Category,
		Image:       post.Image,
		Content:     post.Content,
	})
	if err != nil {
		return core.MigratedPost{}, err
	}
	logger.Debug("Post migrated", "slug", ref.Slug, "path", path)

	return core.MigratedPost{
		Slug:       ref.Slug,
		Title:      post.Title,
		URL:        ref.URL,
		MigratedAt: core.Now(),
	}, nil
}

// updateCache records migrated posts, replacing earlier entries with the same slug.
func (m *Migrator) updateCache(migrated []core.MigratedPost) error {
	cache, err := m.store.LoadCache()
	if err != nil {
		return err
	}

	bySlug := make(map[string]core.MigratedPost, len(cache.Posts)+len(migrated))
	for _, p := range cache.Posts {
		bySlug[p.Slug] = p
	}
	for _, p := range migrated {
		bySlug[p.Slug] = p
	}

	cache.Posts = make([]core.MigratedPost, 0, len(bySlug))
	for _, p := range bySlug {
		cache.Posts = append(cache.Posts, p)
	}
	sort.Slice(cache.Posts, func(i, j int) bool { return cache.Posts[i].Slug < cache.Posts[j].Slug })
	cache.LastRun = core.Now()

	return m.store.SaveCache(cache)
}

// ExistingPosts lists the posts already present in dir: every *.html page
// except the skipped stems, titled from og:title or title.
func ExistingPosts(dir string, skip []string, cleaner *clean.Cleaner) ([]core.PostRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []core.PostRef{}, nil
		}
		return nil, fmt.Errorf("failed to read site directory %s: %w", dir, err)
	}

	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	posts := []core.PostRef{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".html" {
			continue
		}
		stem := slug.FromFilename(entry.Name())
		if skipped[stem] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		title, err := pageTitle(path, cleaner)
		if err != nil {
			logger.Warn("Skipping unreadable page", "file", path, "error", err.Error())
			continue
		}
		posts = append(posts, core.PostRef{Slug: stem, Title: title, File: path})
	}
	return posts, nil
}

func pageTitle(path string, cleaner *clean.Cleaner) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", err
	}
	return cleaner.Title(doc), nil
}

// firstBySlug drops posts repeating an earlier slug.
func firstBySlug(posts []core.PostRef) []core.PostRef {
	seen := make(map[string]bool, len(posts))
	out := make([]core.PostRef, 0, len(posts))
	for _, p := range posts {
		if seen[p.Slug] {
			continue
		}
		seen[p.Slug] = true
		out = append(out, p)
	}
	return out
}
