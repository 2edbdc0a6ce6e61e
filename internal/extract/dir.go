package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"blogpipe/internal/core"
	"blogpipe/internal/logger"
	"blogpipe/internal/workpool"
)

// Stats summarises one extraction run.
type Stats struct {
	Files   int
	Total   int
	Skipped int
	Failed  int
	ByType  map[core.ArticleType]int
}

// ExtractFile opens and extracts a single file.
func (e *Extractor) ExtractFile(path string) (core.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Article{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return e.Extract(filepath.Base(path), f)
}

// ExtractDir extracts every *.html file directly inside dir. Skipped and
// unreadable documents are logged and counted, never fatal. Articles are
// returned sorted by filename.
func (e *Extractor) ExtractDir(ctx context.Context, dir string, workers int) ([]core.Article, Stats, error) {
	stats := Stats{ByType: make(map[core.ArticleType]int)}

	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, stats, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, stats, fmt.Errorf("failed to read site directory: %w", err)
	}
	stats.Files = len(files)

	results := workpool.Run(ctx, workers, files,
		filepath.Base,
		func(_ context.Context, path string) (core.Article, error) {
			return e.ExtractFile(path)
		})

	articles := make([]core.Article, 0, len(results))
	for _, r := range results {
		switch {
		case errors.Is(r.Err, ErrSkipped):
			stats.Skipped++
			logger.Debug("Skipped document", "url", r.Key, "reason", r.Err.Error())
		case r.Err != nil:
			stats.Failed++
			logger.Warn("Failed to extract document", "url", r.Key, "error", r.Err.Error())
		default:
			articles = append(articles, r.Value)
			stats.Total++
			stats.ByType[r.Value.Type]++
		}
	}

	sort.Slice(articles, func(i, j int) bool { return articles[i].URL < articles[j].URL })
	return articles, stats, nil
}
