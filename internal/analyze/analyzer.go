package analyze

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"blogpipe/internal/core"
	"blogpipe/internal/logger"
)

// DefaultRateLimit is the pause enforced between consecutive classifier calls.
const DefaultRateLimit = 2500 * time.Millisecond

// Options controls one analyzer run.
type Options struct {
	SkipExisting bool // Reuse fallback records too instead of retrying them
	Force        bool // Re-classify protected records; a failure keeps the old record
	Limit        int  // Process at most Limit blog articles; 0 means all
	DryRun       bool // Decide what would happen without calling the classifier
}

// Stats summarises an analyzer run.
type Stats struct {
	Blog           int // Blog articles in the input
	Protected      int // Real analyses reused
	Reused         int // Fallback analyses reused because of SkipExisting
	Classified     int // Successful classifier calls
	Fallback       int // Fallbacks synthesised after a failed call
	KeptOnFailure  int // Forced re-classifications that failed and kept the real record
	Pending        int // Classifier calls a dry run would make
	CarriedForward int // Articles beyond Limit
}

// Analyzer enriches blog articles with an Analysis.
type Analyzer struct {
	classifier Classifier
	limiter    *rate.Limiter
}

// NewAnalyzer creates an analyzer that waits delay between classifier calls.
func NewAnalyzer(classifier Classifier, delay time.Duration) *Analyzer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Analyzer{
		classifier: classifier,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Run analyzes the blog articles of articles. previous is the last
// intelligence document, or nil. The returned slice holds only blog
// articles, in input order.
//
// A protected analysis is never replaced by a fallback, whatever the options.
func (a *Analyzer) Run(ctx context.Context, articles []core.Article, previous *core.IntelligenceDocument, opts Options) ([]core.Article, Stats, error) {
	var stats Stats
	prev := SplitPrevious(previous)

	var blog []core.Article
	for _, article := range articles {
		if article.IsBlog() {
			blog = append(blog, article)
		}
	}
	stats.Blog = len(blog)

	results := make([]core.Article, 0, len(blog))
	for i, article := range blog {
		article.Related = nil

		if opts.Limit > 0 && i >= opts.Limit {
			if old, ok := prev.Lookup(article.URL); ok {
				article.Analysis = &old
			}
			stats.CarriedForward++
			results = append(results, article)
			continue
		}

		analysis, err := a.analyzeOne(ctx, article, prev, opts, &stats)
		if err != nil {
			return nil, stats, err
		}
		article.Analysis = analysis
		results = append(results, article)
	}

	return results, stats, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, article core.Article, prev Previous, opts Options, stats *Stats) (*core.Analysis, error) {
	protected, hasProtected := prev.Protected[article.URL]
	if hasProtected && !opts.Force {
		stats.Protected++
		logger.Debug("Reusing protected analysis", "url", article.URL)
		return &protected, nil
	}

	if opts.SkipExisting && !hasProtected {
		if fb, ok := prev.Fallback[article.URL]; ok {
			stats.Reused++
			logger.Debug("Reusing fallback analysis", "url", article.URL)
			return &fb, nil
		}
	}

	if opts.DryRun {
		stats.Pending++
		if old, ok := prev.Lookup(article.URL); ok {
			return &old, nil
		}
		return nil, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	analysis, err := a.classifier.Classify(ctx, article)
	if err == nil {
		stats.Classified++
		logger.Info("Classified article", "url", article.URL, "tone", analysis.EmotionaleTonalitaet)
		return &analysis, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", ctx.Err())
	}

	if hasProtected {
		stats.KeptOnFailure++
		logger.Warn("Classification failed, keeping protected analysis", "url", article.URL, "error", err.Error())
		return &protected, nil
	}

	stats.Fallback++
	logger.Warn("Classification failed, using fallback", "url", article.URL, "error", err.Error())
	fb := Fallback(article)
	return &fb, nil
}
