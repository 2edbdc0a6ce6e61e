// Package connect ranks, for every blog article, the other articles a reader
// should continue with, and explains each recommendation.
package connect

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"blogpipe/internal/core"
	"blogpipe/internal/llm"
	"blogpipe/internal/logger"
)

const (
	DefaultTopN           = 10
	DefaultEmbeddingTopN  = 15
	DefaultEmbeddingScale = 50.0

	excerptLength = 150
)

// Options tunes list sizes and the embedding weight.
type Options struct {
	TopN           int     // Connections kept per article
	EmbeddingTopN  int     // Nearest neighbours considered per article
	EmbeddingScale float64 // Multiplier bringing cosine similarity to rule score magnitude
}

// Stats summarises a connection run.
type Stats struct {
	Articles        int                         // Blog articles ranked
	Connections     int                         // Connections written
	Isolated        int                         // Articles left without any connection
	MissingAnalysis int                         // Articles ranked without an analysis
	EmbeddingsUsed  bool                        // Whether embedding similarity contributed
	ByType          map[core.ConnectionType]int // Connections per type
}

// Engine computes connection lists.
type Engine struct {
	opts     Options
	embedder llm.Embedder
}

// New creates an engine. A nil embedder selects rule-based ranking only.
func New(opts Options, embedder llm.Embedder) *Engine {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.EmbeddingTopN <= 0 {
		opts.EmbeddingTopN = DefaultEmbeddingTopN
	}
	if opts.EmbeddingScale <= 0 {
		opts.EmbeddingScale = DefaultEmbeddingScale
	}
	return &Engine{opts: opts, embedder: embedder}
}

// Run returns articles with Related recomputed for every blog article.
// Other articles are returned unchanged. Embedding failures are logged and
// degrade to rule-based ranking; only cancellation aborts the run.
func (e *Engine) Run(ctx context.Context, articles []core.Article) ([]core.Article, Stats, error) {
	stats := Stats{ByType: make(map[core.ConnectionType]int)}

	var corpus []core.Article
	for _, a := range articles {
		if !a.IsBlog() {
			continue
		}
		if a.Analysis == nil {
			stats.MissingAnalysis++
		}
		corpus = append(corpus, a)
	}
	stats.Articles = len(corpus)

	var similar map[string][]candidate
	if e.embedder != nil && len(corpus) > 1 {
		var err error
		similar, err = e.similarityLists(ctx, corpus)
		switch {
		case ctx.Err() != nil:
			return nil, stats, fmt.Errorf("connection run interrupted: %w", ctx.Err())
		case err != nil:
			logger.Warn("Embeddings unavailable, using rule-based connections only", "error", err.Error())
			similar = nil
		default:
			stats.EmbeddingsUsed = true
		}
	}

	lookup := make(map[string]core.Article, len(corpus))
	for _, a := range corpus {
		lookup[a.URL] = a
	}

	related := make(map[string][]core.Connection, len(corpus))
	for _, source := range corpus {
		cands := ruleCandidates(source, corpus, e.opts.TopN)
		if similar != nil {
			cands = merge(similar[source.URL], cands, e.opts.TopN)
		}

		conns := make([]core.Connection, 0, len(cands))
		for _, c := range cands {
			target, ok := lookup[c.url]
			if !ok {
				continue
			}
			conns = append(conns, render(source, target, c))
			stats.ByType[c.typ]++
		}
		if len(conns) == 0 {
			stats.Isolated++
		}
		stats.Connections += len(conns)
		related[source.URL] = conns
	}

	out := make([]core.Article, len(articles))
	for i, a := range articles {
		if conns, ok := related[a.URL]; ok && a.IsBlog() {
			a.Related = conns
		}
		out[i] = a
	}
	return out, stats, nil
}

// similarityLists embeds the corpus and returns, per url, the nearest
// neighbours by cosine similarity with scaled scores and no type.
func (e *Engine) similarityLists(ctx context.Context, corpus []core.Article) (map[string][]candidate, error) {
	texts := make([]string, len(corpus))
	for i, a := range corpus {
		texts[i] = EmbeddingText(a)
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed articles: %w", err)
	}
	if len(vectors) != len(corpus) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d articles", len(vectors), len(corpus))
	}

	lists := make(map[string][]candidate, len(corpus))
	for i, a := range corpus {
		sims := make([]candidate, 0, len(corpus)-1)
		for j, other := range corpus {
			if i == j {
				continue
			}
			sim := llm.CosineSimilarity(vectors[i], vectors[j])
			sims = append(sims, candidate{url: other.URL, score: sim * e.opts.EmbeddingScale})
		}
		sortCandidates(sims)
		if len(sims) > e.opts.EmbeddingTopN {
			sims = sims[:e.opts.EmbeddingTopN]
		}
		lists[a.URL] = sims
	}
	return lists, nil
}

// EmbeddingText is the text an article is embedded as.
func EmbeddingText(a core.Article) string {
	an := analysisOf(a)
	return strings.Join([]string{a.Title, an.Kernbotschaft, strings.Join(an.Tiefenthemen, " ")}, " ")
}

// merge sums embedding and rule scores per target. The rule type wins;
// targets only the embeddings found are complementary. Targets whose
// summed score is not positive are dropped.
func merge(similar, rules []candidate, topN int) []candidate {
	byURL := make(map[string]*candidate, len(similar)+len(rules))
	var order []*candidate

	for _, s := range similar {
		c := s
		byURL[c.url] = &c
		order = append(order, &c)
	}
	for _, r := range rules {
		if c, ok := byURL[r.url]; ok {
			c.score += r.score
			c.typ = r.typ
			continue
		}
		c := r
		byURL[c.url] = &c
		order = append(order, &c)
	}

	out := make([]candidate, 0, len(order))
	for _, c := range order {
		if c.score <= 0 {
			continue
		}
		if c.typ == "" {
			c.typ = core.ConnErgaenzung
		}
		out = append(out, *c)
	}
	sortCandidates(out)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// sortCandidates orders by descending score, then ascending url.
func sortCandidates(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].url < cands[j].url
	})
}

func render(source, target core.Article, c candidate) core.Connection {
	return core.Connection{
		URL:      target.URL,
		Title:    target.Title,
		Image:    target.Image,
		Excerpt:  truncateRunes(target.Excerpt, excerptLength),
		Category: target.Category,
		Reason:   Reason(source, target, c.typ),
		Type:     c.typ,
		Score:    math.Round(c.score*100) / 100,
	}
}

// Reason explains why target follows source. The target's own
// justifications are preferred; otherwise a template for typ is used,
// personalised with the target's first theme. The choice is stable for a
// given pair.
func Reason(source, target core.Article, typ core.ConnectionType) string {
	h := fnv.New32a()
	h.Write([]byte(source.URL))
	h.Write([]byte{0})
	h.Write([]byte(target.URL))
	pick := func(options []string) string {
		return options[h.Sum32()%uint32(len(options))]
	}

	an := analysisOf(target)
	if len(an.EmpfehlungsBegruendungen) > 0 {
		return pick(an.EmpfehlungsBegruendungen)
	}

	templates, ok := reasonTemplates[typ]
	if !ok {
		templates = reasonTemplates[core.ConnErgaenzung]
	}
	base := pick(templates)

	if len(an.Tiefenthemen) > 0 {
		return base + " – über " + strings.ReplaceAll(an.Tiefenthemen[0], "-", " ")
	}
	return base
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
