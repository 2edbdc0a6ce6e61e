// Package dedup separates freshly crawled posts from the ones the site
// already has, by slug and by fuzzy title match.
package dedup

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"blogpipe/internal/core"
)

// DefaultThreshold is the minimum title similarity for a fuzzy match.
const DefaultThreshold = 0.85

// Match reasons.
const (
	ReasonSlug  = "slug"
	ReasonTitle = "title"
)

// Duplicate pairs a candidate with the existing post it matched.
type Duplicate struct {
	Candidate core.PostRef `json:"candidate"`
	Existing  core.PostRef `json:"existing"`
	Reason    string       `json:"reason"`
	Score     float64      `json:"score,omitempty"` // Title similarity for title matches
}

// Result is the partition produced by FindDuplicates.
type Result struct {
	Unique             []core.PostRef
	Duplicates         []Duplicate
	InternalDuplicates []core.PostRef // Candidates dropped for repeating an earlier slug
}

// Deduplicator compares candidate posts against an existing corpus.
type Deduplicator struct {
	threshold float64
}

// New creates a Deduplicator. A threshold outside (0, 1] selects the default.
func New(threshold float64) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{threshold: threshold}
}

// FindDuplicates partitions candidates into unique posts and duplicates.
// Candidates sharing a slug collapse to the first occurrence. Each remaining
// candidate is checked against existing in order; the first match wins.
func (d *Deduplicator) FindDuplicates(existing, candidates []core.PostRef) Result {
	res := Result{
		Unique:     []core.PostRef{},
		Duplicates: []Duplicate{},
	}

	seen := make(map[string]bool, len(candidates))
	deduped := make([]core.PostRef, 0, len(candidates))
	for _, c := range candidates {
		if c.Slug != "" && seen[c.Slug] {
			res.InternalDuplicates = append(res.InternalDuplicates, c)
			continue
		}
		seen[c.Slug] = true
		deduped = append(deduped, c)
	}

	for _, c := range deduped {
		if dup, ok := d.match(c, existing); ok {
			res.Duplicates = append(res.Duplicates, dup)
			continue
		}
		res.Unique = append(res.Unique, c)
	}
	return res
}

func (d *Deduplicator) match(c core.PostRef, existing []core.PostRef) (Duplicate, bool) {
	for _, e := range existing {
		if c.Slug != "" && c.Slug == e.Slug {
			return Duplicate{Candidate: c, Existing: e, Reason: ReasonSlug}, true
		}
		if score := Similarity(c.Title, e.Title); score >= d.threshold {
			return Duplicate{Candidate: c, Existing: e, Reason: ReasonTitle, Score: score}, true
		}
	}
	return Duplicate{}, false
}

// Similarity returns the case-insensitive character sequence ratio of a
// and b, in [0, 1].
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	m := difflib.NewMatcher(chars(strings.ToLower(a)), chars(strings.ToLower(b)))
	return m.Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
