package connect

import (
	"strings"

	"blogpipe/internal/core"
)

// candidate is an unrendered connection from one article to target.
type candidate struct {
	url   string
	score float64
	typ   core.ConnectionType
}

// ThemeSimilarity scores the overlap of two theme tag lists.
func ThemeSimilarity(themes1, themes2 []string) int {
	if len(themes1) == 0 || len(themes2) == 0 {
		return 0
	}

	score := WeightExactTheme * len(intersection(themes1, themes2))

	for _, t1 := range themes1 {
		for _, t2 := range themes2 {
			if t1 == t2 {
				continue
			}
			if strings.Contains(t2, t1) || strings.Contains(t1, t2) {
				score += WeightThemeSubstring
			}
			shared := intersection(strings.Split(t1, "-"), strings.Split(t2, "-"))
			score += WeightThemeToken * len(shared)
		}
	}
	return score
}

// TransformationSimilarity scores two transformations. Empty states never match.
func TransformationSimilarity(a, b core.Transformation) int {
	score := 0
	if equalFold(a.Von, b.Von) {
		score += WeightSameVon
	}
	if equalFold(a.Zu, b.Zu) {
		score += WeightSameZu
	}
	// a resolves into the state b starts from
	if equalFold(a.Zu, b.Von) {
		score += WeightChain
	}
	return score
}

// scorePair applies the rule set to the ordered pair (a, b).
func scorePair(a, b core.Article) candidate {
	aa, ba := analysisOf(a), analysisOf(b)
	c := candidate{url: b.URL, typ: core.ConnErgaenzung}

	switch {
	case a.Category == b.Category:
		c.score += WeightSameCategory
		c.typ = core.ConnVertiefung
	case contains(relatedCategories[a.Category], b.Category):
		c.score += WeightRelatedCategory
	}

	themeScore := ThemeSimilarity(aa.Tiefenthemen, ba.Tiefenthemen)
	c.score += float64(themeScore)
	if themeScore > themeOverride {
		c.typ = core.ConnVertiefung
	}

	transScore := TransformationSimilarity(aa.Transformation, ba.Transformation)
	c.score += float64(transScore)
	if transScore > transformationOverride {
		c.typ = core.ConnNaechsterSchritt
	}

	if aa.EmotionaleTonalitaet != "" && aa.EmotionaleTonalitaet == ba.EmotionaleTonalitaet {
		c.score += WeightTone
	}
	if len(intersection(aa.Lebensphase, ba.Lebensphase)) > 0 {
		c.score += WeightLebensphase
	}

	for _, j := range Journeys {
		if intersects(aa.Tiefenthemen, j.Themes) && intersects(ba.Tiefenthemen, j.Next) {
			c.score += WeightJourney
			c.typ = j.Type
		}
	}
	return c
}

// ruleCandidates scores source against every other article and keeps the
// topN positive results.
func ruleCandidates(source core.Article, corpus []core.Article, topN int) []candidate {
	var out []candidate
	for _, other := range corpus {
		if other.URL == source.URL {
			continue
		}
		if c := scorePair(source, other); c.score > 0 {
			out = append(out, c)
		}
	}
	sortCandidates(out)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func analysisOf(a core.Article) core.Analysis {
	if a.Analysis == nil {
		return core.Analysis{}
	}
	return *a.Analysis
}

func equalFold(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// intersection returns the distinct values present in both lists, in a's order.
func intersection(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	seen := make(map[string]bool)
	for _, v := range a {
		if set[v] && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if contains(b, v) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
