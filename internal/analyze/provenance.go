package analyze

import "blogpipe/internal/core"

// Fixed texts of synthesised analyses. Records written before the explicit
// marker existed are recognised by these values.
const (
	FallbackVon           = "Suche"
	FallbackZu            = "Erkenntnis"
	FallbackLeserProfil   = "Menschen auf der Suche nach Orientierung"
	FallbackJustification = "Dieser Artikel könnte dir neue Perspektiven eröffnen."

	// fallbackIndicatorThreshold is how many fixed texts must match.
	fallbackIndicatorThreshold = 3
)

// FallbackIndicators counts how many fixed fallback texts a record carries.
func FallbackIndicators(a core.Analysis) int {
	n := 0
	if a.Transformation.Von == FallbackVon {
		n++
	}
	if a.Transformation.Zu == FallbackZu {
		n++
	}
	if a.LeserProfil == FallbackLeserProfil {
		n++
	}
	if len(a.EmpfehlungsBegruendungen) > 0 && a.EmpfehlungsBegruendungen[0] == FallbackJustification {
		n++
	}
	return n
}

// LooksLikeFallback applies the heuristic for unmarked legacy records.
func LooksLikeFallback(a core.Analysis) bool {
	return FallbackIndicators(a) >= fallbackIndicatorThreshold
}

// IsProtected reports whether a is a real classifier result that no later
// run may replace with a fallback.
func IsProtected(a *core.Analysis) bool {
	return a != nil && !a.IsFallback && !LooksLikeFallback(*a)
}

// Previous holds the analyses found in an earlier intelligence document,
// split by provenance.
type Previous struct {
	Protected map[string]core.Analysis
	Fallback  map[string]core.Analysis
}

// SplitPrevious sorts the analyses of doc into protected and fallback records.
// A nil doc yields empty maps.
func SplitPrevious(doc *core.IntelligenceDocument) Previous {
	prev := Previous{
		Protected: make(map[string]core.Analysis),
		Fallback:  make(map[string]core.Analysis),
	}
	if doc == nil {
		return prev
	}

	for _, article := range doc.Articles {
		if article.Analysis == nil {
			continue
		}
		a := *article.Analysis
		if IsProtected(&a) {
			prev.Protected[article.URL] = a
			continue
		}
		// Legacy records get the marker so later stages see it explicitly.
		a.IsFallback = true
		prev.Fallback[article.URL] = a
	}
	return prev
}

// Lookup returns the previous analysis for url, preferring a protected one.
func (p Previous) Lookup(url string) (core.Analysis, bool) {
	if a, ok := p.Protected[url]; ok {
		return a, true
	}
	a, ok := p.Fallback[url]
	return a, ok
}
