package analyze

import (
	"strings"

	"blogpipe/internal/core"
)

const fallbackKernbotschaftLength = 150

var categoryThemes = map[string][]string{
	"achtsamkeit":    {"praesenz", "innere-ruhe", "moment"},
	"selbstliebe":    {"selbstakzeptanz", "selbstwert", "innerer-kritiker"},
	"beziehung":      {"kommunikation", "verbindung", "grenzen"},
	"heldinnenreise": {"lebenssinn", "transformation", "berufung"},
	"hochbegabung":   {"anderssein", "hochsensibilitaet", "potential"},
	"koerper":        {"koerperbewusstsein", "symptome", "heilung"},
}

var defaultThemes = []string{"selbsterkenntnis", "wachstum"}

var fallbackJustifications = []string{
	FallbackJustification,
	"Hier findest du weitere Impulse zu diesem Thema.",
	"Ein anderer Blickwinkel auf das, was dich beschäftigt.",
}

// Fallback synthesises a generic analysis from the article's category and
// excerpt. The result is always marked as a fallback.
func Fallback(article core.Article) core.Analysis {
	themes, ok := categoryThemes[strings.ToLower(article.Category)]
	if !ok {
		themes = defaultThemes
	}

	return core.Analysis{
		IsFallback:           true,
		Kernbotschaft:        truncateRunes(article.Excerpt, fallbackKernbotschaftLength),
		EmotionaleTonalitaet: core.ToneReflektierend,
		Transformation: core.Transformation{
			Von: FallbackVon,
			Zu:  FallbackZu,
		},
		Tiefenthemen:             append([]string(nil), themes...),
		Lebensphase:              []string{"selbstfindung"},
		CoachingMethode:          []string{},
		LeserProfil:              FallbackLeserProfil,
		EmpfehlungsBegruendungen: append([]string(nil), fallbackJustifications...),
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
