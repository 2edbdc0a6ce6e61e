package connect

import "blogpipe/internal/core"

// Rule weights.
const (
	WeightSameCategory    = 15
	WeightRelatedCategory = 8
	WeightExactTheme      = 10
	WeightThemeSubstring  = 3
	WeightThemeToken      = 2
	WeightSameVon         = 8
	WeightSameZu          = 8
	WeightChain           = 15
	WeightTone            = 5
	WeightLebensphase     = 5
	WeightJourney         = 20

	// Sub scores above these thresholds override the connection type.
	themeOverride          = 15
	transformationOverride = 10
)

// reasonTemplates are the generic justifications per connection type, used
// when the target carries none of its own.
var reasonTemplates = map[core.ConnectionType][]string{
	core.ConnVertiefung: {
		"Geht noch tiefer in dieses Thema",
		"Vertieft den Gedanken aus dem aktuellen Artikel",
		"Führt dich weiter auf diesem Weg",
	},
	core.ConnNeuePerspektive: {
		"Ein anderer Blickwinkel auf das Gleiche",
		"Eine neue Perspektive, die dich überraschen könnte",
		"Schaut aus einer anderen Richtung auf dieses Thema",
	},
	core.ConnNaechsterSchritt: {
		"Der logische nächste Schritt auf deiner Reise",
		"Wenn du bereit bist, weiterzugehen...",
		"Baut auf dem auf, was du gerade gelesen hast",
	},
	core.ConnHeilungsreise: {
		"Für den nächsten Schritt deiner inneren Arbeit",
		"Wenn du tiefer in deine Heilung gehen möchtest",
		"Begleitet dich weiter auf deinem Weg",
	},
	core.ConnErgaenzung: {
		"Hängt eng damit zusammen",
		"Ein verwandtes Thema, das dich inspirieren könnte",
		"Ergänzt deine aktuelle Lektüre",
	},
}

// Journeys are evaluated in order; the last matching map sets the type.
var Journeys = []core.JourneyMap{
	{
		Name:   "angst-reise",
		Themes: []string{"angst", "angst-vor-eigener-groesse", "unsicherheit", "zweifel"},
		Next:   []string{"innere-ruhe", "koerper-als-verbuendeter", "annehmen-statt-kaempfen", "innerer-frieden", "praesenz"},
		Type:   core.ConnHeilungsreise,
	},
	{
		Name:   "selbstwert-reise",
		Themes: []string{"selbstzweifel", "innerer-kritiker", "perfektionismus", "nicht-genug-sein"},
		Next:   []string{"selbstmitgefuehl", "fehler-als-lernfeld", "selbstakzeptanz", "eigene-groesse-annehmen"},
		Type:   core.ConnNaechsterSchritt,
	},
	{
		Name:   "klarheits-reise",
		Themes: []string{"beziehungskrise", "lebensentscheidung", "orientierungslos", "unentschlossen"},
		Next:   []string{"klarheit", "intuition", "innere-fuehrung", "entscheidung"},
		Type:   core.ConnNaechsterSchritt,
	},
	{
		Name:   "loslassen-reise",
		Themes: []string{"festhalten", "kontrolle", "vergangenheit", "trauer"},
		Next:   []string{"loslassen", "annehmen", "neubeginn", "transformation"},
		Type:   core.ConnHeilungsreise,
	},
}

// relatedCategories lists, per category, the categories that complement it.
var relatedCategories = map[string][]string{
	"achtsamkeit":    {"selbstliebe", "koerper", "hochbegabung"},
	"selbstliebe":    {"achtsamkeit", "heldinnenreise", "beziehung"},
	"beziehung":      {"selbstliebe", "hochbegabung", "achtsamkeit"},
	"heldinnenreise": {"selbstliebe", "hochbegabung", "achtsamkeit"},
	"hochbegabung":   {"selbstliebe", "achtsamkeit", "koerper"},
	"koerper":        {"achtsamkeit", "hochbegabung", "selbstliebe"},
}
