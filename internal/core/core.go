package core

import "strings"

// ArticleType determines whether a document enters the analysis stages.
type ArticleType string

const (
	TypeBlog    ArticleType = "blog"
	TypePodcast ArticleType = "podcast"
	TypeRetreat ArticleType = "retreat"
	TypeAngebot ArticleType = "angebot"
	TypeQuiz    ArticleType = "quiz"
)

// Heading is a sub heading found inside an article body.
type Heading struct {
	Level string `json:"level"` // Tag name: h2, h3 or h4
	Text  string `json:"text"`  // Whitespace-collapsed heading text
}

// InternalLink points from one article to another document of the same site.
type InternalLink struct {
	URL  string `json:"url"`  // Target filename (e.g. "grenzen-setzen.html")
	Text string `json:"text"` // Anchor text
}

// Article represents one extracted site document.
type Article struct {
	URL           string         `json:"url"`                // Filename, unique within a corpus
	Title         string         `json:"title"`              // Resolved title without brand suffix
	Type          ArticleType    `json:"type"`               // blog, podcast, retreat, angebot or quiz
	Category      string         `json:"category"`           // Lowercase category label
	Image         string         `json:"image"`              // Featured image path or URL
	Excerpt       string         `json:"excerpt"`            // Lead text, roughly 200 characters
	Content       string         `json:"content"`            // Full visible text
	WordCount     int            `json:"wordCount"`          // Whitespace separated words in Content
	Blockquotes   []string       `json:"blockquotes"`        // Key statements in document order
	Headings      []Heading      `json:"headings"`           // Sub headings in document order
	InternalLinks []InternalLink `json:"internalLinks"`      // Same-site links, unique by URL
	Analysis      *Analysis      `json:"analysis,omitempty"` // Semantic analysis (blog articles only)
	Related       []Connection   `json:"related,omitempty"`  // Ranked related articles
}

// IsBlog reports whether the article is eligible for analysis and connections.
func (a Article) IsBlog() bool {
	return a.Type == TypeBlog
}

// Tone is the single emotional tonality assigned to an article.
type Tone string

const (
	ToneTroestend       Tone = "troestend"
	ToneAktivierend     Tone = "aktivierend"
	ToneReflektierend   Tone = "reflektierend"
	ToneHeilend         Tone = "heilend"
	ToneErmutigend      Tone = "ermutigend"
	ToneKonfrontierend  Tone = "konfrontierend"
	ToneLiebevoll       Tone = "liebevoll"
	ToneTransformierend Tone = "transformierend"
)

// Tones lists every valid tone in prompt order.
var Tones = []Tone{
	ToneTroestend, ToneAktivierend, ToneReflektierend, ToneHeilend,
	ToneErmutigend, ToneKonfrontierend, ToneLiebevoll, ToneTransformierend,
}

// ParseTone normalises s and reports whether it names a known tone.
func ParseTone(s string) (Tone, bool) {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tones {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Transformation describes the reader's journey from one state to another.
type Transformation struct {
	Von string `json:"von"` // Starting state, e.g. "Selbstzweifel"
	Zu  string `json:"zu"`  // Resolved state, e.g. "Selbstakzeptanz"
}

// Analysis is the semantic record attached to a blog article.
//
// IsFallback marks records synthesised without a classifier. Records written
// before the marker existed are recognised by LooksLikeFallback in the
// analyze package.
type Analysis struct {
	IsFallback               bool           `json:"_isFallback"`
	Kernbotschaft            string         `json:"kernbotschaft"`
	EmotionaleTonalitaet     Tone           `json:"emotionaleTonalitaet"`
	Transformation           Transformation `json:"transformation"`
	Tiefenthemen             []string       `json:"tiefenthemen"`
	Lebensphase              []string       `json:"lebensphase"`
	CoachingMethode          []string       `json:"coachingMethode"`
	LeserProfil              string         `json:"leserProfil"`
	EmpfehlungsBegruendungen []string       `json:"empfehlungsBegründungen"`
}

// ConnectionType classifies why one article is recommended after another.
type ConnectionType string

const (
	ConnVertiefung       ConnectionType = "vertiefung"
	ConnNeuePerspektive  ConnectionType = "neue-perspektive"
	ConnNaechsterSchritt ConnectionType = "naechster-schritt"
	ConnHeilungsreise    ConnectionType = "heilungsreise"
	ConnErgaenzung       ConnectionType = "ergaenzung"
)

// Connection is one entry of an article's related list. Display fields are
// copied from the target article when the list is computed.
type Connection struct {
	URL      string         `json:"url"`
	Title    string         `json:"title"`
	Image    string         `json:"image"`
	Excerpt  string         `json:"excerpt"`
	Category string         `json:"category"`
	Reason   string         `json:"reason"`
	Type     ConnectionType `json:"type"`
	Score    float64        `json:"score"`
}

// JourneyMap is a named transformation arc: articles touching Themes lead on
// to articles touching Next.
type JourneyMap struct {
	Name   string
	Themes []string
	Next   []string
	Type   ConnectionType
}

// PostRef is the partial descriptor the deduplicator and crawler work with.
type PostRef struct {
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	Slug     string `json:"slug"`
	Category string `json:"category,omitempty"`
	File     string `json:"file,omitempty"`
}
