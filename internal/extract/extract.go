// Package extract turns the site's static HTML pages into Article records.
package extract

import (
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"blogpipe/internal/core"
)

// ErrSkipped marks a document that is not an article. It is not a failure:
// callers count it and move on.
var ErrSkipped = errors.New("document skipped")

const (
	DefaultMinContentLength = 100
	DefaultCategory         = "allgemein"

	excerptTarget = 200
	excerptLimit  = 250
)

// contentSelectors are tried in order; the first match is the article body.
var contentSelectors = []string{".article-content", "article", ".entry-content", ".post-content"}

// specialCategory maps a filename fragment to a category label.
type specialCategory struct {
	fragment string
	category string
}

var specialCategories = []specialCategory{
	{"quiz-", "quiz"},
	{"podcast-", "podcast"},
	{"retreat", "retreat"},
	{"ausbildung", "angebot"},
	{"einzelbegleitung", "angebot"},
	{"paarbegleitung", "angebot"},
	{"gruppenretreats", "angebot"},
	{"pferdegestuetztes-coaching", "angebot"},
}

var whitespace = regexp.MustCompile(`\s+`)

// Options configures an Extractor.
type Options struct {
	Brand            string   // Trailing brand marker stripped from titles
	DefaultCategory  string   // Used when neither markup nor filename names a category
	MinContentLength int      // Minimum visible text length, in characters
	ExcludeFiles     []string // Filenames that are never articles
}

// Extractor parses documents into articles.
type Extractor struct {
	opts        Options
	exclude     map[string]bool
	brandSuffix *regexp.Regexp
}

// New creates an Extractor, filling zero options with defaults.
func New(opts Options) *Extractor {
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = DefaultCategory
	}
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = DefaultMinContentLength
	}

	e := &Extractor{
		opts:    opts,
		exclude: make(map[string]bool, len(opts.ExcludeFiles)),
	}
	for _, name := range opts.ExcludeFiles {
		e.exclude[name] = true
	}
	if brand := strings.TrimSpace(opts.Brand); brand != "" {
		e.brandSuffix = regexp.MustCompile(`(?i)\s*[|\-–—]\s*` + regexp.QuoteMeta(brand) + `.*$`)
	}
	return e
}

// IsExcluded reports whether filename is on the exclusion list.
func (e *Extractor) IsExcluded(filename string) bool {
	return e.exclude[path.Base(filename)]
}

// Extract parses one document. Documents that are not articles yield an
// error wrapping ErrSkipped.
func (e *Extractor) Extract(filename string, r io.Reader) (core.Article, error) {
	filename = path.Base(filename)
	if e.IsExcluded(filename) {
		return core.Article{}, fmt.Errorf("%w: %s is excluded", ErrSkipped, filename)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return core.Article{}, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	title := e.extractTitle(doc)
	content := extractContent(doc)

	if title == "" {
		return core.Article{}, fmt.Errorf("%w: %s has no title", ErrSkipped, filename)
	}
	if utf8.RuneCountInString(content) < e.opts.MinContentLength {
		return core.Article{}, fmt.Errorf("%w: %s content too short (%d characters)", ErrSkipped, filename, utf8.RuneCountInString(content))
	}

	return core.Article{
		URL:           filename,
		Title:         title,
		Type:          DetectType(filename),
		Category:      e.extractCategory(doc, filename),
		Image:         extractImage(doc),
		Excerpt:       extractExcerpt(doc),
		Content:       content,
		WordCount:     len(strings.Fields(content)),
		Blockquotes:   extractBlockquotes(doc),
		Headings:      extractHeadings(doc),
		InternalLinks: e.extractInternalLinks(doc, filename),
	}, nil
}

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// StripBrand removes a trailing "| Brand" or "- Brand" marker from a title.
// Separators not followed by the brand are part of the title.
func (e *Extractor) StripBrand(title string) string {
	title = CleanText(title)
	if e.brandSuffix != nil {
		title = strings.TrimSpace(e.brandSuffix.ReplaceAllString(title, ""))
	}
	return title
}

func (e *Extractor) extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := e.StripBrand(og); t != "" {
			return t
		}
	}
	if t := e.StripBrand(doc.Find(".article-hero h1, h1").First().Text()); t != "" {
		return t
	}
	return e.StripBrand(doc.Find("title").First().Text())
}

func extractContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		sel.Find("script, style, nav, .back-link, .author-bio").Remove()
		return CleanText(sel.Text())
	}
	return ""
}

func (e *Extractor) extractCategory(doc *goquery.Document, filename string) string {
	if sel := doc.Find(".article-category").First(); sel.Length() > 0 {
		if c := strings.ToLower(CleanText(sel.Text())); c != "" {
			return c
		}
	}
	for _, sc := range specialCategories {
		if strings.HasPrefix(filename, sc.fragment) || strings.Contains(filename, sc.fragment) {
			return sc.category
		}
	}
	return e.opts.DefaultCategory
}

// DetectType classifies a document by its filename.
func DetectType(filename string) core.ArticleType {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "podcast"):
		return core.TypePodcast
	case strings.Contains(name, "retreat"):
		return core.TypeRetreat
	case strings.HasPrefix(name, "quiz-"):
		return core.TypeQuiz
	}
	for _, marker := range []string{"ausbildung", "einzelbegleitung", "paarbegleitung", "gruppenretreat"} {
		if strings.Contains(name, marker) {
			return core.TypeAngebot
		}
	}
	return core.TypeBlog
}

func extractImage(doc *goquery.Document) string {
	if src, ok := doc.Find(".featured-image img").First().Attr("src"); ok && src != "" {
		return src
	}
	if og, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && og != "" {
		if i := strings.LastIndex(og, "wp-content"); i >= 0 {
			return og[i:]
		}
		return og
	}
	if src, ok := doc.Find(".article-content img, article img").First().Attr("src"); ok && src != "" {
		return src
	}
	return ""
}

func extractExcerpt(doc *goquery.Document) string {
	body := doc.Find(".article-content").First()
	if body.Length() == 0 {
		return ""
	}

	paragraphs := body.Find("p")
	var b strings.Builder
	paragraphs.Slice(0, min(3, paragraphs.Length())).EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := CleanText(p.Text())
		if utf8.RuneCountInString(text) <= 20 {
			return true
		}
		b.WriteString(text)
		b.WriteString(" ")
		return utf8.RuneCountInString(b.String()) <= excerptTarget
	})

	excerpt := b.String()
	if utf8.RuneCountInString(excerpt) > excerptLimit {
		excerpt = string([]rune(excerpt)[:excerptLimit-3]) + "..."
	}
	return strings.TrimSpace(excerpt)
}

func extractBlockquotes(doc *goquery.Document) []string {
	quotes := []string{}
	doc.Find("blockquote").Each(func(_ int, s *goquery.Selection) {
		if text := CleanText(s.Text()); utf8.RuneCountInString(text) > 10 {
			quotes = append(quotes, text)
		}
	})
	return quotes
}

func extractHeadings(doc *goquery.Document) []core.Heading {
	headings := []core.Heading{}
	doc.Find("h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		if text := CleanText(s.Text()); utf8.RuneCountInString(text) > 3 {
			headings = append(headings, core.Heading{Level: goquery.NodeName(s), Text: text})
		}
	})
	return headings
}

func (e *Extractor) extractInternalLinks(doc *goquery.Document, self string) []core.InternalLink {
	links := []core.InternalLink{}
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasSuffix(href, ".html") || strings.HasPrefix(href, "http") || strings.HasPrefix(href, "#") {
			return
		}
		target := path.Base(href)
		if target == self || e.exclude[target] || seen[target] {
			return
		}
		seen[target] = true
		links = append(links, core.InternalLink{URL: target, Text: CleanText(a.Text())})
	})
	return links
}
