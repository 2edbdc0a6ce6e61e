// Package clean turns a WordPress/Elementor post page into plain semantic
// HTML plus the metadata the post template needs.
package clean

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"blogpipe/internal/extract"
)

// ErrNoContent is returned when no content container is found.
var ErrNoContent = errors.New("no content container found")

// UntitledPost is used when a page carries no title at all.
const UntitledPost = "Untitled"

var contentSelectors = []string{
	".entry-content",
	".post-content",
	"article .elementor-widget-container",
	".blog-post-content",
	"article",
}

// semantic elements survive wrapper removal.
var semantic = map[atom.Atom]bool{
	atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Blockquote: true,
	atom.Strong: true, atom.Em: true, atom.A: true, atom.Img: true,
}

var renamed = map[atom.Atom]atom.Atom{
	atom.B:  atom.Strong,
	atom.I:  atom.Em,
	atom.H1: atom.H2,
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// Post is the cleaned form of a downloaded post page.
type Post struct {
	Title       string
	Description string
	Image       string // Path relative to the site root, empty when unknown
	Content     string // Sanitised HTML fragment
}

// Cleaner cleans post pages of one site.
type Cleaner struct {
	baseURL string
	titles  *extract.Extractor
	policy  *bluemonday.Policy
}

// New creates a Cleaner. baseURL is stripped from image urls; brand is
// stripped from titles.
func New(baseURL, brand string) *Cleaner {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "h2", "h3", "h4", "ul", "ol", "li", "blockquote", "strong", "em")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("mailto", "http", "https")

	return &Cleaner{
		baseURL: strings.TrimRight(baseURL, "/"),
		titles:  extract.New(extract.Options{Brand: brand}),
		policy:  p,
	}
}

// Clean parses a post page. A page without a content container still yields
// its metadata together with ErrNoContent.
func (c *Cleaner) Clean(r io.Reader) (Post, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Post{}, fmt.Errorf("failed to parse post page: %w", err)
	}

	post := Post{
		Title:       c.Title(doc),
		Description: description(doc),
		Image:       c.image(doc),
	}

	content, err := c.Content(doc)
	if err != nil {
		return post, err
	}
	post.Content = content
	return post, nil
}

// Title returns the og:title or title of a page without the brand suffix.
func (c *Cleaner) Title(doc *goquery.Document) string {
	for _, candidate := range []string{
		doc.Find(`meta[property="og:title"]`).First().AttrOr("content", ""),
		doc.Find("title").First().Text(),
	} {
		if title := c.titles.StripBrand(candidate); title != "" {
			return title
		}
	}
	return UntitledPost
}

func description(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if d := extract.CleanText(doc.Find(sel).First().AttrOr("content", "")); d != "" {
			return d
		}
	}
	return ""
}

func (c *Cleaner) image(doc *goquery.Document) string {
	img := strings.TrimSpace(doc.Find(`meta[property="og:image"]`).First().AttrOr("content", ""))
	if c.baseURL == "" || !strings.HasPrefix(img, c.baseURL+"/") {
		return ""
	}
	return strings.TrimPrefix(img, c.baseURL+"/")
}

// Content returns the sanitised inner HTML of the first content container.
// The document is modified.
func (c *Cleaner) Content(doc *goquery.Document) (string, error) {
	var container *goquery.Selection
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			container = s
			break
		}
	}
	if container == nil {
		return "", ErrNoContent
	}

	container.Find("script, style, noscript, iframe").Remove()

	root := container.Nodes[0]
	for _, n := range descendants(root) {
		stripWrapper(n)
	}
	for _, n := range descendants(root) {
		if to, ok := renamed[n.DataAtom]; ok {
			n.DataAtom = to
			n.Data = to.String()
		}
	}
	for _, n := range descendants(root) {
		if n.DataAtom != atom.Img && !hasText(n) && !hasImage(n) && n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	replaceNBSP(root)

	var buf bytes.Buffer
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", fmt.Errorf("failed to render content: %w", err)
		}
	}

	out := c.policy.Sanitize(buf.String())
	return strings.TrimSpace(blankLines.ReplaceAllString(out, "\n\n")), nil
}

// stripWrapper unwraps classed layout elements and drops class, style and
// data-* attributes from everything else.
func stripWrapper(n *html.Node) {
	hasClass := false
	for _, a := range n.Attr {
		if a.Key == "class" {
			hasClass = true
			break
		}
	}
	if hasClass && !semantic[n.DataAtom] {
		unwrap(n)
		return
	}

	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key == "class" || a.Key == "style" || strings.HasPrefix(a.Key, "data-") {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

// descendants returns the element nodes below root in document order.
func descendants(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

func hasText(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(strings.ReplaceAll(c.Data, "\u00a0", " ")) != "" {
			return true
		}
		if c.Type == html.ElementNode && hasText(c) {
			return true
		}
	}
	return false
}

func hasImage(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Img || hasImage(c)) {
			return true
		}
	}
	return false
}

func replaceNBSP(n *html.Node) {
	if n.Type == html.TextNode {
		n.Data = strings.ReplaceAll(n.Data, "\u00a0", " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		replaceNBSP(c)
	}
}

// TextLength returns the number of characters of visible text in an HTML fragment.
func TextLength(fragment string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return 0
	}
	return len([]rune(extract.CleanText(doc.Text())))
}

// WordCount returns the number of whitespace separated words of visible text
// in an HTML fragment.
func WordCount(fragment string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return 0
	}
	return len(strings.Fields(doc.Text()))
}
