// Package crawl reads the old WordPress blog: paginated listing pages yield
// post descriptors, and single posts are downloaded as raw HTML.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"blogpipe/internal/core"
	"blogpipe/internal/logger"
	"blogpipe/internal/slug"
)

// ErrNoMorePages is returned for a listing page that does not exist.
var ErrNoMorePages = errors.New("no more listing pages")

const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
	DefaultTimeout   = 10 * time.Second
	DefaultMaxPages  = 100

	defaultCategory = "Uncategorized"
)

// categoryMapping renames old WordPress category labels. Unknown labels pass through.
var categoryMapping = map[string]string{
	"Achtsamkeit":       "Achtsamkeit",
	"Ehe_Partnerschaft": "Beziehung",
	"Elternsein":        "Eltern",
	"Heldinnenreise":    "Heldinnenreise",
	"Hochbegabung":      "Hochbegabung",
	"Losgehen":          "Neuanfang",
	"Pferdegestützte Persönlichkeitsentwicklung": "Pferde",
	"Podcast":                 "Podcast",
	"Selbstliebe":             "Selbstliebe",
	"Symptomarbeit":           "Körper & Heilung",
	"systemische Aufstellung": "Aufstellungen",
	"Visionsarbeit":           "Vision",
	"Uncategorized":           "Allgemein",
}

// MapCategory returns the site category for an old blog category label.
func MapCategory(label string) string {
	if mapped, ok := categoryMapping[label]; ok {
		return mapped
	}
	return label
}

// Options configures a Crawler.
type Options struct {
	BaseURL   string
	BlogPath  string
	UserAgent string
	Timeout   time.Duration
	MaxPages  int
}

// Crawler fetches listing pages and posts from one site.
type Crawler struct {
	client    *http.Client
	base      *url.URL
	blogURL   string
	userAgent string
	maxPages  int
}

// New creates a crawler for opts.BaseURL.
func New(opts Options) (*Crawler, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	blogPath := "/" + strings.Trim(opts.BlogPath, "/")

	return &Crawler{
		client:    &http.Client{Timeout: opts.Timeout},
		base:      base,
		blogURL:   strings.TrimRight(base.String()+blogPath, "/"),
		userAgent: opts.UserAgent,
		maxPages:  opts.MaxPages,
	}, nil
}

// BaseURL returns the site root the crawler was created for.
func (c *Crawler) BaseURL() string {
	return c.base.String()
}

// PageURL returns the listing page url for page (1-based).
func (c *Crawler) PageURL(page int) string {
	if page <= 1 {
		return c.blogURL
	}
	return fmt.Sprintf("%s/page/%d", c.blogURL, page)
}

// CrawlAll walks the listing pages until one is missing, lists no posts or
// fails. A failing page ends pagination but is not an error; only context
// cancellation is.
func (c *Crawler) CrawlAll(ctx context.Context) ([]core.PostRef, error) {
	var all []core.PostRef
	for page := 1; page <= c.maxPages; page++ {
		posts, err := c.ListingPage(ctx, page)
		if ctx.Err() != nil {
			return all, fmt.Errorf("crawl interrupted: %w", ctx.Err())
		}
		if errors.Is(err, ErrNoMorePages) {
			logger.Debug("Listing pages exhausted", "page", page)
			break
		}
		if err != nil {
			logger.Warn("Listing page failed, stopping crawl", "page", page, "error", err.Error())
			break
		}
		if len(posts) == 0 {
			logger.Debug("Listing page without posts", "page", page)
			break
		}
		logger.Info("Crawled listing page", "page", page, "posts", len(posts))
		all = append(all, posts...)
	}
	return all, nil
}

// ListingPage fetches and parses one listing page.
func (c *Crawler) ListingPage(ctx context.Context, page int) ([]core.PostRef, error) {
	body, status, err := c.get(ctx, c.PageURL(page))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if status == http.StatusNotFound {
		return nil, ErrNoMorePages
	}
	return ParseListing(body, c.base)
}

// Download returns the raw HTML of a post.
func (c *Crawler) Download(ctx context.Context, postURL string) (string, error) {
	body, status, err := c.get(ctx, postURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if status != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL %s: status code %d", postURL, status)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body from %s: %w", postURL, err)
	}
	return string(data), nil
}

func (c *Crawler) get(ctx context.Context, target string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch URL %s: %w", target, err)
	}
	return resp.Body, resp.StatusCode, nil
}

// ParseListing extracts post descriptors from a listing page. Post cards are
// article or div elements whose class mentions post or entry; a card needs a
// heading whose class mentions title and a link. Relative links resolve
// against base. Cards repeating an earlier url are dropped.
func ParseListing(r io.Reader, base *url.URL) ([]core.PostRef, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	posts := []core.PostRef{}
	seen := make(map[string]bool)

	doc.Find("article, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class := s.AttrOr("class", "")
		return strings.Contains(class, "post") || strings.Contains(class, "entry")
	}).Each(func(_ int, card *goquery.Selection) {
		post, ok := parseCard(card, base)
		if !ok || seen[post.URL] {
			return
		}
		seen[post.URL] = true
		posts = append(posts, post)
	})

	return posts, nil
}

func parseCard(card *goquery.Selection, base *url.URL) (core.PostRef, bool) {
	title := card.Find("h1, h2, h3").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.AttrOr("class", ""), "title")
	}).First()
	if title.Length() == 0 {
		return core.PostRef{}, false
	}

	link := title.Find("a[href]").First()
	if link.Length() == 0 {
		link = card.Find("a[href]").First()
	}
	href, ok := link.Attr("href")
	if !ok {
		return core.PostRef{}, false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return core.PostRef{}, false
	}
	postURL := base.ResolveReference(ref).String()

	postSlug := slug.FromURL(postURL)
	if postSlug == "" {
		return core.PostRef{}, false
	}

	category := defaultCategory
	label := card.Find("a, span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(s.AttrOr("class", "")), "categor")
	}).First()
	if label.Length() > 0 {
		if text := strings.TrimSpace(label.Text()); text != "" {
			category = text
		}
	}

	return core.PostRef{
		Title:    strings.TrimSpace(title.Text()),
		URL:      postURL,
		Slug:     postSlug,
		Category: MapCategory(category),
	}, true
}
