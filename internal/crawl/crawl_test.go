package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const listingPage = `<html><body>
<main>
  <article class="post type-post">
    <h2 class="entry-title"><a href="/grenzen-setzen/">Grenzen setzen</a></h2>
    <a class="post-category" href="/category/ehe">Ehe_Partnerschaft</a>
  </article>
  <div class="blog-entry">
    <h3 class="card-title">Mut zur Lücke</h3>
    <a href="https://old.example.com/mut-zur-luecke/">Weiterlesen</a>
  </div>
  <article class="post">
    <h2 class="entry-title"><a href="/ohne-kategorie/">Ohne Kategorie</a></h2>
  </article>
  <article class="post">
    <h2>Kein Titel-Element</h2>
    <a href="/ignoriert/">Link</a>
  </article>
  <div class="sidebar"><h2 class="widget-title"><a href="/widget/">Widget</a></h2></div>
</main>
</body></html>`

func TestParseListing(t *testing.T) {
	base, _ := url.Parse("https://old.example.com")

	posts, err := ParseListing(strings.NewReader(listingPage), base)
	if err != nil {
		t.Fatalf("ParseListing returned error: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("Expected 3 posts, got %d: %+v", len(posts), posts)
	}

	first := posts[0]
	if first.Title != "Grenzen setzen" || first.URL != "https://old.example.com/grenzen-setzen/" || first.Slug != "grenzen-setzen" {
		t.Errorf("Unexpected first post: %+v", first)
	}
	if first.Category != "Beziehung" {
		t.Errorf("Expected mapped category Beziehung, got %q", first.Category)
	}

	if posts[1].Slug != "mut-zur-luecke" || posts[1].Category != "Allgemein" {
		t.Errorf("Expected fallback link and default category, got %+v", posts[1])
	}
	if posts[2].Category != "Allgemein" {
		t.Errorf("Expected Uncategorized to map to Allgemein, got %q", posts[2].Category)
	}
}

func TestMapCategory(t *testing.T) {
	tests := map[string]string{
		"Symptomarbeit": "Körper & Heilung",
		"Pferdegestützte Persönlichkeitsentwicklung": "Pferde",
		"Unbekannt": "Unbekannt",
	}
	for in, want := range tests {
		if got := MapCategory(in); got != want {
			t.Errorf("MapCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func newTestServer(t *testing.T, pages int) (*httptest.Server, *[]string) {
	t.Helper()
	var userAgents []string

	mux := http.NewServeMux()
	card := func(n int) string {
		return fmt.Sprintf(`<article class="post"><h2 class="entry-title"><a href="/post-%d/">Post %d</a></h2></article>`, n, n)
	}
	mux.HandleFunc("/blog", func(w http.ResponseWriter, r *http.Request) {
		userAgents = append(userAgents, r.UserAgent())
		fmt.Fprintf(w, "<html><body>%s%s</body></html>", card(1), card(2))
	})
	mux.HandleFunc("/blog/page/", func(w http.ResponseWriter, r *http.Request) {
		var n int
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/blog/page/"), "%d", &n)
		if n > pages {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "<html><body>%s</body></html>", card(n*10))
	})
	mux.HandleFunc("/post-1/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><article>Inhalt</article></body></html>")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &userAgents
}

func TestCrawlAllStopsAtMissingPage(t *testing.T) {
	server, userAgents := newTestServer(t, 3)

	c, err := New(Options{BaseURL: server.URL, BlogPath: "/blog", UserAgent: "blogpipe-test"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	posts, err := c.CrawlAll(context.Background())
	if err != nil {
		t.Fatalf("CrawlAll returned error: %v", err)
	}
	// page 1 has two posts, pages 2 and 3 one each, page 4 is missing
	if len(posts) != 4 {
		t.Fatalf("Expected 4 posts, got %d: %+v", len(posts), posts)
	}
	if posts[3].Slug != "post-30" {
		t.Errorf("Expected last post from page 3, got %+v", posts[3])
	}
	if len(*userAgents) == 0 || (*userAgents)[0] != "blogpipe-test" {
		t.Errorf("Expected configured user agent, got %v", *userAgents)
	}
}

func TestCrawlAllRespectsMaxPages(t *testing.T) {
	server, _ := newTestServer(t, 50)

	c, _ := New(Options{BaseURL: server.URL, BlogPath: "blog", MaxPages: 2})
	posts, err := c.CrawlAll(context.Background())
	if err != nil {
		t.Fatalf("CrawlAll returned error: %v", err)
	}
	if len(posts) != 3 {
		t.Errorf("Expected 3 posts from 2 pages, got %d", len(posts))
	}
}

func TestCrawlAllStopsOnEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>Nichts hier</p></body></html>")
	}))
	defer server.Close()

	c, _ := New(Options{BaseURL: server.URL, BlogPath: "/blog"})
	posts, err := c.CrawlAll(context.Background())
	if err != nil {
		t.Fatalf("CrawlAll returned error: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("Expected no posts, got %+v", posts)
	}
}

func TestDownload(t *testing.T) {
	server, _ := newTestServer(t, 1)
	c, _ := New(Options{BaseURL: server.URL, BlogPath: "/blog"})

	html, err := c.Download(context.Background(), server.URL+"/post-1/")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if !strings.Contains(html, "Inhalt") {
		t.Errorf("Unexpected body: %q", html)
	}

	if _, err := c.Download(context.Background(), server.URL+"/missing/"); err == nil {
		t.Error("Expected error for missing post")
	}
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	if _, err := New(Options{BaseURL: "not a url"}); err == nil {
		t.Error("Expected error for invalid base url")
	}
}

func TestPageURL(t *testing.T) {
	c, _ := New(Options{BaseURL: "https://old.example.com/", BlogPath: "/blog/"})
	if got := c.PageURL(1); got != "https://old.example.com/blog" {
		t.Errorf("PageURL(1) = %q", got)
	}
	if got := c.PageURL(3); got != "https://old.example.com/blog/page/3" {
		t.Errorf("PageURL(3) = %q", got)
	}
}
