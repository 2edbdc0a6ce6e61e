package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blogpipe/internal/core"
)

const samplePost = `<!DOCTYPE html>
<html>
<head>
  <title>Grenzen setzen | Kathrin Stahl</title>
  <meta property="og:title" content="Wie du gesunde Grenzen setzt - Kathrin Stahl Coaching">
  <meta property="og:image" content="https://coaching.example.com/wp-content/uploads/2021/04/grenzen.jpg">
</head>
<body>
  <nav><a href="index.html">Start</a></nav>
  <div class="article-hero"><h1>Gesunde Grenzen</h1><span class="article-category">Beziehung</span></div>
  <div class="article-content">
    <p>Kurz.</p>
    <p>Grenzen zu setzen fällt vielen Menschen schwer, besonders dann, wenn sie gelernt haben, die Bedürfnisse anderer über die eigenen zu stellen.</p>
    <p>In diesem Artikel zeige ich dir, wie du liebevoll und klar für dich einstehen kannst, ohne dich schuldig zu fühlen.</p>
    <blockquote>Ein Nein zu anderen ist oft ein Ja zu dir selbst.</blockquote>
    <blockquote>Kurz</blockquote>
    <h2>Warum Grenzen wichtig sind</h2>
    <h3>Ok</h3>
    <p>Lies auch <a href="innere-ruhe.html">Innere Ruhe</a> und <a href="../innere-ruhe.html">nochmal</a>,
       <a href="grenzen-setzen.html">diesen Artikel</a>, <a href="index.html">Start</a>,
       <a href="https://example.com/extern.html">extern</a> und <a href="#oben">oben</a>.</p>
    <script>var tracking = true;</script>
    <div class="author-bio">Über die Autorin</div>
  </div>
</body>
</html>`

func newTestExtractor() *Extractor {
	return New(Options{
		Brand:        "Kathrin Stahl",
		ExcludeFiles: []string{"index.html", "impressum.html"},
	})
}

func TestExtractArticle(t *testing.T) {
	e := newTestExtractor()

	article, err := e.Extract("grenzen-setzen.html", strings.NewReader(samplePost))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if article.URL != "grenzen-setzen.html" {
		t.Errorf("Unexpected URL %q", article.URL)
	}
	if article.Title != "Wie du gesunde Grenzen setzt" {
		t.Errorf("Expected og:title without brand suffix, got %q", article.Title)
	}
	if article.Type != core.TypeBlog {
		t.Errorf("Expected blog type, got %s", article.Type)
	}
	if article.Category != "beziehung" {
		t.Errorf("Expected category beziehung, got %q", article.Category)
	}
	if article.Image != "wp-content/uploads/2021/04/grenzen.jpg" {
		t.Errorf("Expected relativised og:image, got %q", article.Image)
	}
	if strings.Contains(article.Content, "tracking") || strings.Contains(article.Content, "Autorin") {
		t.Errorf("Scripts and author bio should be removed from content: %q", article.Content)
	}
	if article.WordCount != len(strings.Fields(article.Content)) {
		t.Errorf("WordCount %d does not match content", article.WordCount)
	}
	if !strings.HasPrefix(article.Excerpt, "Grenzen zu setzen") {
		t.Errorf("Excerpt should skip short paragraphs, got %q", article.Excerpt)
	}
	if len(article.Blockquotes) != 1 {
		t.Errorf("Expected one blockquote, got %v", article.Blockquotes)
	}
	if len(article.Headings) != 1 || article.Headings[0].Level != "h2" {
		t.Errorf("Expected one h2 heading, got %v", article.Headings)
	}

	if len(article.InternalLinks) != 1 || article.InternalLinks[0].URL != "innere-ruhe.html" {
		t.Errorf("Expected only innere-ruhe.html as internal link, got %v", article.InternalLinks)
	}
}

func TestExtractSkips(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name     string
		filename string
		html     string
	}{
		{"excluded file", "index.html", samplePost},
		{"no title", "leer.html", `<html><body><article>` + strings.Repeat("Text ", 50) + `</article></body></html>`},
		{"short content", "kurz.html", `<html><head><title>Kurz</title></head><body><article>Zu kurz.</article></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(tt.filename, strings.NewReader(tt.html))
			if !errors.Is(err, ErrSkipped) {
				t.Errorf("Expected ErrSkipped, got %v", err)
			}
		})
	}
}

func TestStripBrand(t *testing.T) {
	e := newTestExtractor()

	tests := map[string]string{
		"Mut zur Lücke | Kathrin Stahl":          "Mut zur Lücke",
		"Mut zur Lücke - KATHRIN STAHL Coaching": "Mut zur Lücke",
		"Mut zur Lücke – Kathrin Stahl":          "Mut zur Lücke",
		"Selbstliebe - ein Weg":                  "Selbstliebe - ein Weg",
		"  Viel   Raum  ":                        "Viel Raum",
		"Nähe | Distanz":                         "Nähe | Distanz",
		"Nähe | Distanz | Kathrin Stahl":         "Nähe | Distanz",
	}

	for input, want := range tests {
		if got := e.StripBrand(input); got != want {
			t.Errorf("StripBrand(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDetectType(t *testing.T) {
	tests := map[string]core.ArticleType{
		"podcast-folge-12.html":           core.TypePodcast,
		"retreat-portugal.html":           core.TypeRetreat,
		"quiz-hochsensibel.html":          core.TypeQuiz,
		"ausbildung-coach.html":           core.TypeAngebot,
		"paarbegleitung.html":             core.TypeAngebot,
		"gruppenretreats.html":            core.TypeRetreat,
		"selbstliebe-lernen.html":         core.TypeBlog,
		"pferdegestuetztes-coaching.html": core.TypeBlog,
	}

	for name, want := range tests {
		if got := DetectType(name); got != want {
			t.Errorf("DetectType(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestCategoryFallbacks(t *testing.T) {
	e := newTestExtractor()
	body := `<html><head><title>Angebot</title></head><body><article>` + strings.Repeat("Inhalt ", 30) + `</article></body></html>`

	article, err := e.Extract("einzelbegleitung.html", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if article.Category != "angebot" {
		t.Errorf("Expected special category angebot, got %q", article.Category)
	}

	article, err = e.Extract("mut.html", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if article.Category != DefaultCategory {
		t.Errorf("Expected default category, got %q", article.Category)
	}
	if article.Image != "" {
		t.Errorf("Expected empty image, got %q", article.Image)
	}
}

func TestExcerptTruncation(t *testing.T) {
	long := strings.Repeat("Ein langer Satz über innere Ruhe. ", 12)
	html := `<html><head><title>Lang</title></head><body><div class="article-content"><p>` + long + `</p></div></body></html>`

	article, err := newTestExtractor().Extract("lang.html", strings.NewReader(html))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.HasSuffix(article.Excerpt, "...") {
		t.Errorf("Expected ellipsis, got %q", article.Excerpt)
	}
	if n := len([]rune(article.Excerpt)); n != 250 {
		t.Errorf("Expected 250 characters, got %d", n)
	}
}

func TestExtractDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"grenzen-setzen.html":  samplePost,
		"index.html":           samplePost,
		"podcast-folge-1.html": strings.Replace(samplePost, "Beziehung", "Podcast", 1),
		"kaputt.html":          `<html><head><title>Kaputt</title></head></html>`,
		"notizen.txt":          "not html",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	articles, stats, err := newTestExtractor().ExtractDir(context.Background(), dir, 2)
	if err != nil {
		t.Fatalf("ExtractDir failed: %v", err)
	}

	if stats.Files != 4 {
		t.Errorf("Expected 4 html files, got %d", stats.Files)
	}
	if stats.Total != 2 || stats.Skipped != 2 {
		t.Errorf("Expected 2 extracted and 2 skipped, got %+v", stats)
	}
	if stats.ByType[core.TypePodcast] != 1 || stats.ByType[core.TypeBlog] != 1 {
		t.Errorf("Unexpected type counts %v", stats.ByType)
	}
	if len(articles) != 2 || articles[0].URL != "grenzen-setzen.html" || articles[1].URL != "podcast-folge-1.html" {
		t.Errorf("Expected articles sorted by filename, got %v", articles)
	}
}

func TestExtractDirMissing(t *testing.T) {
	_, _, err := newTestExtractor().ExtractDir(context.Background(), filepath.Join(t.TempDir(), "nope"), 1)
	if err == nil {
		t.Fatal("Expected error for missing directory")
	}
}
