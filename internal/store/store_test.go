package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blogpipe/internal/core"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(
		filepath.Join(dir, "data", "raw.json"),
		filepath.Join(dir, "data", "intelligence.json"),
		filepath.Join(dir, "data", "cache.json"),
	), dir
}

func TestLoadRawMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.LoadRaw()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveLoadRaw(t *testing.T) {
	s, _ := newTestStore(t)

	doc := &core.RawDocument{
		ExtractedAt: core.Now(),
		Articles: []core.Article{
			{URL: "grenzen.html", Title: "Grenzen & Nähe", Type: core.TypeBlog, Category: "beziehung"},
		},
	}
	if err := s.SaveRaw(doc); err != nil {
		t.Fatalf("SaveRaw failed: %v", err)
	}

	got, err := s.LoadRaw()
	if err != nil {
		t.Fatalf("LoadRaw failed: %v", err)
	}
	if got.TotalArticles != 1 {
		t.Errorf("Expected totalArticles 1, got %d", got.TotalArticles)
	}
	if got.Articles[0].Title != "Grenzen & Nähe" {
		t.Errorf("Unexpected title %q", got.Articles[0].Title)
	}
}

func TestSaveDoesNotEscapeHTML(t *testing.T) {
	s, _ := newTestStore(t)

	doc := &core.IntelligenceDocument{
		Articles: []core.Article{{URL: "a.html", Title: "Mut & <Vertrauen>"}},
	}
	if err := s.SaveIntelligence(doc); err != nil {
		t.Fatalf("SaveIntelligence failed: %v", err)
	}

	_, path, _ := s.Paths()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "Mut & <Vertrauen>") {
		t.Errorf("Expected unescaped title in output, got:\n%s", data)
	}
	if !strings.Contains(string(data), "\n  \"analyzedAt\"") {
		t.Error("Expected two-space indentation")
	}
}

func TestLoadIntelligenceOrEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	doc, err := s.LoadIntelligenceOrEmpty()
	if err != nil {
		t.Fatalf("LoadIntelligenceOrEmpty failed: %v", err)
	}
	if len(doc.Articles) != 0 {
		t.Errorf("Expected empty document, got %d articles", len(doc.Articles))
	}
}

func TestLoadCorruptDocument(t *testing.T) {
	s, _ := newTestStore(t)
	raw, _, _ := s.Paths()

	if err := os.MkdirAll(filepath.Dir(raw), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(raw, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := s.LoadRaw()
	if err == nil {
		t.Fatal("Expected parse error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Parse error must not be reported as ErrNotFound")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	cache, err := s.LoadCache()
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	if len(cache.Posts) != 0 {
		t.Fatalf("Expected empty cache")
	}

	cache.Posts = append(cache.Posts, core.MigratedPost{Slug: "mut", Title: "Mut", URL: "https://example.com/mut", MigratedAt: core.Now()})
	cache.LastRun = core.Now()
	if err := s.SaveCache(cache); err != nil {
		t.Fatalf("SaveCache failed: %v", err)
	}

	reloaded, err := s.LoadCache()
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	if len(reloaded.Posts) != 1 || reloaded.Posts[0].Slug != "mut" {
		t.Errorf("Unexpected cache contents: %+v", reloaded.Posts)
	}
}
