package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New("https://example.github.io/site", "Kathrin Stahl")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestReadTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 1},
		{50, 1},
		{200, 1},
		{500, 2}, // 2.5 rounds half to even
		{700, 4}, // 3.5 rounds half to even
		{1000, 5},
	}
	for _, tt := range tests {
		if got := ReadTime(tt.words); got != tt.want {
			t.Errorf("ReadTime(%d) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestDefaultImage(t *testing.T) {
	if got := DefaultImage("Pferde"); !strings.Contains(got, "Coaching-Pferde") {
		t.Errorf("Unexpected Pferde image %q", got)
	}
	if DefaultImage("Vision") != DefaultImage("Allgemein") {
		t.Error("Expected unknown categories to use the Allgemein image")
	}
}

func TestRender(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	err := r.Render(&buf, Post{
		Slug:        "grenzen-setzen",
		Title:       "Grenzen setzen <ohne> Schuld",
		Description: "Wie du Nein sagst",
		Category:    "Beziehung",
		Content:     "<p>Ein Absatz mit <strong>Gewicht</strong>.</p>",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	page := buf.String()

	for _, want := range []string{
		"<title>Grenzen setzen &lt;ohne&gt; Schuld | Kathrin Stahl</title>",
		`<link rel="canonical" href="https://example.github.io/site/grenzen-setzen.html">`,
		`<span class="article-category">Beziehung</span>`,
		"<p>Ein Absatz mit <strong>Gewicht</strong>.</p>",
		"Paartherapie-Beziehungskrise-Neubeginn-550x550.jpg",
		"1 Min. Lesezeit",
		"© 2025 Kathrin Stahl",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	r := newTestRenderer(t)
	dir := filepath.Join(t.TempDir(), "site")

	path, err := r.WriteFile(dir, Post{Slug: "mut", Title: "Mut", Category: "Allgemein", Image: "wp-content/mut.jpg", Content: "<p>Text</p>"})
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if path != filepath.Join(dir, "mut.html") {
		t.Errorf("Unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read rendered file: %v", err)
	}
	if !strings.Contains(string(data), `src="wp-content/mut.jpg"`) {
		t.Error("Expected explicit image to be used")
	}

	if _, err := r.WriteFile(dir, Post{Title: "Ohne Slug"}); err == nil {
		t.Error("Expected error for post without slug")
	}
}
