// Package render writes migrated posts as standalone site pages.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"blogpipe/internal/clean"
)

//go:embed templates/post.html
var templateFS embed.FS

const (
	wordsPerMinute  = 200
	fallbackImageOf = "Allgemein"
)

// defaultImages are featured images per site category, used when a post has none.
var defaultImages = map[string]string{
	"Achtsamkeit":      "wp-content/uploads/2023/10/Reisefotografie-Portugal-Alentejo_KathrinStahlPhotographer-13-300x300.jpg",
	"Beziehung":        "wp-content/uploads/2025/05/Paartherapie-Beziehungskrise-Neubeginn-550x550.jpg",
	"Selbstliebe":      "wp-content/uploads/2021/04/Me-ich-Kathrin-Hogaza-1060x1042.jpg",
	"Heldinnenreise":   "wp-content/uploads/2025/05/Neuanfang-Umbruchphase-1024x1024.jpg",
	"Hochbegabung":     "wp-content/uploads/2024/05/hochbegabt-hochsensibel-550x550.jpg",
	"Körper & Heilung": "wp-content/uploads/2023/10/Reisefotografie-Portugal-Alentejo_KathrinStahlPhotographer-13-300x300.jpg",
	"Pferde":           "wp-content/uploads/2022/07/Coaching-Pferde-Hamburg-KathrinStahl-17-550x550.jpg",
	"Allgemein":        "wp-content/uploads/2021/04/Me-ich-Kathrin-Hogaza-1060x1042.jpg",
}

// DefaultImage returns the fallback featured image for category.
func DefaultImage(category string) string {
	if img, ok := defaultImages[category]; ok {
		return img
	}
	return defaultImages[fallbackImageOf]
}

// ReadTime estimates reading minutes for a word count, at least one.
func ReadTime(words int) int {
	return max(1, int(math.RoundToEven(float64(words)/wordsPerMinute)))
}

// Post is the input of the post template.
type Post struct {
	Slug        string
	Title       string
	Description string
	Category    string
	Image       string // Empty selects the category default
	Content     string // Sanitised HTML fragment, inserted verbatim
}

// pageData is what the template sees.
type pageData struct {
	Post
	Content  template.HTML
	Brand    string
	SiteURL  string
	ReadTime int
	Year     int
}

// Renderer renders posts with the embedded page template.
type Renderer struct {
	tmpl    *template.Template
	brand   string
	siteURL string
	now     func() time.Time
}

// New parses the post template. siteURL is the public root used for
// canonical and Open Graph urls.
func New(siteURL, brand string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/post.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse post template: %w", err)
	}
	return &Renderer{
		tmpl:    tmpl,
		brand:   brand,
		siteURL: siteURL,
		now:     time.Now,
	}, nil
}

// Render writes the page for post to w.
func (r *Renderer) Render(w io.Writer, post Post) error {
	if post.Image == "" {
		post.Image = DefaultImage(post.Category)
	}

	data := pageData{
		Post: post,
		// Content was sanitised by the cleaner.
		Content:  template.HTML(post.Content),
		Brand:    r.brand,
		SiteURL:  r.siteURL,
		ReadTime: ReadTime(clean.WordCount(post.Content)),
		Year:     r.now().Year(),
	}
	if err := r.tmpl.ExecuteTemplate(w, "post.html", data); err != nil {
		return fmt.Errorf("failed to render post %s: %w", post.Slug, err)
	}
	return nil
}

// WriteFile renders post to <dir>/<slug>.html and returns the path.
func (r *Renderer) WriteFile(dir string, post Post) (string, error) {
	if post.Slug == "" {
		return "", fmt.Errorf("post %q has no slug", post.Title)
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, post); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, post.Slug+".html")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
