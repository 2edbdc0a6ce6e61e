package clean

import (
	"errors"
	"strings"
	"testing"
)

const wordpressPost = `<!DOCTYPE html>
<html><head>
<title>Fallback Titel</title>
<meta property="og:title" content="Loslassen lernen - KATHRIN STAHL Coaching">
<meta name="description" content="  Wie du   loslässt. ">
<meta property="og:image" content="https://old.example.com/wp-content/uploads/2024/01/loslassen.jpg">
</head><body>
<article>
  <div class="entry-content" data-id="42">
    <script>track()</script>
    <div class="elementor-section" style="color:red">
      <h1 class="big">Warum Festhalten so anstrengend ist</h1>
      <p class="lead" style="font-size:2em" data-x="1">Manchmal <b>halten</b> wir <i>fest</i>.</p>
      <p>   </p>
      <span class="spacer"></span>
      <figure class="wp-block-image"><img class="size-full" src="/wp-content/uploads/bild.jpg" alt="Pferd"></figure>
      <blockquote>Loslassen heißt vertrauen.</blockquote>
      <ul><li>Atmen</li><li></li></ul>
      <iframe src="https://video.example.com"></iframe>
      <p>Mehr&nbsp;Ruhe <a href="https://example.com/ruhe" onclick="evil()">hier</a>.</p>
    </div>
  </div>
</article>
</body></html>`

func TestClean(t *testing.T) {
	c := New("https://old.example.com/", "Kathrin Stahl")

	post, err := c.Clean(strings.NewReader(wordpressPost))
	if err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}

	if post.Title != "Loslassen lernen" {
		t.Errorf("Expected brand suffix stripped, got %q", post.Title)
	}
	if post.Description != "Wie du loslässt." {
		t.Errorf("Unexpected description %q", post.Description)
	}
	if post.Image != "wp-content/uploads/2024/01/loslassen.jpg" {
		t.Errorf("Expected relative image path, got %q", post.Image)
	}

	mustContain := []string{
		"<h2>Warum Festhalten so anstrengend ist</h2>",
		"<p>Manchmal <strong>halten</strong> wir <em>fest</em>.</p>",
		`<img src="/wp-content/uploads/bild.jpg" alt="Pferd"`,
		"<blockquote>Loslassen heißt vertrauen.</blockquote>",
		"<ul><li>Atmen</li></ul>",
		`<a href="https://example.com/ruhe">hier</a>`,
		"Mehr Ruhe",
	}
	for _, want := range mustContain {
		if !strings.Contains(post.Content, want) {
			t.Errorf("Expected content to contain %q, got:\n%s", want, post.Content)
		}
	}

	mustNotContain := []string{
		"track()", "<iframe", "class=", "style=", "data-", "onclick", "<div", "<span", "<figure",
		"<h1", "<b>", "<i>", "<p>   </p>", "<li></li>", "&nbsp;",
	}
	for _, unwanted := range mustNotContain {
		if strings.Contains(post.Content, unwanted) {
			t.Errorf("Expected content without %q, got:\n%s", unwanted, post.Content)
		}
	}
}

func TestCleanSelectorOrder(t *testing.T) {
	page := `<html><body>
<div class="post-content"><p>Zweite Wahl</p></div>
<div class="entry-content"><p>Erste Wahl</p></div>
</body></html>`

	post, err := New("", "").Clean(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}
	if post.Content != "<p>Erste Wahl</p>" {
		t.Errorf("Expected .entry-content to win, got %q", post.Content)
	}
	if post.Title != UntitledPost {
		t.Errorf("Expected untitled post, got %q", post.Title)
	}
}

func TestCleanWithoutContainer(t *testing.T) {
	page := `<html><head><title>Nur ein Titel</title></head><body><p>Kein Artikel</p></body></html>`

	post, err := New("", "").Clean(strings.NewReader(page))
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("Expected ErrNoContent, got %v", err)
	}
	if post.Title != "Nur ein Titel" {
		t.Errorf("Expected metadata despite missing content, got %+v", post)
	}
}

func TestImageOutsideSite(t *testing.T) {
	page := `<html><head><meta property="og:image" content="https://cdn.other.com/x.jpg"></head><body><article><p>Text</p></article></body></html>`

	post, err := New("https://old.example.com", "").Clean(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}
	if post.Image != "" {
		t.Errorf("Expected foreign image to be dropped, got %q", post.Image)
	}
}

func TestTextLengthAndWordCount(t *testing.T) {
	fragment := "<p>Eins zwei</p>\n<p>drei <strong>vier</strong></p>"
	if got := WordCount(fragment); got != 4 {
		t.Errorf("WordCount = %d, want 4", got)
	}
	if got := TextLength("<p>äöü</p>"); got != 3 {
		t.Errorf("TextLength = %d, want 3", got)
	}
}
