package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"blogpipe/internal/core"
)

func testArticles() []core.Article {
	return []core.Article{
		{
			URL: "loslassen.html", Title: "Loslassen", Type: core.TypeBlog, Category: "achtsamkeit",
			Analysis: &core.Analysis{Kernbotschaft: "Loslassen ist Vertrauen.", EmotionaleTonalitaet: core.ToneHeilend},
			Related: []core.Connection{
				{URL: "ruhe.html", Title: "Ruhe", Type: core.ConnHeilungsreise, Score: 40, Reason: "Begleitet dich weiter auf deinem Weg"},
				{URL: "mut.html", Title: "Mut", Type: core.ConnErgaenzung, Score: 12},
			},
		},
		{URL: "podcast-1.html", Title: "Podcast", Type: core.TypePodcast},
		{URL: "ruhe.html", Title: "Ruhe", Type: core.TypeBlog, Analysis: &core.Analysis{IsFallback: true}},
		{URL: "mut.html", Title: "Mut", Type: core.TypeBlog},
	}
}

func press(m model, keys ...tea.KeyMsg) model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(model)
	}
	return m
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyF     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")}
)

func TestInitialModelKeepsBlogArticles(t *testing.T) {
	m := InitialModel(testArticles())
	if len(m.articles) != 3 {
		t.Fatalf("Expected 3 blog articles, got %d", len(m.articles))
	}
	if m.selected().URL != "loslassen.html" {
		t.Errorf("Expected first article selected, got %s", m.selected().URL)
	}
}

func TestNavigation(t *testing.T) {
	m := InitialModel(testArticles())

	m = press(m, keyUp)
	if m.selectedIdx != 0 {
		t.Errorf("Expected selection to stay at top, got %d", m.selectedIdx)
	}
	m = press(m, keyDown, keyDown, keyDown)
	if m.selectedIdx != 2 {
		t.Errorf("Expected selection clamped to last article, got %d", m.selectedIdx)
	}
}

func TestFollowConnection(t *testing.T) {
	m := InitialModel(testArticles())

	m = press(m, keyTab, keyDown, keyEnter)
	if m.selected().URL != "mut.html" {
		t.Errorf("Expected to jump to mut.html, got %s", m.selected().URL)
	}
	if m.focus != focusArticles {
		t.Error("Expected focus back on the article list")
	}
}

func TestTabWithoutConnections(t *testing.T) {
	m := InitialModel(testArticles())
	m = press(m, keyDown, keyTab)
	if m.focus != focusArticles {
		t.Error("Expected focus to stay on the list for an article without connections")
	}
}

func TestFallbackFilter(t *testing.T) {
	m := InitialModel(testArticles())

	m = press(m, keyF)
	if len(m.articles) != 2 {
		t.Fatalf("Expected fallback and unanalysed articles, got %d", len(m.articles))
	}
	if !strings.Contains(m.View(), "Fallback analyses (2 of 3)") {
		t.Error("Expected filtered header in view")
	}

	m = press(m, keyF)
	if len(m.articles) != 3 {
		t.Errorf("Expected filter to toggle off, got %d articles", len(m.articles))
	}
}

func TestView(t *testing.T) {
	m := InitialModel(testArticles())
	m = press(m, keyTab)

	view := m.View()
	for _, want := range []string{"Loslassen ist Vertrauen.", "Connections (2)", "heilungsreise", "Begleitet dich weiter"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !m.quitting || m.View() != "Quitting...\n" {
		t.Error("Expected q to quit")
	}
}
