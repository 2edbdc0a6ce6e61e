package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"blogpipe/internal/core"
)

type focus int

const (
	focusArticles focus = iota
	focusRelated
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2C4A47"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C4A962"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	fallbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B5542D"))
)

// model is the browser state: a list of blog articles and, for the selected
// one, its analysis and ranked connections.
type model struct {
	all          []core.Article
	articles     []core.Article // all, or only fallbacks when filtered
	byURL        map[string]int // index into all
	selectedIdx  int
	relatedIdx   int
	focus        focus
	fallbackOnly bool
	width        int
	height       int
	quitting     bool
}

// InitialModel returns the browser state for the blog articles of articles.
func InitialModel(articles []core.Article) model {
	m := model{byURL: make(map[string]int), width: 120, height: 40}
	for _, a := range articles {
		if a.IsBlog() {
			m.byURL[a.URL] = len(m.all)
			m.all = append(m.all, a)
		}
	}
	m.articles = m.all
	return m
}

// Init is the first command that will be run. We don't need any for now.
func (m model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model accordingly.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "tab":
			if m.focus == focusArticles && len(m.selected().Related) > 0 {
				m.focus = focusRelated
			} else {
				m.focus = focusArticles
			}
		case "enter":
			if m.focus == focusRelated {
				m.follow()
			}
		case "f":
			m.toggleFallbackFilter()
		}
	}

	return m, nil
}

func (m *model) move(delta int) {
	if m.focus == focusRelated {
		n := len(m.selected().Related)
		m.relatedIdx = clamp(m.relatedIdx+delta, 0, n-1)
		return
	}
	m.selectedIdx = clamp(m.selectedIdx+delta, 0, len(m.articles)-1)
	m.relatedIdx = 0
}

// follow jumps to the article behind the highlighted connection.
func (m *model) follow() {
	related := m.selected().Related
	if m.relatedIdx >= len(related) {
		return
	}
	target := related[m.relatedIdx].URL
	if m.fallbackOnly {
		m.fallbackOnly = false
		m.articles = m.all
	}
	if i, ok := m.byURL[target]; ok {
		m.selectedIdx = i
		m.relatedIdx = 0
		m.focus = focusArticles
	}
}

func (m *model) toggleFallbackFilter() {
	m.fallbackOnly = !m.fallbackOnly
	m.articles = m.all
	if m.fallbackOnly {
		m.articles = nil
		for _, a := range m.all {
			if a.Analysis == nil || a.Analysis.IsFallback {
				m.articles = append(m.articles, a)
			}
		}
	}
	m.selectedIdx, m.relatedIdx, m.focus = 0, 0, focusArticles
}

func (m model) selected() core.Article {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.articles) {
		return core.Article{}
	}
	return m.articles[m.selectedIdx]
}

// View renders the TUI.
func (m model) View() string {
	if m.quitting {
		return "Quitting...\n"
	}

	docStyle := lipgloss.NewStyle().Margin(1, 2)
	paneWidth := max(m.width/2-5, 20)
	listStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(paneWidth)
	detailStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(paneWidth)

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top,
		listStyle.Render(m.listView()),
		detailStyle.Render(m.detailView()))

	help := "\n\n[↑/k] Up | [↓/j] Down | [tab] Switch pane | [enter] Open connection | [f] Fallbacks only | [q] Quit"

	return docStyle.Render(mainContent + help)
}

func (m model) listView() string {
	var sb strings.Builder
	header := fmt.Sprintf("Articles (%d)", len(m.articles))
	if m.fallbackOnly {
		header = fmt.Sprintf("Fallback analyses (%d of %d)", len(m.articles), len(m.all))
	}
	sb.WriteString(titleStyle.Render(header) + "\n\n")

	if len(m.articles) == 0 {
		sb.WriteString("No articles loaded.")
		return sb.String()
	}

	// Keep the selection visible in a fixed window.
	window := max(m.height-10, 5)
	start := clamp(m.selectedIdx-window/2, 0, max(len(m.articles)-window, 0))
	end := min(start+window, len(m.articles))

	for i := start; i < end; i++ {
		a := m.articles[i]
		line := fmt.Sprintf("%s [%s]", a.Title, a.Category)
		if a.Analysis == nil || a.Analysis.IsFallback {
			line += fallbackStyle.Render(" *")
		}
		if i == m.selectedIdx {
			sb.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}

func (m model) detailView() string {
	a := m.selected()
	if a.URL == "" {
		return "Nothing selected."
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(a.Title) + "\n")
	sb.WriteString(mutedStyle.Render(a.URL) + "\n\n")

	if an := a.Analysis; an != nil {
		if an.IsFallback {
			sb.WriteString(fallbackStyle.Render("Fallback analysis") + "\n")
		}
		sb.WriteString(an.Kernbotschaft + "\n\n")
		sb.WriteString(fmt.Sprintf("Tone: %s\n", an.EmotionaleTonalitaet))
		sb.WriteString(fmt.Sprintf("Transformation: %s → %s\n", an.Transformation.Von, an.Transformation.Zu))
		sb.WriteString(fmt.Sprintf("Themes: %s\n\n", strings.Join(an.Tiefenthemen, ", ")))
	} else {
		sb.WriteString(mutedStyle.Render("Not analyzed yet") + "\n\n")
	}

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Connections (%d)", len(a.Related))) + "\n")
	for i, c := range a.Related {
		line := fmt.Sprintf("%5.1f %-17s %s", c.Score, c.Type, c.Title)
		if m.focus == focusRelated && i == m.relatedIdx {
			sb.WriteString(selectedStyle.Render("> "+line) + "\n")
			sb.WriteString(mutedStyle.Render("    "+c.Reason) + "\n")
			continue
		}
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

// StartTUI initializes and starts the Bubble Tea application.
func StartTUI(articles []core.Article) error {
	p := tea.NewProgram(InitialModel(articles), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
