// Package analyze attaches a semantic Analysis to every blog article,
// from a classifier or a deterministic fallback, and tracks which records
// are real so a fallback never overwrites them.
package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"blogpipe/internal/core"
	"blogpipe/internal/llm"
)

// ErrInvalidResponse is returned when the classifier answers with a record
// that cannot be used.
var ErrInvalidResponse = errors.New("invalid classifier response")

const (
	DefaultContentBudget  = 4000
	DefaultMaxBlockquotes = 5
)

var (
	lebensphasen = []string{
		"midlife", "neuanfang", "beziehungskrise", "burnout",
		"selbstfindung", "trauerarbeit", "berufliche-neuorientierung", "alltag",
	}
	coachingMethoden = []string{
		"pferde", "meditation", "aufstellung", "journaling",
		"koerperarbeit", "visualisierung", "achtsamkeit",
	}
)

// Classifier produces an Analysis for one article.
type Classifier interface {
	Classify(ctx context.Context, article core.Article) (core.Analysis, error)
}

// LLMClient interface for article classification
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// LLMClassifier classifies articles with a language model.
type LLMClassifier struct {
	llmClient      LLMClient
	contentBudget  int
	maxBlockquotes int
	maxTokens      int32
	temperature    float32
}

// ClassifierOption customises an LLMClassifier.
type ClassifierOption func(*LLMClassifier)

// WithContentBudget limits how many characters of content go into the prompt.
func WithContentBudget(n int) ClassifierOption {
	return func(c *LLMClassifier) {
		if n > 0 {
			c.contentBudget = n
		}
	}
}

// WithMaxBlockquotes limits how many key statements go into the prompt.
func WithMaxBlockquotes(n int) ClassifierOption {
	return func(c *LLMClassifier) {
		if n >= 0 {
			c.maxBlockquotes = n
		}
	}
}

// WithGeneration sets the model's token limit and temperature.
func WithGeneration(maxTokens int32, temperature float32) ClassifierOption {
	return func(c *LLMClassifier) {
		c.maxTokens = maxTokens
		c.temperature = temperature
	}
}

// NewLLMClassifier creates a classifier backed by llmClient.
func NewLLMClassifier(llmClient LLMClient, opts ...ClassifierOption) *LLMClassifier {
	c := &LLMClassifier{
		llmClient:      llmClient,
		contentBudget:  DefaultContentBudget,
		maxBlockquotes: DefaultMaxBlockquotes,
		maxTokens:      1500,
		temperature:    0.3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAnalysisSchema creates a Gemini response schema matching the Analysis record.
func CreateAnalysisSchema() *genai.Schema {
	tones := make([]string, len(core.Tones))
	for i, t := range core.Tones {
		tones[i] = string(t)
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"kernbotschaft": {
				Type:        genai.TypeString,
				Description: "Die zentrale Erkenntnis in 1-2 Sätzen",
			},
			"emotionaleTonalitaet": {
				Type: genai.TypeString,
				Enum: tones,
			},
			"transformation": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"von": {Type: genai.TypeString, Description: "Ausgangszustand des Lesers"},
					"zu":  {Type: genai.TypeString, Description: "Zielzustand"},
				},
				Required: []string{"von", "zu"},
			},
			"tiefenthemen": {
				Type:        genai.TypeArray,
				Description: "Spezifische Themen als kebab-case Tags, nicht generisch",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
			"lebensphase": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString, Enum: lebensphasen},
			},
			"coachingMethode": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString, Enum: coachingMethoden},
			},
			"leserProfil": {
				Type:        genai.TypeString,
				Description: "Wer diesen Artikel lesen sollte, ein Satz",
			},
			"empfehlungsBegründungen": {
				Type:        genai.TypeArray,
				Description: "Drei persönliche Begründungen in der 2. Person",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{
			"kernbotschaft", "emotionaleTonalitaet", "transformation", "tiefenthemen",
			"lebensphase", "coachingMethode", "leserProfil", "empfehlungsBegründungen",
		},
	}
}

// Classify asks the model for an analysis of article.
func (c *LLMClassifier) Classify(ctx context.Context, article core.Article) (core.Analysis, error) {
	prompt := c.buildAnalysisPrompt(article)

	response, err := c.llmClient.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseSchema: CreateAnalysisSchema(),
	})
	if err != nil {
		return core.Analysis{}, fmt.Errorf("failed to classify article: %w", err)
	}

	analysis, err := ParseAnalysis(response)
	if err != nil {
		return core.Analysis{}, fmt.Errorf("failed to parse classification response: %w", err)
	}
	return analysis, nil
}

// buildAnalysisPrompt creates the prompt for LLM analysis
func (c *LLMClassifier) buildAnalysisPrompt(article core.Article) string {
	var sb strings.Builder

	sb.WriteString("Du bist ein einfühlsamer Content-Analyst für eine Coaching-Website.\n")
	sb.WriteString("Die Coachin begleitet Menschen durch Lebenskrisen, Selbstfindung und persönliches Wachstum. ")
	sb.WriteString("Sie arbeitet viel mit Pferden, Meditation und systemischen Aufstellungen.\n\n")
	sb.WriteString("Analysiere diesen Blog-Post TIEFGEHEND. Erfasse nicht nur die Oberfläche, sondern die emotionale und transformative Tiefe.\n\n")

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("TITEL: %s\n\n", article.Title))

	category := article.Category
	if category == "" {
		category = "unbekannt"
	}
	sb.WriteString(fmt.Sprintf("KATEGORIE: %s\n\n", category))

	sb.WriteString("KERNAUSSAGEN (Blockquotes):\n")
	quotes := article.Blockquotes
	if len(quotes) > c.maxBlockquotes {
		quotes = quotes[:c.maxBlockquotes]
	}
	if len(quotes) == 0 {
		sb.WriteString("(keine)\n")
	}
	for _, q := range quotes {
		sb.WriteString("- " + q + "\n")
	}

	sb.WriteString("\nINHALT:\n")
	sb.WriteString(truncateRunes(article.Content, c.contentBudget))
	sb.WriteString("\n---\n\n")

	sb.WriteString("Antworte NUR mit einem validen JSON-Objekt mit diesen Feldern:\n")
	sb.WriteString("- kernbotschaft: Die zentrale Erkenntnis in 1-2 Sätzen. Was soll der Leser wirklich verstehen?\n")
	sb.WriteString("- emotionaleTonalitaet: EINE von: " + joinTones() + "\n")
	sb.WriteString("- transformation: {von, zu}, Ausgangszustand (z.B. 'Selbstzweifel') und Zielzustand (z.B. 'Selbstakzeptanz')\n")
	sb.WriteString("- tiefenthemen: Spezifische Themen, NICHT generisch. Nicht 'angst', sondern 'angst-vor-eigener-groesse', 'koerper-als-verbuendeter'\n")
	sb.WriteString("- lebensphase: Passende aus: " + strings.Join(lebensphasen, " | ") + "\n")
	sb.WriteString("- coachingMethode: Falls erkennbar: " + strings.Join(coachingMethoden, " | ") + "\n")
	sb.WriteString("- leserProfil: Kurze Beschreibung wer diesen Artikel lesen sollte (1 Satz)\n")
	sb.WriteString("- empfehlungsBegründungen: Drei persönliche Begründungen, warum jemand diesen Artikel nach einem ähnlichen lesen sollte. Direkt, 2. Person.\n")

	return sb.String()
}

func joinTones() string {
	names := make([]string, len(core.Tones))
	for i, t := range core.Tones {
		names[i] = string(t)
	}
	return strings.Join(names, " | ")
}

// ParseAnalysis decodes and normalises a classifier response. Responses
// without a core message or without themes are rejected.
func ParseAnalysis(response string) (core.Analysis, error) {
	var raw core.Analysis
	if err := json.Unmarshal([]byte(llm.StripCodeFence(response)), &raw); err != nil {
		return core.Analysis{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	a := core.Analysis{
		IsFallback:    false,
		Kernbotschaft: strings.TrimSpace(raw.Kernbotschaft),
		Transformation: core.Transformation{
			Von: strings.TrimSpace(raw.Transformation.Von),
			Zu:  strings.TrimSpace(raw.Transformation.Zu),
		},
		Tiefenthemen:             normaliseTags(raw.Tiefenthemen),
		Lebensphase:              filterKnown(raw.Lebensphase, lebensphasen),
		CoachingMethode:          filterKnown(raw.CoachingMethode, coachingMethoden),
		LeserProfil:              strings.TrimSpace(raw.LeserProfil),
		EmpfehlungsBegruendungen: nonEmpty(raw.EmpfehlungsBegruendungen),
	}

	tone, ok := core.ParseTone(string(raw.EmotionaleTonalitaet))
	if !ok {
		tone = core.ToneReflektierend
	}
	a.EmotionaleTonalitaet = tone

	if a.Kernbotschaft == "" {
		return core.Analysis{}, fmt.Errorf("%w: missing kernbotschaft", ErrInvalidResponse)
	}
	if len(a.Tiefenthemen) == 0 {
		return core.Analysis{}, fmt.Errorf("%w: missing tiefenthemen", ErrInvalidResponse)
	}
	return a, nil
}

// normaliseTags lowercases theme tags and joins words with hyphens.
func normaliseTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, tag := range tags {
		t := strings.Join(strings.Fields(strings.ToLower(tag)), "-")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func filterKnown(values, known []string) []string {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}

	out := []string{}
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if allowed[v] && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func nonEmpty(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
