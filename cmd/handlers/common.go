package handlers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"blogpipe/internal/config"
	"blogpipe/internal/llm"
	"blogpipe/internal/logger"
	"blogpipe/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2C4A47"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B5542D"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
)

func printHeader(title string) {
	fmt.Println(headerStyle.Render(title))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

// startRun tags the logs of one command invocation with a run id.
func startRun(command string) string {
	runID := uuid.NewString()
	logger.Info("Starting run", "command", command, "run_id", runID)
	return runID
}

func newStore(cfg *config.Config) *store.Store {
	return store.NewStore(cfg.Paths.RawFile, cfg.Paths.IntelligenceFile, cfg.Paths.CacheFile)
}

// newLLMClient builds a traced Gemini client. provider overrides the
// configured backend when set.
func newLLMClient(ctx context.Context, cfg *config.Config, provider string) (*llm.TracedClient, string, error) {
	g := cfg.AI.Gemini
	if provider != "" {
		g.Backend = provider
	}
	switch g.Backend {
	case llm.BackendGemini, llm.BackendVertex:
	default:
		return nil, "", fmt.Errorf("unknown provider %q (supported: gemini, vertex)", g.Backend)
	}

	client, err := llm.NewClient(ctx, llm.Config{
		APIKey:         g.APIKey,
		Backend:        g.Backend,
		Project:        g.Project,
		Location:       g.Location,
		Model:          g.Model,
		EmbeddingModel: g.EmbeddingModel,
		Timeout:        config.Duration(g.Timeout, 0),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create LLM client: %w", err)
	}

	return llm.NewTracedClient(client), client.Provider() + "/" + client.ModelName(), nil
}
