package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultModel is the default Gemini model used for classification.
	DefaultModel = "gemini-2.5-flash"
	// DefaultEmbeddingModel is the default model for generating embeddings
	DefaultEmbeddingModel = "gemini-embedding-001"
	// DefaultEmbeddingDimensions is the output dimension for embeddings (Matryoshka)
	DefaultEmbeddingDimensions = int32(768)
	// embedBatchSize is the largest batch the embedding endpoint accepts.
	embedBatchSize = 100

	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Config selects the backend and models for a Client.
type Config struct {
	APIKey         string
	Backend        string // gemini or vertex
	Project        string // Vertex AI only
	Location       string // Vertex AI only
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
}

// Client talks to Gemini through the google.golang.org/genai SDK.
type Client struct {
	modelName      string
	embeddingModel string
	provider       string
	timeout        time.Duration
	gClient        *genai.Client
}

// TextGenerationOptions contains options for text generation
type TextGenerationOptions struct {
	MaxTokens      int32         // Maximum number of tokens to generate
	Temperature    float32       // Temperature for randomness (0.0 to 1.0)
	Model          string        // Model to use (optional, defaults to client's model)
	ResponseSchema *genai.Schema // Optional: Schema for structured output
}

// NewClient creates a new LLM client for the configured backend.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}

	clientConfig := &genai.ClientConfig{}
	switch cfg.Backend {
	case BackendVertex:
		if cfg.Project == "" {
			return nil, fmt.Errorf("vertex backend requires a project")
		}
		clientConfig.Backend = genai.BackendVertexAI
		clientConfig.Project = cfg.Project
		clientConfig.Location = cfg.Location
	case BackendGemini, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
		}
		cfg.Backend = BackendGemini
		clientConfig.Backend = genai.BackendGeminiAPI
		clientConfig.APIKey = cfg.APIKey
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	gClient, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		modelName:      cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		provider:       cfg.Backend,
		timeout:        cfg.Timeout,
		gClient:        gClient,
	}, nil
}

// Provider names the backend, e.g. "gemini".
func (c *Client) Provider() string {
	return c.provider
}

// ModelName returns the generation model in use.
func (c *Client) ModelName() string {
	return c.modelName
}

// Close releases client resources. The genai client holds none today.
func (c *Client) Close() {}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// GenerateText generates text using the LLM with specified options
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	var config *genai.GenerateContentConfig
	if options.MaxTokens > 0 || options.Temperature > 0 || options.ResponseSchema != nil {
		config = &genai.GenerateContentConfig{}
		if options.MaxTokens > 0 {
			config.MaxOutputTokens = options.MaxTokens
		}
		if options.Temperature > 0 {
			temp := options.Temperature
			config.Temperature = &temp
		}
		if options.ResponseSchema != nil {
			config.ResponseMIMEType = "application/json"
			config.ResponseSchema = options.ResponseSchema
		}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

// EmbedTexts returns one embedding per input text, in input order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	embeddings := make([][]float64, 0, len(texts))
	dims := DefaultEmbeddingDimensions
	config := &genai.EmbedContentConfig{OutputDimensionality: &dims}

	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, &genai.Content{
				Parts: []*genai.Part{{Text: text}},
				Role:  "user",
			})
		}

		batchCtx, cancel := c.withTimeout(ctx)
		resp, err := c.gClient.Models.EmbedContent(batchCtx, c.embeddingModel, contents, config)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if resp == nil || len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, embeddingCount(resp))
		}

		for _, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, fmt.Errorf("no embedding values returned from API")
			}
			embeddings = append(embeddings, toFloat64(e.Values))
		}
	}

	return embeddings, nil
}

func embeddingCount(resp *genai.EmbedContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// CosineSimilarity calculates the cosine similarity between two embeddings
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// StripCodeFence removes a surrounding ```json ... ``` block if present.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
