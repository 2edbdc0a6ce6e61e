package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingCredential is returned when a command needs an API key that is not configured.
var ErrMissingCredential = errors.New("missing required credential")

// Config holds all application configuration
type Config struct {
	App     App     `mapstructure:"app"`
	AI      AI      `mapstructure:"ai"`
	Paths   Paths   `mapstructure:"paths"`
	Extract Extract `mapstructure:"extract"`
	Analyze Analyze `mapstructure:"analyze"`
	Connect Connect `mapstructure:"connect"`
	Migrate Migrate `mapstructure:"migrate"`
	Server  Server  `mapstructure:"server"`
	Logging Logging `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	ConfigFile string `mapstructure:"config_file"`
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Backend        string  `mapstructure:"backend"` // gemini or vertex
	Project        string  `mapstructure:"project"`
	Location       string  `mapstructure:"location"`
	Timeout        string  `mapstructure:"timeout"`
	MaxTokens      int32   `mapstructure:"max_tokens"`
	Temperature    float32 `mapstructure:"temperature"`
}

// Paths holds the locations of the site and the pipeline documents
type Paths struct {
	SiteDir          string `mapstructure:"site_dir"`
	DataDir          string `mapstructure:"data_dir"`
	RawFile          string `mapstructure:"raw_file"`
	IntelligenceFile string `mapstructure:"intelligence_file"`
	CacheFile        string `mapstructure:"cache_file"`
}

// Extract holds article extraction configuration
type Extract struct {
	Brand            string   `mapstructure:"brand"`
	DefaultCategory  string   `mapstructure:"default_category"`
	MinContentLength int      `mapstructure:"min_content_length"`
	ExcludeFiles     []string `mapstructure:"exclude_files"`
	Workers          int      `mapstructure:"workers"`
}

// Analyze holds classifier configuration
type Analyze struct {
	RateLimit      string `mapstructure:"rate_limit"`
	ContentBudget  int    `mapstructure:"content_budget"`
	MaxBlockquotes int    `mapstructure:"max_blockquotes"`
}

// Connect holds connection engine configuration
type Connect struct {
	TopN           int     `mapstructure:"top_n"`
	EmbeddingTopN  int     `mapstructure:"embedding_top_n"`
	EmbeddingScale float64 `mapstructure:"embedding_scale"`
}

// Migrate holds blog migration configuration
type Migrate struct {
	BaseURL             string   `mapstructure:"base_url"`
	BlogPath            string   `mapstructure:"blog_path"`
	Workers             int      `mapstructure:"workers"`
	UserAgent           string   `mapstructure:"user_agent"`
	Timeout             string   `mapstructure:"timeout"`
	SimilarityThreshold float64  `mapstructure:"similarity_threshold"`
	MinContentLength    int      `mapstructure:"min_content_length"`
	MaxPages            int      `mapstructure:"max_pages"`
	SiteURL             string   `mapstructure:"site_url"`
	SkipPages           []string `mapstructure:"skip_pages"`
}

// Server holds preview server configuration
type Server struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".blogpipe")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)

	// AI defaults
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.embedding_model", "gemini-embedding-001")
	viper.SetDefault("ai.gemini.backend", "gemini")
	viper.SetDefault("ai.gemini.location", "europe-west3")
	viper.SetDefault("ai.gemini.timeout", "60s")
	viper.SetDefault("ai.gemini.max_tokens", 1500)
	viper.SetDefault("ai.gemini.temperature", 0.3)

	// Path defaults
	viper.SetDefault("paths.site_dir", ".")
	viper.SetDefault("paths.data_dir", "data")
	viper.SetDefault("paths.raw_file", "data/blog-content-raw.json")
	viper.SetDefault("paths.intelligence_file", "data/blog-intelligence.json")
	viper.SetDefault("paths.cache_file", "data/blog-migration-cache.json")

	// Extract defaults
	viper.SetDefault("extract.brand", "Kathrin Stahl")
	viper.SetDefault("extract.default_category", "allgemein")
	viper.SetDefault("extract.min_content_length", 100)
	viper.SetDefault("extract.workers", 5)
	viper.SetDefault("extract.exclude_files", []string{
		"index.html", "blog.html", "media.html", "kathrin.html",
		"404.html", "contact.html", "kontakt.html", "impressum.html",
		"datenschutzerklaerung.html", "datenschutz.html",
		"ANLEITUNG-EDITOR.html", "blog-editor.html", "cms-editor.html",
		"blog-neu.html", "new-index.html", "new-navigation.html",
		"studio.html", "investition.html", "fuer-wen.html",
	})

	// Analyze defaults
	viper.SetDefault("analyze.rate_limit", "2.5s")
	viper.SetDefault("analyze.content_budget", 4000)
	viper.SetDefault("analyze.max_blockquotes", 5)

	// Connect defaults
	viper.SetDefault("connect.top_n", 10)
	viper.SetDefault("connect.embedding_top_n", 15)
	viper.SetDefault("connect.embedding_scale", 50.0)

	// Migrate defaults
	viper.SetDefault("migrate.base_url", "https://coaching.kathrinstahl.com")
	viper.SetDefault("migrate.blog_path", "/blog")
	viper.SetDefault("migrate.workers", 5)
	viper.SetDefault("migrate.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)")
	viper.SetDefault("migrate.timeout", "10s")
	viper.SetDefault("migrate.similarity_threshold", 0.85)
	viper.SetDefault("migrate.min_content_length", 200)
	viper.SetDefault("migrate.max_pages", 100)
	viper.SetDefault("migrate.site_url", "https://nickheymann.github.io/kathrin-coaching")
	viper.SetDefault("migrate.skip_pages", []string{
		"index", "blog", "kathrin", "media", "contact", "impressum", "datenschutzerklaerung",
	})

	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("ai.gemini.project", []string{
		"GOOGLE_CLOUD_PROJECT",
	})

	bindEnvKeys("ai.gemini.location", []string{
		"GOOGLE_CLOUD_LOCATION",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"BLOGPIPE_DEBUG",
	})

	bindEnvKeys("logging.level", []string{
		"LOG_LEVEL",
		"BLOGPIPE_LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	config.Paths.SiteDir = expandPath(config.Paths.SiteDir)
	config.Paths.DataDir = expandPath(config.Paths.DataDir)
	config.Paths.RawFile = expandPath(config.Paths.RawFile)
	config.Paths.IntelligenceFile = expandPath(config.Paths.IntelligenceFile)
	config.Paths.CacheFile = expandPath(config.Paths.CacheFile)

	if config.App.Debug {
		config.Logging.Level = "debug"
	}

	durations := map[string]string{
		"ai.gemini.timeout":  config.AI.Gemini.Timeout,
		"analyze.rate_limit": config.Analyze.RateLimit,
		"migrate.timeout":    config.Migrate.Timeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures configuration values are usable
func validateConfig(config *Config) error {
	var errors []string

	switch config.AI.Gemini.Backend {
	case "gemini", "vertex":
	default:
		errors = append(errors, fmt.Sprintf("Unknown ai.gemini.backend: %s. Supported: gemini, vertex", config.AI.Gemini.Backend))
	}

	if config.Migrate.SimilarityThreshold <= 0 || config.Migrate.SimilarityThreshold > 1 {
		errors = append(errors, fmt.Sprintf("migrate.similarity_threshold must be in (0, 1], got %v", config.Migrate.SimilarityThreshold))
	}

	if config.Migrate.Workers < 1 {
		errors = append(errors, "migrate.workers must be at least 1")
	}

	if config.Connect.TopN < 1 {
		errors = append(errors, "connect.top_n must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// RequireLLM reports whether the configured backend has the credentials it
// needs. Commands that cannot run without the classifier call this before
// doing any work.
func (c *Config) RequireLLM() error {
	g := c.AI.Gemini
	switch g.Backend {
	case "vertex":
		if g.Project == "" {
			return fmt.Errorf("%w: Vertex AI backend requires ai.gemini.project or GOOGLE_CLOUD_PROJECT", ErrMissingCredential)
		}
	default:
		if !isValidAPIKey(g.APIKey) {
			return fmt.Errorf("%w: Gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file", ErrMissingCredential)
		}
	}
	return nil
}

// HasLLM reports whether RequireLLM would succeed.
func (c *Config) HasLLM() bool {
	return c.RequireLLM() == nil
}

// Duration parses a validated duration setting, returning fallback when empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// isValidAPIKey checks if an API key is valid (not empty and not a placeholder)
func isValidAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}

	placeholders := []string{
		"your-api-key", "your-gemini-key", "YOUR_API_KEY", "PLACEHOLDER", "TODO", "CHANGE_ME",
	}

	for _, placeholder := range placeholders {
		if apiKey == placeholder {
			return false
		}
	}

	return true
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
