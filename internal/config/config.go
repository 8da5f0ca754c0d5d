package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Jira configuration
	JiraBaseURL  string
	JiraUsername string
	JiraAPIToken string

	// LLM configuration
	LLMProvider    string // "openai", "azure", "ollama", "anthropic"
	LLMModel       string
	LLMAPIKey      string
	LLMServiceURL  string
	LLMMaxTokens   int
	LLMTimeout     time.Duration
	LLMTemperature float64
	LLMMaxRetries  int // extra completion attempts after a malformed response

	// Filter configuration
	MinAgeDays       int
	MinInactiveDays  int
	ExcludedStatuses []string

	// Closure warning: tickets inactive longer than this get a prompt
	// directive asking the model to include a closing warning.
	ClosureWarningAfter time.Duration

	// Pipeline configuration
	Workers          int
	BreakerThreshold int // consecutive collaborator failures before the run aborts
	PageSize         int

	// Prompt templates
	TemplateDir string // optional on-disk override for embedded templates
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. Defaults mirror the documented sweep behavior; everything is
// resolved here once so core packages never consult the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// Best effort: a missing .env just means plain environment variables.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("JIRA_BASE_URL", "")
	v.SetDefault("JIRA_USERNAME", "")
	v.SetDefault("JIRA_API_TOKEN", "")

	v.SetDefault("LLM_PROVIDER", "ollama")
	v.SetDefault("LLM_MODEL", "llama3.2:latest")
	v.SetDefault("LLM_API_KEY", "")
	v.SetDefault("LLM_SERVICE_URL", "http://localhost:11434")
	v.SetDefault("LLM_MAX_TOKENS", 4000)
	v.SetDefault("LLM_TIMEOUT_SECONDS", 60)
	v.SetDefault("LLM_TEMPERATURE", 0.0)
	v.SetDefault("LLM_MAX_RETRIES", 2)

	v.SetDefault("FILTER_MIN_AGE_DAYS", 14)
	v.SetDefault("FILTER_MIN_INACTIVE_DAYS", 7)
	v.SetDefault("FILTER_EXCLUDED_STATUSES", "Closed,Done,Resolved")
	v.SetDefault("CLOSURE_WARNING_DAYS", 90)

	v.SetDefault("PIPELINE_WORKERS", 1)
	v.SetDefault("PIPELINE_BREAKER_THRESHOLD", 5)
	v.SetDefault("PIPELINE_PAGE_SIZE", 50)

	v.SetDefault("PROMPT_TEMPLATE_DIR", "")

	cfg := &Config{
		JiraBaseURL:  v.GetString("JIRA_BASE_URL"),
		JiraUsername: v.GetString("JIRA_USERNAME"),
		JiraAPIToken: v.GetString("JIRA_API_TOKEN"),

		LLMProvider:    v.GetString("LLM_PROVIDER"),
		LLMModel:       v.GetString("LLM_MODEL"),
		LLMAPIKey:      v.GetString("LLM_API_KEY"),
		LLMServiceURL:  v.GetString("LLM_SERVICE_URL"),
		LLMMaxTokens:   v.GetInt("LLM_MAX_TOKENS"),
		LLMTimeout:     time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
		LLMTemperature: v.GetFloat64("LLM_TEMPERATURE"),
		LLMMaxRetries:  v.GetInt("LLM_MAX_RETRIES"),

		MinAgeDays:       v.GetInt("FILTER_MIN_AGE_DAYS"),
		MinInactiveDays:  v.GetInt("FILTER_MIN_INACTIVE_DAYS"),
		ExcludedStatuses: splitStatuses(v.GetString("FILTER_EXCLUDED_STATUSES")),

		ClosureWarningAfter: time.Duration(v.GetInt("CLOSURE_WARNING_DAYS")) * 24 * time.Hour,

		Workers:          v.GetInt("PIPELINE_WORKERS"),
		BreakerThreshold: v.GetInt("PIPELINE_BREAKER_THRESHOLD"),
		PageSize:         v.GetInt("PIPELINE_PAGE_SIZE"),

		TemplateDir: v.GetString("PROMPT_TEMPLATE_DIR"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.MinAgeDays < 0 || c.MinInactiveDays < 0 {
		return fmt.Errorf("filter thresholds must be non-negative (min age %d, min inactive %d)",
			c.MinAgeDays, c.MinInactiveDays)
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must be non-negative, got %d", c.LLMMaxRetries)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.PageSize < 1 {
		c.PageSize = 50
	}
	if c.BreakerThreshold < 1 {
		c.BreakerThreshold = 5
	}
	return nil
}

func splitStatuses(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
