package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries every tunable for one analysis run. It is built once and
// passed by value into each component's constructor; nothing reads it through
// package-level state.
type Config struct {
	ProjectDir   string `yaml:"project_dir" json:"project_dir"`
	ResultsDir   string `yaml:"results_dir" json:"results_dir"`
	DataCacheDir string `yaml:"data_cache_dir" json:"data_cache_dir"`

	LLMProvider   string `yaml:"llm_provider" json:"llm_provider"`
	DeepThinkLLM  string `yaml:"deep_think_llm" json:"deep_think_llm"`
	QuickThinkLLM string `yaml:"quick_think_llm" json:"quick_think_llm"`
	BackendURL    string `yaml:"backend_url" json:"backend_url"`
	MaxTokens     int    `yaml:"max_tokens" json:"max_tokens"`

	// MaxDebateRounds is the number of utterances each researcher must reach
	// before the debate resolves to the trader. The router derives its two
	// safety ceilings (2x per side, 4x total) from it.
	MaxDebateRounds int `yaml:"max_debate_rounds" json:"max_debate_rounds"`

	// MaxToolRounds bounds the analyst<->tool cycle per analyst. The upstream
	// design leaves this to prompt wording; here the router enforces it.
	MaxToolRounds int `yaml:"max_tool_rounds" json:"max_tool_rounds"`

	// MaxRecurLimit caps executor steps for a whole run.
	MaxRecurLimit int `yaml:"max_recursion_limit" json:"max_recursion_limit"`

	SelectedAnalysts []string `yaml:"selected_analysts" json:"selected_analysts"`

	OnlineTools  bool `yaml:"online_tools" json:"online_tools"`
	CacheEnabled bool `yaml:"cache_enabled" json:"cache_enabled"`
	Debug        bool `yaml:"debug" json:"debug"`

	MaxRetries    int `yaml:"max_retries" json:"max_retries"`
	RetryDelaySec int `yaml:"retry_delay_sec" json:"retry_delay_sec"`

	OpenAIAPIKey   string `yaml:"-" json:"-"`
	DeepSeekAPIKey string `yaml:"-" json:"-"`

	EmbeddingBackendURL string `yaml:"embedding_backend_url" json:"embedding_backend_url"`
	EmbeddingModel      string `yaml:"embedding_model" json:"embedding_model"`

	LongportAppKey      string `yaml:"-" json:"-"`
	LongportAppSecret   string `yaml:"-" json:"-"`
	LongportAccessToken string `yaml:"-" json:"-"`
}

// DefaultConfig returns the baseline configuration used when no YAML file or
// environment overrides are present.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	projectDir := filepath.Join(home, ".stockcouncil")
	return &Config{
		ProjectDir:          projectDir,
		ResultsDir:          filepath.Join(projectDir, "results"),
		DataCacheDir:        filepath.Join(projectDir, "cache"),
		LLMProvider:         "openai",
		DeepThinkLLM:        "gpt-4o",
		QuickThinkLLM:       "gpt-4o-mini",
		BackendURL:          "https://api.openai.com/v1",
		MaxTokens:           4096,
		MaxDebateRounds:     1,
		MaxToolRounds:       5,
		MaxRecurLimit:       100,
		SelectedAnalysts:    []string{"market", "news"},
		OnlineTools:         true,
		CacheEnabled:        true,
		MaxRetries:          3,
		RetryDelaySec:       2,
		EmbeddingBackendURL: "https://api.openai.com/v1",
		EmbeddingModel:      "text-embedding-3-small",
	}
}

// LoadFromEnv overlays environment variables (after loading a .env file if
// one exists) onto the config.
func (c *Config) LoadFromEnv() {
	_ = godotenv.Load()

	c.OpenAIAPIKey = envOr("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.DeepSeekAPIKey = envOr("DEEPSEEK_API_KEY", c.DeepSeekAPIKey)
	c.LLMProvider = envOr("LLM_PROVIDER", c.LLMProvider)
	c.BackendURL = envOr("LLM_BACKEND_URL", c.BackendURL)
	c.DeepThinkLLM = envOr("DEEP_THINK_LLM", c.DeepThinkLLM)
	c.QuickThinkLLM = envOr("QUICK_THINK_LLM", c.QuickThinkLLM)
	c.LongportAppKey = envOr("LONGPORT_APP_KEY", c.LongportAppKey)
	c.LongportAppSecret = envOr("LONGPORT_APP_SECRET", c.LongportAppSecret)
	c.LongportAccessToken = envOr("LONGPORT_ACCESS_TOKEN", c.LongportAccessToken)

	if v := os.Getenv("MAX_DEBATE_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxDebateRounds = n
		}
	}
	if v := os.Getenv("ONLINE_TOOLS"); v != "" {
		c.OnlineTools = v == "1" || strings.EqualFold(v, "true")
	}
}

// LoadYAML overlays a YAML config file onto the config. A missing file is not
// an error; a malformed one is.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports configuration errors that must fail fast, before any run
// starts.
func (c *Config) Validate() error {
	if len(c.SelectedAnalysts) == 0 {
		return errors.New("no analysts selected")
	}
	for _, name := range c.SelectedAnalysts {
		if name != "market" && name != "news" {
			return fmt.Errorf("invalid analyst type %q (valid: market, news)", name)
		}
	}
	if c.MaxDebateRounds < 1 {
		return errors.New("max_debate_rounds must be at least 1")
	}
	if c.MaxToolRounds < 1 {
		return errors.New("max_tool_rounds must be at least 1")
	}
	if c.MaxRecurLimit < 1 {
		return errors.New("max_recursion_limit must be at least 1")
	}
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case "deepseek":
		if c.DeepSeekAPIKey == "" {
			return errors.New("DEEPSEEK_API_KEY is required for the deepseek provider")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLMProvider)
	}
	return nil
}

// RetryDelay returns the base delay between model call retries.
func (c *Config) RetryDelay() time.Duration {
	if c.RetryDelaySec <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.RetryDelaySec) * time.Second
}

// EnsureDirs creates the result and cache directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.ResultsDir, c.DataCacheDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
