// Package config loads the application configuration: a JSON file for the
// tunable knobs and the environment (optionally seeded from a .env file) for
// secrets. Nothing here is package-level state; callers pass the loaded
// Config down explicitly.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"social_post_generator/responseparser"
)

// Config is the top-level application configuration.
type Config struct {
	ServerAddr string          `json:"server_addr,omitempty"`
	DataDir    string          `json:"data_dir,omitempty"`
	LLM        *LLMConfig      `json:"llm,omitempty"`
	Images     *ImagesConfig   `json:"images,omitempty"`
	Parser     ParserConfig    `json:"parser"`
	Generator  GeneratorConfig `json:"generator"`
	Research   *ResearchConfig `json:"research,omitempty"`
}

// LLMConfig selects and configures the model backend.
type LLMConfig struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// ImagesConfig configures image generation.
type ImagesConfig struct {
	StylePrefix string `json:"style_prefix,omitempty"`
}

// ParserConfig exposes the response parsing policy. CollapseWhitespace is a
// pointer so "absent" keeps the parser default instead of forcing false.
type ParserConfig struct {
	MaxRetries         int   `json:"max_retries,omitempty"`
	RetryDelayMS       int   `json:"retry_delay_ms,omitempty"`
	MaxPosts           int   `json:"max_posts,omitempty"`
	CollapseWhitespace *bool `json:"collapse_whitespace,omitempty"`
}

// GeneratorConfig configures the generation agent.
type GeneratorConfig struct {
	PostsPerDay      int      `json:"posts_per_day,omitempty"`
	MaxRegenerations int      `json:"max_regenerations,omitempty"`
	Tone             string   `json:"tone,omitempty"`
	Audience         string   `json:"audience,omitempty"`
	Constraints      []string `json:"constraints,omitempty"`
	Topics           []string `json:"topics,omitempty"`
}

// ResearchConfig toggles web research for prompt context.
type ResearchConfig struct {
	Enabled bool `json:"enabled"`
}

const apiKeyEnv = "OPENAI_API_KEY"

// Load reads the JSON config from disk and fills secrets from the
// environment. A .env file next to the process is honored when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	if cfg.LLM != nil && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(apiKeyEnv)
	}
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.Generator.PostsPerDay <= 0 {
		cfg.Generator.PostsPerDay = 3
	}
	if cfg.Generator.MaxRegenerations <= 0 {
		cfg.Generator.MaxRegenerations = 2
	}
}

func (c Config) validate() error {
	if c.Parser.MaxPosts < 0 || c.Parser.MaxRetries < 0 || c.Parser.RetryDelayMS < 0 {
		return errors.New("parser settings must not be negative")
	}
	if c.Generator.PostsPerDay > 10 {
		return errors.New("posts_per_day exceeds the batch maximum of 10")
	}
	return nil
}

// ParserConfig maps the file settings onto the response parser's policy,
// keeping parser defaults for anything unset.
func (c Config) ParserConfig() responseparser.Config {
	out := responseparser.DefaultConfig()
	if c.Parser.MaxRetries > 0 {
		out.MaxRetries = c.Parser.MaxRetries
	}
	if c.Parser.RetryDelayMS > 0 {
		out.RetryDelay = time.Duration(c.Parser.RetryDelayMS) * time.Millisecond
	}
	if c.Parser.MaxPosts > 0 {
		out.MaxPosts = c.Parser.MaxPosts
	}
	if c.Parser.CollapseWhitespace != nil {
		out.CollapseWhitespace = *c.Parser.CollapseWhitespace
	}
	return out
}
