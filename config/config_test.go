package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 3, cfg.Generator.PostsPerDay)
	assert.Equal(t, 2, cfg.Generator.MaxRegenerations)

	pc := cfg.ParserConfig()
	assert.Equal(t, 3, pc.MaxRetries)
	assert.Equal(t, 10, pc.MaxPosts)
	assert.Equal(t, time.Second, pc.RetryDelay)
	assert.True(t, pc.CollapseWhitespace)
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	path := writeConfig(t, `{"llm": {"provider": "openai", "model": "gpt-4o-mini"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.LLM)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
}

func TestLoad_FileKeyWinsOverEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	path := writeConfig(t, `{"llm": {"provider": "openai", "model": "m", "api_key": "sk-from-file"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", cfg.LLM.APIKey)
}

func TestLoad_ParserOverrides(t *testing.T) {
	path := writeConfig(t, `{"parser": {"max_retries": 5, "retry_delay_ms": 250, "max_posts": 6, "collapse_whitespace": false}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	pc := cfg.ParserConfig()
	assert.Equal(t, 5, pc.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, pc.RetryDelay)
	assert.Equal(t, 6, pc.MaxPosts)
	assert.False(t, pc.CollapseWhitespace)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("posts_per_day above batch maximum", func(t *testing.T) {
		path := writeConfig(t, `{"generator": {"posts_per_day": 11}}`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeConfig(t, `{`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}
