package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearVendorEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STUDYTERM_LLM_PROVIDER", "")
	for _, v := range vendors {
		t.Setenv(v.keyEnv, "")
		for _, suffix := range []string{"API_KEY", "MODEL", "BASE_URL"} {
			t.Setenv(v.envPrefix()+suffix, "")
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-haiku", cfg.Anthropic.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
}

func TestApplyEnv(t *testing.T) {
	clearVendorEnv(t)
	t.Setenv("STUDYTERM_LLM_PROVIDER", "gemini")
	t.Setenv("STUDYTERM_GEMINI_API_KEY", "g-key")
	t.Setenv("STUDYTERM_GEMINI_MODEL", "gemini-pro")
	t.Setenv("STUDYTERM_OPENROUTER_BASE_URL", "http://localhost:9999/v1")

	cfg := ConfigFromEnv()
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-pro", cfg.Gemini.Model)
	assert.Equal(t, "http://localhost:9999/v1", cfg.OpenRouter.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.EqualError(t, cfg.Validate(), "STUDYTERM_ANTHROPIC_API_KEY is required for the anthropic provider")

	cfg.Provider = "mock"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "ollama"
	assert.EqualError(t, cfg.Validate(), `unknown LLM provider: "ollama"`)
}

func TestDiscoverUsesVendorKeysInOrder(t *testing.T) {
	clearVendorEnv(t)
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("OPENROUTER_API_KEY", "r-key")

	cfg := DefaultConfig()
	require.True(t, cfg.Discover())
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "o-key", cfg.OpenAI.APIKey)
}

func TestDiscoverKeepsConfiguredProvider(t *testing.T) {
	clearVendorEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg := DefaultConfig()
	cfg.Anthropic.APIKey = "a-key"
	require.True(t, cfg.Discover())
	assert.Equal(t, "anthropic", cfg.Provider)
}

func TestDiscoverWithoutKeys(t *testing.T) {
	clearVendorEnv(t)
	cfg := DefaultConfig()
	assert.False(t, cfg.Discover())
}

func TestNewProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"
	p, err := NewProvider(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Scripted{}, p)

	cfg.Provider = "openai"
	cfg.OpenAI.APIKey = "k"
	p, err = NewProvider(context.Background(), cfg, &eventLog{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &retrying{}, p)
	assert.Equal(t, "gpt-4o-mini", p.Model())

	cfg.Provider = "anthropic"
	_, err = NewProvider(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "STUDYTERM_ANTHROPIC_API_KEY")
}
