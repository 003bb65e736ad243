package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config selects and configures the assistant's model.
type Config struct {
	// Provider is "gemini", "openai", "anthropic", "openrouter" or "mock".
	Provider string `toml:"provider"`

	Anthropic  VendorConfig `toml:"anthropic"`
	OpenAI     VendorConfig `toml:"openai"`
	Gemini     VendorConfig `toml:"gemini"`
	OpenRouter VendorConfig `toml:"openrouter"`
	Retry      RetryConfig  `toml:"-"`

	// MaxTokens caps assistant replies.
	MaxTokens int `toml:"max_tokens"`

	// Timeout bounds a single assistant turn including retries.
	Timeout time.Duration `toml:"-"`
}

// VendorConfig holds one vendor's credentials and model.
type VendorConfig struct {
	APIKey string `toml:"api_key"`
	// Model is a friendly alias (see the vendor table) or a raw model id.
	Model string `toml:"model"`
	// BaseURL overrides the API endpoint.
	BaseURL string `toml:"base_url"`
}

// RetryConfig is exponential backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// vendor describes one supported API.
type vendor struct {
	name string
	// keyEnv is the vendor's conventional API key variable.
	keyEnv       string
	defaultModel string
	baseURL      string
	aliases      map[string]string
	settings     func(*Config) *VendorConfig
}

// vendors is in discovery order.
var vendors = []vendor{
	{
		name:         "gemini",
		keyEnv:       "GEMINI_API_KEY",
		defaultModel: "gemini-flash",
		aliases: map[string]string{
			"gemini-flash": "gemini-2.0-flash",
			"gemini-pro":   "gemini-2.0-pro",
		},
		settings: func(c *Config) *VendorConfig { return &c.Gemini },
	},
	{
		name:         "openai",
		keyEnv:       "OPENAI_API_KEY",
		defaultModel: "gpt-4o-mini",
		aliases: map[string]string{
			"gpt-4o":      "gpt-4o",
			"gpt-4o-mini": "gpt-4o-mini",
		},
		settings: func(c *Config) *VendorConfig { return &c.OpenAI },
	},
	{
		name:         "anthropic",
		keyEnv:       "ANTHROPIC_API_KEY",
		defaultModel: "claude-haiku",
		aliases: map[string]string{
			"claude-sonnet": "claude-sonnet-4-5-20250929",
			"claude-haiku":  "claude-haiku-4-5-20251001",
		},
		settings: func(c *Config) *VendorConfig { return &c.Anthropic },
	},
	{
		name:         "openrouter",
		keyEnv:       "OPENROUTER_API_KEY",
		defaultModel: "google/gemini-2.0-flash-exp",
		baseURL:      "https://openrouter.ai/api/v1",
		settings:     func(c *Config) *VendorConfig { return &c.OpenRouter },
	},
}

func lookupVendor(name string) (vendor, bool) {
	for _, v := range vendors {
		if v.name == name {
			return v, true
		}
	}
	return vendor{}, false
}

func mustVendor(name string) vendor {
	v, ok := lookupVendor(name)
	if !ok {
		panic("llm: unknown vendor " + name)
	}
	return v
}

// resolve maps a friendly alias to a model id. Unknown names pass through
// so raw ids work too.
func (v vendor) resolve(model string) string {
	if model == "" {
		model = v.defaultModel
	}
	if id, ok := v.aliases[model]; ok {
		return id
	}
	return model
}

func (v vendor) envPrefix() string {
	return "STUDYTERM_" + strings.ToUpper(v.name) + "_"
}

func (v vendor) check(vc VendorConfig) error {
	if vc.APIKey == "" {
		return fmt.Errorf("%sAPI_KEY is required for the %s provider", v.envPrefix(), v.name)
	}
	return nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	c := Config{
		Provider: "anthropic",
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
		MaxTokens: DefaultMaxTokens,
		Timeout:   30 * time.Second,
	}
	for _, v := range vendors {
		v.settings(&c).Model = v.defaultModel
	}
	return c
}

// ConfigFromEnv returns DefaultConfig with STUDYTERM_* overrides applied.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv applies STUDYTERM_LLM_PROVIDER and, per vendor,
// STUDYTERM_<VENDOR>_API_KEY, _MODEL and _BASE_URL.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	set(&c.Provider, "STUDYTERM_LLM_PROVIDER")
	for _, v := range vendors {
		vc := v.settings(c)
		set(&vc.APIKey, v.envPrefix()+"API_KEY")
		set(&vc.Model, v.envPrefix()+"MODEL")
		set(&vc.BaseURL, v.envPrefix()+"BASE_URL")
	}
}

// Discover falls back to the vendors' own API key variables, in table
// order, when the selected provider has no key. It reports whether a
// usable provider is configured.
func (c *Config) Discover() bool {
	if c.Validate() == nil {
		return true
	}
	for _, v := range vendors {
		if key := os.Getenv(v.keyEnv); key != "" {
			c.Provider = v.name
			v.settings(c).APIKey = key
			return true
		}
	}
	return false
}

// Validate checks that the selected provider is known and has a key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	v, ok := lookupVendor(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return v.check(*v.settings(&c))
}
