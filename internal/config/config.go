// Package config loads studyterm settings: defaults, then the TOML file,
// then STUDYTERM_* environment variables. Command-line flags are applied last
// by the cmd package.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/phnplatform/studyterm/internal/llm"
)

const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Config is the whole configuration file.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Local   LocalConfig   `toml:"local"`
	Log     LogConfig     `toml:"log"`
	LLM     llm.Config    `toml:"llm"`
}

// BackendConfig selects and configures the collaborators.
type BackendConfig struct {
	Mode       string   `toml:"mode"`
	APIURL     string   `toml:"api_url"`
	ChatbotURL string   `toml:"chatbot_url"`
	Token      string   `toml:"token"`
	Timeout    Duration `toml:"timeout"`
	// ProgressRate is the maximum progress reports per second sent upstream.
	ProgressRate  float64 `toml:"progress_rate"`
	ProgressBurst int     `toml:"progress_burst"`
}

// LocalConfig configures offline mode.
type LocalConfig struct {
	CourseFile string `toml:"course_file"`
	DBPath     string `toml:"db_path"`
	// Probe enables ffprobe for videos without a declared duration.
	Probe bool `toml:"probe"`
}

// LogConfig configures the rotated log file.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Duration decodes TOML strings like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Mode:          ModeRemote,
			Timeout:       Duration{15 * time.Second},
			ProgressRate:  0.2,
			ProgressBurst: 1,
		},
		Local: LocalConfig{
			Probe: true,
		},
		Log: LogConfig{
			Level:      "info",
			File:       DefaultLogPath(),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("stat config: %w", err)
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from STUDYTERM_* environment variables.
func (c *Config) ApplyEnv() error {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Backend.Mode, "STUDYTERM_MODE")
	set(&c.Backend.APIURL, "STUDYTERM_API_URL")
	set(&c.Backend.ChatbotURL, "STUDYTERM_CHATBOT_URL")
	set(&c.Backend.Token, "STUDYTERM_TOKEN")
	set(&c.Local.CourseFile, "STUDYTERM_COURSE_FILE")
	set(&c.Local.DBPath, "STUDYTERM_DB")
	set(&c.Log.Level, "STUDYTERM_LOG_LEVEL")
	set(&c.Log.File, "STUDYTERM_LOG_FILE")

	if v := os.Getenv("STUDYTERM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STUDYTERM_TIMEOUT: %w", err)
		}
		c.Backend.Timeout.Duration = d
	}
	if v := os.Getenv("STUDYTERM_PROGRESS_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("STUDYTERM_PROGRESS_RATE: %w", err)
		}
		c.Backend.ProgressRate = r
	}

	c.LLM.ApplyEnv()
	return nil
}

// Validate checks the settings the selected mode depends on. LLM settings
// are checked lazily: a local course without a provider simply has no
// assistant.
func (c Config) Validate() error {
	switch c.Backend.Mode {
	case ModeRemote:
		if strings.TrimSpace(c.Backend.APIURL) == "" {
			return fmt.Errorf("backend.api_url (STUDYTERM_API_URL) is required in remote mode")
		}
	case ModeLocal:
		if strings.TrimSpace(c.Local.CourseFile) == "" {
			return fmt.Errorf("local.course_file (STUDYTERM_COURSE_FILE) is required in local mode")
		}
	default:
		return fmt.Errorf("unknown backend mode %q (want %q or %q)", c.Backend.Mode, ModeRemote, ModeLocal)
	}
	if c.Backend.Timeout.Duration < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	if c.Backend.ProgressRate < 0 {
		return fmt.Errorf("backend.progress_rate must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
