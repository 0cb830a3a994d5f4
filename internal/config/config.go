// Package config holds statbot's runtime configuration: defaults, optional
// YAML config file loading, and derived paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	SSB    SSBConfig    `yaml:"ssb"`
	LLM    LLMConfig    `yaml:"llm"`
	Agent  AgentConfig  `yaml:"agent"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"` // default 7411
	Host string `yaml:"host"` // default "127.0.0.1"
}

type StoreConfig struct {
	DataDir string `yaml:"dataDir"` // default "~/.statbot/data"
}

type SSBConfig struct {
	BaseURL string `yaml:"baseURL"` // default "https://data.ssb.no/api/v0"
	TableID string `yaml:"tableID"` // default "10235" (household budget survey)
	// DefaultYear is the year queried when the model omits one. 2012 is the
	// most recent year available in Table 10235.
	DefaultYear string `yaml:"defaultYear"`
}

type LLMConfig struct {
	Backend        string `yaml:"backend"` // "ollama" (default) or "openai"
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"baseURL"`
	APIKey         string `yaml:"apiKey"` // also read from STATBOT_LLM_API_KEY
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type AgentConfig struct {
	MaxIterations      int `yaml:"maxIterations"`      // default 5
	ToolTimeoutSeconds int `yaml:"toolTimeoutSeconds"` // default 30
	// Workers is how many sessions the runner executes concurrently.
	Workers int `yaml:"workers"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // default "info"
	Format string `yaml:"format"` // default "console"
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 7411,
			Host: "127.0.0.1",
		},
		Store: StoreConfig{
			DataDir: defaultDataDir(),
		},
		SSB: SSBConfig{
			BaseURL:     "https://data.ssb.no/api/v0",
			TableID:     "10235",
			DefaultYear: "2012",
		},
		LLM: LLMConfig{
			Backend:        "ollama",
			Model:          "llama3.2",
			TimeoutSeconds: 120,
		},
		Agent: AgentConfig{
			MaxIterations:      5,
			ToolTimeoutSeconds: 30,
			Workers:            2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML config file at path on top of the defaults. An empty
// path returns the defaults unchanged; a missing file at an explicit path is
// an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("STATBOT_LLM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Agent.MaxIterations < 0 {
		return fmt.Errorf("agent.maxIterations must not be negative")
	}
	if c.SSB.TableID == "" {
		return fmt.Errorf("ssb.tableID must not be empty")
	}
	return nil
}

// ServerAddress returns the listen address in "host:port" format.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DBPath returns the full path to the session database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.Store.DataDir, "statbot.db")
}

// CachePath returns the full path to the SSB response cache file. It is a
// separate BoltDB file from DBPath because bolt holds an exclusive file lock.
func (c *Config) CachePath() string {
	return filepath.Join(c.Store.DataDir, "cache.db")
}

// Timeout converts the configured model-call seconds to a duration.
func (l LLMConfig) Timeout() time.Duration {
	if l.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// ToolTimeout converts the configured seconds to a duration.
func (a AgentConfig) ToolTimeout() time.Duration {
	if a.ToolTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.ToolTimeoutSeconds) * time.Second
}

// defaultDataDir resolves the default data directory. It uses
// os.UserHomeDir() + "/.statbot/data", falling back to "/tmp/statbot/data"
// if the home directory cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "statbot", "data")
	}
	return filepath.Join(home, ".statbot", "data")
}
