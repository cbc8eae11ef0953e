package publisher

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"careerplan/locale"
)

const (
	defaultServerAddr = ":8080"

	// EngineDialect renders with the plan dialect parser in package markdown.
	EngineDialect = "dialect"
	// EngineCommonMark renders with goldmark.
	EngineCommonMark = "commonmark"
)

// Config holds the service settings read from config.json.
type Config struct {
	LLM        *LLMConfig `json:"llm,omitempty"`
	ServerAddr string     `json:"server_addr,omitempty"`
	// DBPath selects the SQLite store. Empty keeps surveys in memory.
	DBPath   string `json:"db_path,omitempty"`
	Engine   string `json:"engine,omitempty"`
	Language string `json:"language,omitempty"`
}

// LLMConfig configures the plan generator's model.
type LLMConfig struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	APIKeyEnv   string  `json:"api_key_env,omitempty"`
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int64   `json:"max_tokens,omitempty"`
}

// LoadConfig reads JSON config from disk and fills in defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.setDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() error {
	if c.ServerAddr == "" {
		c.ServerAddr = defaultServerAddr
	}
	switch c.Engine {
	case "":
		c.Engine = EngineDialect
	case EngineDialect, EngineCommonMark:
	default:
		return errors.Errorf("unknown engine %q (want %s or %s)", c.Engine, EngineDialect, EngineCommonMark)
	}
	c.Language = locale.Normalize(c.Language)
	if c.LLM != nil && c.LLM.APIKey == "" && c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
	return nil
}
