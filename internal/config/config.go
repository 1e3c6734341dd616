package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"corpus-search/internal/corpus"
)

// Config holds all application configuration
type Config struct {
	// Insights server settings
	ServerURL       string
	Timeout         time.Duration
	MaxResponseSize int64
	UserAgent       string

	// Model the neural-net search runs against
	Model corpus.Model

	// History settings
	HistoryPath    string
	MaxHistorySize int

	// Logging
	LogPath  string
	LogLevel string

	Verbose bool
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		ServerURL:       "http://localhost:8010",
		Timeout:         30 * time.Second,
		MaxResponseSize: corpus.DefaultMaxResponseSize,
		UserAgent:       "corpus-search/1.0",

		Model: corpus.Model{
			ID:             "",
			SourceLanguage: corpus.Language{Code: "en", Name: "English"},
			TargetLanguage: corpus.Language{Code: "de", Name: "German"},
		},

		HistoryPath:    expandHome("~/.corpus-search/history.json"),
		MaxHistorySize: 10,

		LogPath:  expandHome("~/.corpus-search/corpus-search.log"),
		LogLevel: "info",

		Verbose: false,
	}
}

// Load builds the configuration from defaults, an optional TOML file and
// CORPUS_SEARCH_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := NewConfig()
	v := viper.New()

	v.SetDefault("server.url", cfg.ServerURL)
	v.SetDefault("server.timeout", cfg.Timeout)
	v.SetDefault("server.max_response_size", cfg.MaxResponseSize)
	v.SetDefault("server.user_agent", cfg.UserAgent)
	v.SetDefault("model.id", cfg.Model.ID)
	v.SetDefault("model.source_language", cfg.Model.SourceLanguage.Code)
	v.SetDefault("model.target_language", cfg.Model.TargetLanguage.Code)
	v.SetDefault("history.path", cfg.HistoryPath)
	v.SetDefault("history.max_sessions", cfg.MaxHistorySize)
	v.SetDefault("log.path", cfg.LogPath)
	v.SetDefault("log.level", cfg.LogLevel)
	v.SetDefault("verbose", cfg.Verbose)

	v.SetConfigType("toml")
	if path := GetEnv("CORPUS_SEARCH_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(getHomeDir(), ".config", "corpus-search"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CORPUS_SEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.ServerURL = v.GetString("server.url")
	cfg.Timeout = v.GetDuration("server.timeout")
	cfg.MaxResponseSize = v.GetInt64("server.max_response_size")
	cfg.UserAgent = v.GetString("server.user_agent")
	cfg.Model.ID = v.GetString("model.id")
	cfg.Model.SourceLanguage = corpus.Language{Code: v.GetString("model.source_language")}
	cfg.Model.TargetLanguage = corpus.Language{Code: v.GetString("model.target_language")}
	cfg.HistoryPath = expandHome(v.GetString("history.path"))
	cfg.MaxHistorySize = v.GetInt("history.max_sessions")
	cfg.LogPath = expandHome(v.GetString("log.path"))
	cfg.LogLevel = v.GetString("log.level")
	cfg.Verbose = v.GetBool("verbose")

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server URL %q must be absolute, e.g. http://localhost:8010", c.ServerURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxResponseSize < 1024 {
		return fmt.Errorf("max response size must be at least 1024 bytes")
	}
	if c.MaxHistorySize < 1 {
		return fmt.Errorf("max history size must be at least 1")
	}
	return nil
}

// ValidateModel checks that a neural-net search has a model to run against
func (c *Config) ValidateModel() error {
	if c.Model.ID == "" {
		return fmt.Errorf("neural-net search needs a model id (-model or model.id)")
	}
	if c.Model.SourceLanguage.Code == "" || c.Model.TargetLanguage.Code == "" {
		return fmt.Errorf("neural-net search needs source and target language codes")
	}
	return nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir := getHomeDir()
		return homeDir + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
