package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the search service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Index     IndexConfig     `mapstructure:"index"`
	Search    SearchConfig    `mapstructure:"search"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and admin auth settings
type ServerConfig struct {
	Address           string `mapstructure:"address"`
	JWTSecret         string `mapstructure:"jwt_secret"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"` // bcrypt hash
}

// IndexConfig describes where the search index lives and how it is refreshed.
type IndexConfig struct {
	SourceURL      string        `mapstructure:"source_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RefreshCron    string        `mapstructure:"refresh_cron"`
	SnippetLength  int           `mapstructure:"snippet_length"`
	CommonTopics   []string      `mapstructure:"common_topics"`
}

func (i IndexConfig) Validate() error {
	if strings.TrimSpace(i.SourceURL) == "" {
		return fmt.Errorf("index.source_url is required")
	}
	if i.SnippetLength < 0 {
		return fmt.Errorf("index.snippet_length cannot be negative")
	}
	return nil
}

// Normalize applies defaults for unset index values.
func (i IndexConfig) Normalize() IndexConfig {
	if i.RequestTimeout <= 0 {
		i.RequestTimeout = 10 * time.Second
	}
	if i.SnippetLength <= 0 {
		i.SnippetLength = 180
	}
	if len(i.CommonTopics) == 0 {
		i.CommonTopics = []string{
			"projects", "blog", "tutorials", "portfolio", "technology",
			"development", "programming", "web design", "code", "software",
			"github", "javascript", "python", "react", "design", "analysis",
		}
	}
	return i
}

// SearchConfig tunes query execution and the suggestion/history surfaces.
type SearchConfig struct {
	MaxResults      int           `mapstructure:"max_results"`
	SearchDebounce  time.Duration `mapstructure:"search_debounce"`
	SuggestDebounce time.Duration `mapstructure:"suggest_debounce"`
	HistoryMax      int           `mapstructure:"history_max"`
	SuggestionLimit int           `mapstructure:"suggestion_limit"`
}

// Normalize applies defaults for unset search values.
func (s SearchConfig) Normalize() SearchConfig {
	if s.MaxResults <= 0 {
		s.MaxResults = 50
	}
	if s.SearchDebounce <= 0 {
		s.SearchDebounce = 300 * time.Millisecond
	}
	if s.SuggestDebounce <= 0 {
		s.SuggestDebounce = 200 * time.Millisecond
	}
	if s.HistoryMax <= 0 {
		s.HistoryMax = 10
	}
	if s.SuggestionLimit <= 0 {
		s.SuggestionLimit = 5
	}
	return s
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr returns the host:port address for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("server.address", ":10030")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("index.refresh_cron", "@hourly")
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("SITESEARCH")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Index = config.Index.Normalize()
	config.Search = config.Search.Normalize()

	if err := config.Index.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	return &config
}
