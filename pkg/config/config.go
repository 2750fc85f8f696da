package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Pipeline  PipelineConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	Development    bool
}

type LLMConfig struct {
	Provider     string
	BaseURL      string
	Model        string
	APIKey       string
	Temperature  float32
	MaxTokens    int
	TimeoutSec   int
	MaxAttempts  int
	BreakerTrips int
}

// Timeout returns the per-request deadline applied by the LLM client.
func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

type PipelineConfig struct {
	Offline    bool
	Persona    string
	DataDir    string
	InputFiles []string
	OutputPath string
}

// InputCandidates returns the input files in preference order, resolved
// against DataDir.
func (c PipelineConfig) InputCandidates() []string {
	paths := make([]string, 0, len(c.InputFiles))
	for _, name := range c.InputFiles {
		if filepath.IsAbs(name) {
			paths = append(paths, name)
			continue
		}
		paths = append(paths, filepath.Join(c.DataDir, name))
	}
	return paths
}

// Mode reports the configured run mode as used in logs and API payloads.
func (c PipelineConfig) Mode() string {
	if c.Offline {
		return "offline"
	}
	return "live"
}

type SQLiteConfig struct {
	Enabled bool
	Path    string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type RateLimitConfig struct {
	Enabled              bool
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/competitive-radar")

	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// bindLegacyEnv keeps the environment variables of the original deployment
// working next to the RADAR_ prefixed ones.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"pipeline.offline": {"RADAR_PIPELINE_OFFLINE", "DEMO_MODE"},
		"llm.apiKey":       {"RADAR_LLM_APIKEY", "GEMINI_FREE_API_KEY", "GEMINI_API_KEY"},
		"server.port":      {"RADAR_SERVER_PORT", "PORT"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 120)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.development", false)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.baseURL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.maxTokens", 1024)
	v.SetDefault("llm.timeoutSec", 60)
	v.SetDefault("llm.maxAttempts", 1)
	v.SetDefault("llm.breakerTrips", 5)

	v.SetDefault("pipeline.offline", true)
	v.SetDefault("pipeline.persona", "Tech Startup Founder")
	v.SetDefault("pipeline.dataDir", "./data")
	v.SetDefault("pipeline.inputFiles", []string{
		"competitor_updates_realtime.json",
		"competitor_updates_extended.json",
		"competitor_updates.json",
	})
	v.SetDefault("pipeline.outputPath", "weekly_digest.md")

	v.SetDefault("sqlite.enabled", true)
	v.SetDefault("sqlite.path", "./data/radar.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlSec", 3600)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.maxRequestsPerMinute", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
