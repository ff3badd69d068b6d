package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string           `mapstructure:"port"`
	AIEndpoint    string           `mapstructure:"ai_endpoint"`
	Model         string           `mapstructure:"model"`
	OpenAIAPIKey  string           `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys []string         `mapstructure:"gemini_api_keys"`
	MongoURI      string           `mapstructure:"MONGODB_URI"`
	Search        SearchConfig     `mapstructure:"search"`
	Processing    ProcessingConfig `mapstructure:"processing"`
}

type SearchConfig struct {
	APIKey   string `mapstructure:"GOOGLE_SEARCH_API_KEY"`
	EngineID string `mapstructure:"search_engine_id"`
}

type ProcessingConfig struct {
	MaxMemoryMB       int           `mapstructure:"max_memory_mb"`
	MaxCPUPercent     float64       `mapstructure:"max_cpu_percent"`
	ProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
	MaxContextChars   int           `mapstructure:"max_context_chars"`
	SummaryMaxTokens  int           `mapstructure:"summary_max_tokens"`
}

// DefaultProcessingConfig mirrors the processing limits used in production.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		MaxMemoryMB:       512,
		MaxCPUPercent:     90,
		ProcessingTimeout: 300 * time.Second,
		MaxContextChars:   2000,
		SummaryMaxTokens:  400,
	}
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set up Viper to read from config file
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	// Bind environment variables
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("MONGODB_URI")
	// The key lives under the search section, so the nested viper key
	// must be bound explicitly to the flat env var
	v.BindEnv("search.GOOGLE_SEARCH_API_KEY", "GOOGLE_SEARCH_API_KEY")

	v.SetDefault("processing.max_memory_mb", 512)
	v.SetDefault("processing.max_cpu_percent", 90)
	v.SetDefault("processing.processing_timeout", "300s")
	v.SetDefault("processing.max_context_chars", 2000)
	v.SetDefault("processing.summary_max_tokens", 400)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
