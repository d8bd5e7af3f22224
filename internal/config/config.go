package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	YouTube    YouTubeConfig    `mapstructure:"youtube"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Transcript TranscriptConfig `mapstructure:"transcript"`
	Audio      AudioConfig      `mapstructure:"audio"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type YouTubeConfig struct {
	// APIKey enables the official captions API strategy. Optional: without it
	// the transcript cascade starts at page scraping.
	APIKey string `mapstructure:"api_key"`
}

type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	Model              string `mapstructure:"model"`
	MaxTranscriptChars int    `mapstructure:"max_transcript_chars" validate:"min=1"`
	SentenceCount      int    `mapstructure:"sentence_count" validate:"min=1"`
}

type SpeechConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	// JobBackendURL enables asynchronous transcription jobs. Optional: without
	// it the audio pipeline transcribes synchronously.
	JobBackendURL       string `mapstructure:"job_backend_url"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds" validate:"min=1"`
}

type TranscriptConfig struct {
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds" validate:"min=1"`
	MinWords              int      `mapstructure:"min_words" validate:"min=1"`
	RequestsPerSecond     float64  `mapstructure:"requests_per_second"`
	LanguageCodes         []string `mapstructure:"language_codes"`
}

type AudioConfig struct {
	MirrorTimeoutSeconds int      `mapstructure:"mirror_timeout_seconds" validate:"min=1"`
	MaxDownloadBytes     int64    `mapstructure:"max_download_bytes" validate:"min=1"`
	PrimaryMirrors       []string `mapstructure:"primary_mirrors" validate:"dive,bare_host"`
	SecondaryMirrors     []string `mapstructure:"secondary_mirrors" validate:"dive,bare_host"`
	// RateLimitedMirror is always tried last within its family.
	RateLimitedMirror string `mapstructure:"rate_limited_mirror"`
}

func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lingotube")
	}

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origin", "http://localhost:3000")
	v.SetDefault("database.port", 3306)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_transcript_chars", 12000)
	v.SetDefault("openai.sentence_count", 10)
	v.SetDefault("speech.base_url", "https://api.openai.com/v1/audio/transcriptions")
	v.SetDefault("speech.poll_interval_seconds", 60)
	v.SetDefault("transcript.request_timeout_seconds", 10)
	v.SetDefault("transcript.min_words", 50)
	v.SetDefault("transcript.requests_per_second", 2)
	v.SetDefault("transcript.language_codes", []string{"en", "es", "fr", "de", "ja", "ko"})
	v.SetDefault("audio.mirror_timeout_seconds", 4)
	v.SetDefault("audio.max_download_bytes", 32<<20)

	// Secrets come from the environment only, never the config file.
	if err := v.BindEnv("youtube.api_key", "YOUTUBE_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind YOUTUBE_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("openai.model", "OPENAI_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_MODEL environment variable: %w", err)
	}
	if err := v.BindEnv("speech.api_key", "STT_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind STT_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("database.password", "DATABASE_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cfg.Validate() > %w", err)
	}

	return &cfg, nil
}

// Validate checks field constraints and reports every violation with a
// translated, human-readable message.
func (cfg *Config) Validate() error {
	validate, trans, err := newValidator()
	if err != nil {
		return fmt.Errorf("newValidator() > %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := make([]string, 0, len(validationErrors))
			for _, fieldError := range validationErrors {
				messages = append(messages, fieldError.Translate(trans))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("validate.Struct() > %w", err)
	}
	return nil
}
