package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"log_inspector/internal/chunker"
	"log_inspector/internal/llm"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	// UserFile лежит в домашнем каталоге, синтаксис dotenv
	UserFile = ".log-inspector.cnf"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalid            = errors.New("invalid configuration")
)

type Config struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"openai"`

	OpenAIKey         string  `env:"OPENAI_API_KEY"`
	OpenAIHost        string  `env:"OPENAI_HOST" envDefault:"https://api.openai.com"`
	OpenAIModel       string  `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAITemperature float64 `env:"OPENAI_TEMPERATURE" envDefault:"0.3"`
	OpenAIEmbedModel  string  `env:"OPENAI_EMBED_MODEL" envDefault:"text-embedding-3-small"`

	GeminiKey     string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL"`

	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	MaxRetries        int           `env:"MAX_RETRIES" envDefault:"2"`
	MaxConcurrency    int           `env:"MAX_CONCURRENCY" envDefault:"4"`
	ResponseCacheSize int           `env:"RESPONSE_CACHE_SIZE" envDefault:"256"`

	Chunking chunker.Config `envPrefix:"CHUNK_"`
}

// Load читает окружение процесса, затем ~/.log-inspector.cnf, затем ./.env.
// Побеждает более ранний источник, отсутствующие файлы пропускаются.
func Load() (*Config, error) {
	var files []string
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, UserFile))
	}
	files = append(files, ".env")

	return LoadFrom(environ(), files...)
}

// LoadFrom подкладывает dotenv-файлы под vars, первый файл главнее
func LoadFrom(vars map[string]string, files ...string) (*Config, error) {
	merged := make(map[string]string, len(vars))
	for i := len(files) - 1; i >= 0; i-- {
		values, err := godotenv.Read(files[i])
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %w", ErrInvalid, files[i], err)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	for k, v := range vars {
		merged[k] = v
	}

	return Parse(merged)
}

// Parse строит Config из явного набора переменных, без проверки
func Parse(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return cfg, nil
}

// Validate проверяет конфигурацию до чтения каких-либо файлов
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingCredentials)
		}
	case ProviderGemini:
		if c.GeminiKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrMissingCredentials)
		}
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", ErrInvalid, c.Provider)
	}

	switch {
	case c.MaxConcurrency < 1:
		return fmt.Errorf("%w: MAX_CONCURRENCY must be at least 1, got %d", ErrInvalid, c.MaxConcurrency)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: MAX_RETRIES must not be negative, got %d", ErrInvalid, c.MaxRetries)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: REQUEST_TIMEOUT must be positive, got %s", ErrInvalid, c.RequestTimeout)
	case c.OpenAITemperature < 0 || c.OpenAITemperature > 2:
		return fmt.Errorf("%w: OPENAI_TEMPERATURE must be within [0, 2], got %g", ErrInvalid, c.OpenAITemperature)
	case c.ResponseCacheSize < 0:
		return fmt.Errorf("%w: RESPONSE_CACHE_SIZE must not be negative, got %d", ErrInvalid, c.ResponseCacheSize)
	}

	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Retry переводит MAX_RETRIES в политику повторов клиента
func (c *Config) Retry() llm.RetryConfig {
	retry := llm.DefaultRetryConfig()
	retry.MaxAttempts = c.MaxRetries + 1
	return retry
}

func (c *Config) OpenAI() llm.OpenAIConfig {
	return llm.OpenAIConfig{
		APIKey:      c.OpenAIKey,
		Host:        c.OpenAIHost,
		Model:       c.OpenAIModel,
		Temperature: c.OpenAITemperature,
		Timeout:     c.RequestTimeout,
		Retry:       c.Retry(),
	}
}

func (c *Config) Gemini() llm.GeminiConfig {
	return llm.GeminiConfig{
		APIKey:      c.GeminiKey,
		BaseURL:     c.GeminiBaseURL,
		Model:       c.GeminiModel,
		Temperature: float32(c.OpenAITemperature),
		Timeout:     c.RequestTimeout,
		Retry:       c.Retry(),
	}
}

// LoadChunkPolicy накладывает YAML-политику поверх base. Отсутствующие в файле
// ключи берутся из base, неизвестные ключи - ошибка.
func LoadChunkPolicy(path string, base chunker.Config) (chunker.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("%w: failed to open chunk policy: %w", ErrInvalid, err)
	}
	defer f.Close()

	policy := base
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&policy); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("%w: failed to parse chunk policy %s: %w", ErrInvalid, path, err)
	}
	if err := policy.Validate(); err != nil {
		return base, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return policy, nil
}

func environ() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars
}
