package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiConfig - настройки бэкенда Gemini
type GeminiConfig struct {
	APIKey      string
	BaseURL     string // пусто - публичный endpoint Gemini API
	Model       string
	Temperature float32
	Timeout     time.Duration
	Retry       RetryConfig
}

// GeminiClient реализует Chatter поверх Gemini API
type GeminiClient struct {
	cfg    GeminiConfig
	client *genai.Client
	logger *zap.Logger
}

// NewGeminiClient создаёт Chatter на Gemini
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{cfg: cfg, client: client, logger: logger}, nil
}

// Chat отправляет инструкцию как system instruction, а чанк как пользовательский текст
func (g *GeminiClient) Chat(ctx context.Context, systemPrompt, userContent string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.cfg.Temperature),
	}

	started := time.Now()
	answer, err := retryWithBackoff(ctx, g.cfg.Retry, func() (string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		result, err := g.client.Models.GenerateContent(attemptCtx, g.cfg.Model, genai.Text(userContent), config)
		if err != nil {
			return "", geminiError(err)
		}

		text := strings.TrimSpace(result.Text())
		if text == "" {
			return "", fmt.Errorf("%w: empty candidate", ErrMalformedResponse)
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}

	g.logger.Debug("🤖 Chat completed",
		zap.String("model", g.cfg.Model),
		zap.Duration("elapsed", time.Since(started)))
	return answer, nil
}

// geminiError переводит ошибку API в StatusError, чтобы retry видел код ответа
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &StatusError{StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return fmt.Errorf("GenAI generate failed: %w", err)
}
