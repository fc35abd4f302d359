package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OpenAIConfig - настройки клиента OpenAI-совместимого chat completions
type OpenAIConfig struct {
	APIKey      string
	Host        string // e.g. https://api.openai.com, no /v1 suffix
	Model       string
	Temperature float64
	Timeout     time.Duration // на одну попытку
	Retry       RetryConfig
}

// OpenAIClient ходит в {Host}/v1/chat/completions
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient создаёт клиента. API-ключ обязателен.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.Host == "" {
		cfg.Host = "https://api.openai.com"
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
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

	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// Chat отправляет одно system и одно user сообщение и возвращает первый choice
func (c *OpenAIClient) Chat(ctx context.Context, systemPrompt, userContent string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	started := time.Now()
	answer, err := retryWithBackoff(ctx, c.cfg.Retry, func() (string, error) {
		return c.do(ctx, body)
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("🤖 Chat completed",
		zap.String("model", c.cfg.Model),
		zap.Int("request_bytes", len(body)),
		zap.Duration("elapsed", time.Since(started)))
	return answer, nil
}

func (c *OpenAIClient) do(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	url := c.cfg.Host + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Debug("Analysis service rejected request", zap.Int("status", resp.StatusCode))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	return completion.Choices[0].Message.Content, nil
}
