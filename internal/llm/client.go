// Package llm - клиент сервиса анализа: системная инструкция и текст на входе,
// свободный текстовый ответ на выходе.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Chatter - контракт внешнего сервиса анализа.
// Реализации должны быть потокобезопасны.
type Chatter interface {
	Chat(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// ChatFunc превращает обычную функцию в Chatter
type ChatFunc func(ctx context.Context, systemPrompt, userContent string) (string, error)

func (f ChatFunc) Chat(ctx context.Context, systemPrompt, userContent string) (string, error) {
	return f(ctx, systemPrompt, userContent)
}

// ErrMalformedResponse - сервис ответил 2xx, но тело не разбирается
// или не содержит текста.
var ErrMalformedResponse = errors.New("malformed response from analysis service")

// StatusError - ответ сервиса с кодом не 2xx
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis service returned status %d: %s", e.StatusCode, e.Body)
}

// Temporary - имеет ли смысл повторить запрос
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RetryConfig - параметры retryWithBackoff
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig - два повтора: через 500ms, затем через 1s
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// retryWithBackoff вызывает fn до успеха, постоянной ошибки или конца попыток
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay
	attempts := max(config.MaxAttempts, 1)

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		// При отмене контекста не повторяем
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !retryable(err) {
			return zero, err
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}

func retryable(err error) bool {
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	// сетевая ошибка или таймаут попытки
	return true
}
