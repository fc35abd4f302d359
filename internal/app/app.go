package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"log_inspector/internal/analysis"
	"log_inspector/internal/chunker"
	"log_inspector/internal/config"
	"log_inspector/internal/llm"
	"log_inspector/internal/retrieval"
)

// ErrAllChunksFailed - ни один чанк не удалось проанализировать
var ErrAllChunksFailed = errors.New("every chunk failed analysis")

const defaultDebounce = 500 * time.Millisecond

type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	strategy      *chunker.Strategy
	client        llm.Chatter
	embeddingFunc chromem.EmbeddingFunc
	kinds         []analysis.Kind
	debounce      time.Duration
}

type Option func(*App)

// WithChatter подменяет сервис анализа (тесты, альтернативные бэкенды)
func WithChatter(c llm.Chatter) Option {
	return func(a *App) { a.client = c }
}

// WithEmbedding подменяет функцию эмбеддингов для ask
func WithEmbedding(fn chromem.EmbeddingFunc) Option {
	return func(a *App) { a.embeddingFunc = fn }
}

// WithKinds ограничивает набор анализов
func WithKinds(kinds ...analysis.Kind) Option {
	return func(a *App) { a.kinds = kinds }
}

// WithDebounce задаёт паузу перед повторным анализом в watch
func WithDebounce(d time.Duration) Option {
	return func(a *App) { a.debounce = d }
}

// New проверяет конфиг и собирает зависимости. К файлам не обращается.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		client, err := newChatter(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		a.client = client
	} else if err := cfg.Chunking.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	a.client = llm.NewCachedChatter(a.client, cfg.ResponseCacheSize)

	strategy, err := chunker.NewStrategy(cfg.Chunking)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	a.strategy = strategy

	if a.embeddingFunc == nil && cfg.OpenAIKey != "" {
		a.embeddingFunc = retrieval.NewOpenAIEmbedding(cfg.OpenAIHost, cfg.OpenAIKey, cfg.OpenAIEmbedModel)
	}

	logger.Debug("⚙️ App configured",
		zap.String("provider", cfg.Provider),
		zap.Int("concurrency", cfg.MaxConcurrency),
		zap.Int("cache_size", cfg.ResponseCacheSize),
		zap.Int64("max_chunk_bytes", cfg.Chunking.MaxChunkBytes()))

	return a, nil
}

func newChatter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.Chatter, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return llm.NewGeminiClient(ctx, cfg.Gemini(), logger)
	default:
		return llm.NewOpenAIClient(cfg.OpenAI(), logger)
	}
}

// logCacheStats пишет статистику кэша ответов, если он включён
func (a *App) logCacheStats(logger *zap.Logger) {
	cached, ok := a.client.(*llm.CachedChatter)
	if !ok {
		return
	}
	hits, misses := cached.Stats()
	logger.Debug("🧠 Response cache", zap.Int64("hits", hits), zap.Int64("misses", misses))
}

// Коды выхода
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfig      = 2
	ExitAllFailed   = 3
	ExitFile        = 4
	ExitInvariant   = 5
	ExitInterrupted = 130
)

// ExitCode переводит ошибку запуска в код возврата процесса
func ExitCode(err error) int {
	var fileErr *chunker.FileError

	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrMissingCredentials), errors.Is(err, config.ErrInvalid):
		return ExitConfig
	case errors.As(err, &fileErr):
		return ExitFile
	case errors.Is(err, chunker.ErrChunkingInvariant):
		return ExitInvariant
	case errors.Is(err, ErrAllChunksFailed):
		return ExitAllFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}
