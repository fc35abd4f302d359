package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"log_inspector/internal/chunker"
	"log_inspector/internal/config"
	"log_inspector/internal/retrieval"
)

// indexDocument режет файл тем же Reader, что и Inspect, и кладёт чанки в индекс
func (a *App) indexDocument(ctx context.Context, path string, logger *zap.Logger) (*retrieval.Index, error) {
	if a.embeddingFunc == nil {
		return nil, fmt.Errorf("%w: ask needs OPENAI_API_KEY for embeddings", config.ErrMissingCredentials)
	}

	reader, err := chunker.Open(path, a.strategy, logger)
	if err != nil {
		return nil, err
	}
	chunks, err := reader.ReadChunks()
	if err != nil {
		return nil, err
	}

	index, err := retrieval.NewIndex(a.embeddingFunc, logger)
	if err != nil {
		return nil, err
	}
	if err := index.Add(ctx, chunks); err != nil {
		return nil, err
	}
	return index, nil
}
