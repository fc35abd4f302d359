// Package retrieval держит in-memory векторный индекс по чанкам лога
// и отвечает на вопросы по найденным фрагментам.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"log_inspector/internal/chunker"
)

const collectionName = "chunks"

// ErrEmptyIndex - в индексе нет ни одного чанка
var ErrEmptyIndex = errors.New("index is empty")

// Index - векторный индекс чанков одного или нескольких логов
type Index struct {
	db            *chromem.DB
	coll          *chromem.Collection
	embeddingFunc chromem.EmbeddingFunc
	logger        *zap.Logger
}

// NewOpenAIEmbedding - эмбеддинги через OpenAI-совместимый /v1/embeddings
func NewOpenAIEmbedding(host, apiKey, model string) chromem.EmbeddingFunc {
	baseURL := strings.TrimRight(host, "/") + "/v1"
	return chromem.NewEmbeddingFuncOpenAICompat(baseURL, apiKey, model, nil)
}

// NewIndex создаёт пустой индекс
func NewIndex(embeddingFunc chromem.EmbeddingFunc, logger *zap.Logger) (*Index, error) {
	if embeddingFunc == nil {
		return nil, errors.New("embedding func is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db := chromem.NewDB()
	coll, err := db.CreateCollection(collectionName, map[string]string{}, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &Index{
		db:            db,
		coll:          coll,
		embeddingFunc: embeddingFunc,
		logger:        logger,
	}, nil
}

// Add индексирует чанки. Контекст предыдущего чанка не индексируется:
// каждый фрагмент лога попадает в индекс ровно один раз.
func (ix *Index) Add(ctx context.Context, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, ch := range chunks {
		docs = append(docs, chromem.Document{
			ID:      ch.ID,
			Content: ch.Text,
			Metadata: map[string]string{
				"source": ch.Source,
				"index":  strconv.Itoa(ch.Index),
				"start":  strconv.Itoa(ch.Start),
				"end":    strconv.Itoa(ch.End),
			},
		})
	}

	if err := ix.coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}

	ix.logger.Info("🗂️ Chunks indexed",
		zap.Int("added", len(docs)),
		zap.Int("total", ix.coll.Count()))
	return nil
}

// Count возвращает число проиндексированных чанков
func (ix *Index) Count() int {
	return ix.coll.Count()
}
