package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"log_inspector/internal/retrieval"
)

// Ask индексирует файл и отвечает на вопрос по релевантным фрагментам
func (a *App) Ask(ctx context.Context, path, question string, topK int) (retrieval.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return retrieval.Answer{}, fmt.Errorf("question is empty")
	}

	logger := a.logger.With(zap.String("path", path))
	index, err := a.indexDocument(ctx, path, logger)
	if err != nil {
		return retrieval.Answer{}, err
	}

	logger.Info("🤖 Asking", zap.String("question", question))
	assistant := retrieval.NewAssistant(index, a.client, retrieval.AssistantOptions{
		TopK:   topK,
		Logger: logger,
	})
	return assistant.Ask(ctx, question)
}

// WriteAnswer печатает ответ и список использованных фрагментов
func WriteAnswer(w io.Writer, answer retrieval.Answer) error {
	var buf strings.Builder

	buf.WriteString(answer.Text)
	buf.WriteString("\n\nSources:\n")
	for i, h := range answer.Sources {
		fmt.Fprintf(&buf, "  %d. chunk %d, bytes %d-%d (similarity: %.2f)\n",
			i+1, h.ChunkIndex+1, h.Start, h.End, h.Similarity)
	}

	_, err := io.WriteString(w, buf.String())
	return err
}
