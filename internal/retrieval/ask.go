package retrieval

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"log_inspector/internal/llm"
)

const (
	DefaultTopK = 4

	// maxPromptChars - бюджет на найденные фрагменты в промпте
	maxPromptChars = 12_000
)

const askSystemPrompt = `You are a log analysis expert. Answer the question using only the log excerpts provided.
Cite excerpts by their number. If the excerpts do not contain the answer, say so.`

// Answer - ответ сервиса и фрагменты, на которых он основан
type Answer struct {
	Text    string
	Sources []Hit
}

// Assistant отвечает на вопросы по проиндексированному логу
type Assistant struct {
	index         *Index
	client        llm.Chatter
	topK          int
	minSimilarity float32
	logger        *zap.Logger
}

// AssistantOptions настраивают Assistant
type AssistantOptions struct {
	TopK          int     // DefaultTopK, если <= 0
	MinSimilarity float32 // фрагменты ниже порога не попадают в промпт
	Logger        *zap.Logger
}

func NewAssistant(index *Index, client llm.Chatter, opts AssistantOptions) *Assistant {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Assistant{
		index:         index,
		client:        client,
		topK:          opts.TopK,
		minSimilarity: opts.MinSimilarity,
		logger:        opts.Logger,
	}
}

// Ask находит релевантные фрагменты и задаёт по ним вопрос
func (a *Assistant) Ask(ctx context.Context, question string) (Answer, error) {
	hits, err := a.index.Search(ctx, question, a.topK, a.minSimilarity)
	if err != nil {
		return Answer{}, fmt.Errorf("search error: %w", err)
	}

	a.logger.Info("🔍 Found relevant excerpts", zap.Int("count", len(hits)))
	for i, h := range hits {
		a.logger.Debug("excerpt",
			zap.Int("rank", i+1),
			zap.Int("chunk", h.ChunkIndex+1),
			zap.Float32("similarity", h.Similarity))
	}

	text, err := a.client.Chat(ctx, askSystemPrompt, buildAskPrompt(question, hits, maxPromptChars))
	if err != nil {
		return Answer{}, fmt.Errorf("llm error: %w", err)
	}

	return Answer{Text: strings.TrimSpace(text), Sources: hits}, nil
}

// buildAskPrompt собирает промпт, обрезая фрагменты под бюджет
func buildAskPrompt(question string, hits []Hit, budget int) string {
	var buf strings.Builder

	buf.WriteString("Question:\n<<<\n")
	buf.WriteString(question)
	buf.WriteString("\n>>>\n\n")
	buf.WriteString("Log excerpts:\n")

	used := 0
	for i, h := range hits {
		content := h.Content
		if used+len(content) > budget {
			room := budget - used
			if room <= 0 {
				break
			}
			content = truncate(content, room) + "..."
		}
		used += len(content)

		fmt.Fprintf(&buf, "%d. [chunk %d, bytes %d-%d] (similarity: %.2f)\n", i+1, h.ChunkIndex+1, h.Start, h.End, h.Similarity)
		buf.WriteString("<<<\n")
		buf.WriteString(content)
		buf.WriteString("\n>>>\n\n")
	}

	return buf.String()
}

// truncate режет строку не длиннее n байт по границе символа
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
