package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"

	"log_inspector/internal/chunker"
)

// ChunkPlan - результат разбиения без обращения к сервису
type ChunkPlan struct {
	Source    string
	FileSize  int64
	ChunkSize int64
	MaxTokens int
	Chunks    []chunker.Chunk
}

// Plan разбивает файл по политике и ничего не отправляет наружу
func Plan(path string, policy chunker.Config, logger *zap.Logger) (ChunkPlan, error) {
	strategy, err := chunker.NewStrategy(policy)
	if err != nil {
		return ChunkPlan{}, err
	}

	reader, err := chunker.Open(path, strategy, logger)
	if err != nil {
		return ChunkPlan{}, err
	}

	chunks, err := reader.ReadChunks()
	if err != nil {
		return ChunkPlan{}, err
	}

	return ChunkPlan{
		Source:    path,
		FileSize:  reader.Size(),
		ChunkSize: reader.ChunkSize(),
		MaxTokens: policy.MaxTokensPerChunk,
		Chunks:    chunks,
	}, nil
}

var (
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	overBudgetStyle = cellStyle.Bold(true)
)

// Render печатает план таблицей: номер, диапазон, байты, строки контекста, токены
func (p ChunkPlan) Render(w io.Writer) error {
	rows := make([][]string, 0, len(p.Chunks))
	over := make([]bool, len(p.Chunks))
	for i, ch := range p.Chunks {
		tokens := chunker.EstimateTokens(ch.Payload())
		mark := strconv.Itoa(tokens)
		if tokens > p.MaxTokens {
			over[i] = true
			mark += " !"
		}
		rows = append(rows, []string{
			strconv.Itoa(ch.Index + 1),
			fmt.Sprintf("%d-%d", ch.Start, ch.End),
			strconv.Itoa(ch.Len()),
			strconv.Itoa(countLines(ch.Context)),
			mark,
			ch.ID,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "BYTES", "SIZE", "CONTEXT", "TOKENS", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row >= 0 && row < len(over) && over[row] && col == 4 {
				return overBudgetStyle
			}
			return cellStyle
		})

	if _, err := fmt.Fprintf(w, "%s: %d bytes, target chunk %d bytes, %d chunks\n",
		p.Source, p.FileSize, p.ChunkSize, len(p.Chunks)); err != nil {
		return err
	}
	if len(p.Chunks) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
