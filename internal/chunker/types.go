package chunker

import (
	"fmt"
	"unicode/utf8"
)

// Chunk - непрерывный диапазон [Start, End) исходного лога
type Chunk struct {
	ID      string // Стабильный хэш содержимого
	Index   int    // Порядковый номер, с нуля
	Start   int    // Смещение начала в байтах
	End     int    // Смещение конца (не включительно)
	Text    string // Content[Start:End]
	Context string // Хвост предыдущего чанка (OverlapLines строк)
	Source  string // Имя исходного файла
}

// Len возвращает размер чанка в байтах
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Payload - то, что уходит во внешний сервис: контекст + текст чанка
func (c Chunk) Payload() string {
	if c.Context == "" {
		return c.Text
	}
	return c.Context + c.Text
}

// Document - содержимое лога целиком. Не изменяется после загрузки.
type Document struct {
	Source  string
	Content string
	Size    int64
}

// Config содержит политику разбиения. Неизменяем после создания.
type Config struct {
	MaxTokensPerChunk  int `yaml:"max_tokens_per_chunk" env:"MAX_TOKENS" envDefault:"2500"`
	OverlapLines       int `yaml:"overlap_lines" env:"OVERLAP_LINES" envDefault:"5"`
	ContextWindowBytes int `yaml:"context_window_bytes" env:"CONTEXT_WINDOW" envDefault:"1000"`
	EstimatedLineBytes int `yaml:"estimated_line_bytes" env:"LINE_BYTES" envDefault:"100"`
	MaxLinesPerChunk   int `yaml:"max_lines_per_chunk" env:"MAX_LINES" envDefault:"200"`
	MinChunkBytes      int `yaml:"min_chunk_bytes" env:"MIN_BYTES" envDefault:"10000"`
}

// DefaultConfig возвращает политику по умолчанию (запас под 4k-контекст модели)
func DefaultConfig() Config {
	return Config{
		MaxTokensPerChunk:  2500,
		OverlapLines:       5,
		ContextWindowBytes: 1000,
		EstimatedLineBytes: 100,
		MaxLinesPerChunk:   200,
		MinChunkBytes:      10_000,
	}
}

// Validate проверяет инварианты политики
func (c Config) Validate() error {
	switch {
	case c.MinChunkBytes <= 0:
		return fmt.Errorf("%w: min_chunk_bytes must be positive, got %d", ErrInvalidConfig, c.MinChunkBytes)
	case c.MaxLinesPerChunk <= 0:
		return fmt.Errorf("%w: max_lines_per_chunk must be positive, got %d", ErrInvalidConfig, c.MaxLinesPerChunk)
	case c.EstimatedLineBytes <= 0:
		return fmt.Errorf("%w: estimated_line_bytes must be positive, got %d", ErrInvalidConfig, c.EstimatedLineBytes)
	case c.ContextWindowBytes < utf8.UTFMax:
		return fmt.Errorf("%w: context_window_bytes must be at least %d, got %d", ErrInvalidConfig, utf8.UTFMax, c.ContextWindowBytes)
	case c.OverlapLines < 0:
		return fmt.Errorf("%w: overlap_lines must not be negative, got %d", ErrInvalidConfig, c.OverlapLines)
	case c.MaxTokensPerChunk <= 0:
		return fmt.Errorf("%w: max_tokens_per_chunk must be positive, got %d", ErrInvalidConfig, c.MaxTokensPerChunk)
	}
	return nil
}

// MaxChunkBytes - верхняя граница размера чанка по политике
func (c Config) MaxChunkBytes() int64 {
	return int64(c.MaxLinesPerChunk) * int64(c.EstimatedLineBytes)
}

// SearchWindow - сколько байт просматривает поиск границы.
// Окно не шире потолка чанка, иначе жёсткий разрез даст чанк больше MaxChunkBytes.
func (c Config) SearchWindow() int {
	return int(min(int64(c.ContextWindowBytes), c.MaxChunkBytes()))
}
