package chunker

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Reader владеет доступом к файлу и прогоняет Strategy по всему документу
type Reader struct {
	path      string
	size      int64
	chunkSize int64
	strategy  *Strategy
	loader    Loader
	logger    *zap.Logger
}

// Open читает метаданные файла и один раз вычисляет размер чанка
func Open(path string, strategy *Strategy, logger *zap.Logger) (*Reader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &FileError{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &FileError{Op: "open", Path: path, Err: fmt.Errorf("is a directory")}
	}

	// Проверяем, что файл действительно открывается на чтение
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Op: "open", Path: path, Err: err}
	}
	f.Close()

	r := &Reader{
		path:      path,
		size:      info.Size(),
		chunkSize: strategy.ChunkSize(info.Size()),
		strategy:  strategy,
		loader:    LoaderFor(path),
		logger:    logger,
	}

	logger.Debug("📐 Chunk size computed",
		zap.String("path", path),
		zap.Int64("file_bytes", r.size),
		zap.Int64("chunk_bytes", r.chunkSize),
		zap.String("loader", r.loader.Name()))

	return r, nil
}

// Size возвращает размер файла по метаданным
func (r *Reader) Size() int64 {
	return r.size
}

// ChunkSize возвращает вычисленный размер чанка
func (r *Reader) ChunkSize() int64 {
	return r.chunkSize
}

// ReadChunks загружает документ целиком и разбивает его на чанки
func (r *Reader) ReadChunks() ([]Chunk, error) {
	doc, err := r.loader.Load(r.path)
	if err != nil {
		return nil, err
	}

	// Текст из PDF или переписанный файл: пересчитываем по фактическому размеру
	if doc.Size != r.size {
		r.logger.Debug("📏 Document size differs from file size, recomputing chunk size",
			zap.Int64("file_bytes", r.size),
			zap.Int64("document_bytes", doc.Size))
		r.chunkSize = r.strategy.ChunkSize(doc.Size)
	}

	chunks, err := Split(doc, r.strategy, r.chunkSize)
	if err != nil {
		return nil, err
	}

	r.logger.Info("📦 Split into chunks",
		zap.String("path", r.path),
		zap.Int("chunks", len(chunks)),
		zap.Int64("document_bytes", doc.Size))

	maxTokens := r.strategy.Config().MaxTokensPerChunk
	for _, ch := range chunks {
		if tokens := EstimateTokens(ch.Payload()); tokens > maxTokens {
			r.logger.Warn("⚠️  Chunk exceeds token budget",
				zap.Int("chunk", ch.Index),
				zap.Int("estimated_tokens", tokens),
				zap.Int("max_tokens", maxTokens))
		}
	}

	return chunks, nil
}

// Split разбивает документ на последовательность непрерывных чанков.
// Остаток не больше chunkSize уходит последним чанком целиком,
// иначе граница ищется через Strategy.FindChunkBoundary.
func Split(doc Document, strategy *Strategy, chunkSize int64) ([]Chunk, error) {
	content := doc.Content
	overlap := strategy.Config().OverlapLines

	var chunks []Chunk
	start := 0

	for start < len(content) {
		end := len(content)
		if remaining := int64(len(content) - start); remaining > chunkSize {
			boundary := strategy.FindChunkBoundary(content[start:])
			if boundary <= 0 || boundary > len(content)-start {
				return nil, fmt.Errorf("%w: boundary %d at offset %d of %s",
					ErrChunkingInvariant, boundary, start, doc.Source)
			}
			end = start + boundary
		}

		var lead string
		if n := len(chunks); n > 0 {
			lead = TailLines(chunks[n-1].Text, overlap)
		}

		text := content[start:end]
		chunks = append(chunks, Chunk{
			ID:      chunkID(text, doc.Source, start),
			Index:   len(chunks),
			Start:   start,
			End:     end,
			Text:    text,
			Context: lead,
			Source:  doc.Source,
		})

		start = end
	}

	return chunks, nil
}
