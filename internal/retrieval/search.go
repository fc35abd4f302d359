package retrieval

import (
	"context"
	"fmt"
	"strconv"
)

// Hit - результат векторного поиска
type Hit struct {
	ChunkIndex int
	Start      int
	End        int
	Source     string
	Content    string
	Similarity float32
}

// Search ищет topK ближайших чанков. Результаты ниже minSimilarity отбрасываются.
func (ix *Index) Search(ctx context.Context, query string, topK int, minSimilarity float32) ([]Hit, error) {
	count := ix.coll.Count()
	if count == 0 {
		return nil, ErrEmptyIndex
	}
	// chromem не отдаёт больше, чем есть в коллекции
	topK = min(max(topK, 1), count)

	results, err := ix.coll.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		if r.Similarity < minSimilarity {
			continue
		}
		hits = append(hits, Hit{
			ChunkIndex: atoi(r.Metadata["index"]),
			Start:      atoi(r.Metadata["start"]),
			End:        atoi(r.Metadata["end"]),
			Source:     r.Metadata["source"],
			Content:    r.Content,
			Similarity: r.Similarity,
		})
	}

	return hits, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
