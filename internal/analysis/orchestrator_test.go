package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"log_inspector/internal/chunker"
	"log_inspector/internal/llm"
	"log_inspector/internal/taxonomy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func makeChunks(n int) []chunker.Chunk {
	chunks := make([]chunker.Chunk, n)
	offset := 0
	for i := range chunks {
		text := fmt.Sprintf("2024-01-10 10:00:%02d ERROR: chunk-%d failed\n", i%60, i)
		chunks[i] = chunker.Chunk{Index: i, Start: offset, End: offset + len(text), Text: text}
		offset += len(text)
	}
	return chunks
}

func chunkNumber(user string) int {
	var n int
	idx := strings.Index(user, "chunk-")
	fmt.Sscanf(user[idx:], "chunk-%d", &n)
	return n
}

func TestRun_PreservesChunkOrder(t *testing.T) {
	chunks := makeChunks(24)
	client := llm.ChatFunc(func(ctx context.Context, system, user string) (string, error) {
		n := chunkNumber(user)
		// поздние чанки отвечают раньше
		time.Sleep(time.Duration(len(chunks)-n) * time.Millisecond)
		if system == SystemPrompt(KindClassify) {
			return fmt.Sprintf("SPARK_ERROR, UNKNOWN_ERROR #%d", n), nil
		}
		return fmt.Sprintf("Summary of chunk %d\n- retried 3 times", n), nil
	})

	o := New(client, Options{Concurrency: 6, Logger: zaptest.NewLogger(t)})
	results, err := o.Run(context.Background(), chunks)

	require.NoError(t, err)
	require.Len(t, results, len(chunks))
	for i, r := range results {
		assert.Equal(t, i, r.ChunkIndex)
		assert.Equal(t, chunks[i].Start, r.Start)
		assert.Equal(t, chunks[i].End, r.End)
		assert.Equal(t, fmt.Sprintf("SPARK_ERROR, UNKNOWN_ERROR #%d", i), r.Classification)
		assert.Equal(t, fmt.Sprintf("Summary of chunk %d\n- retried 3 times", i), r.Summary)
		assert.False(t, r.Failed())
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	client := llm.ChatFunc(func(ctx context.Context, system, user string) (string, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return "SUCCESS", nil
	})

	o := New(client, Options{Concurrency: 3})
	_, err := o.Run(context.Background(), makeChunks(30))

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestRun_FailedChunkDoesNotAbortSiblings(t *testing.T) {
	chunks := makeChunks(5)
	client := llm.ChatFunc(func(ctx context.Context, system, user string) (string, error) {
		if chunkNumber(user) == 2 && system == SystemPrompt(KindClassify) {
			return "", fmt.Errorf("request failed: %w", context.DeadlineExceeded)
		}
		if system == SystemPrompt(KindClassify) {
			return "NETWORK_ERROR", nil
		}
		return "Connection reset\n- 3 retries over 45s", nil
	})

	o := New(client, Options{Concurrency: 2})
	results, err := o.Run(context.Background(), chunks)

	require.NoError(t, err)
	for i, r := range results {
		if i == 2 {
			var callErr *ServiceCallError
			require.ErrorAs(t, r.ClassifyErr, &callErr)
			assert.Equal(t, 2, callErr.ChunkIndex)
			assert.Equal(t, KindClassify, callErr.Kind)
			assert.ErrorIs(t, r.ClassifyErr, context.DeadlineExceeded)
			// summarize для того же чанка всё равно выполнен
			assert.NoError(t, r.SummarizeErr)
			assert.True(t, r.Failed())
			continue
		}
		assert.False(t, r.Failed(), "chunk %d", i)
		assert.Equal(t, []taxonomy.ErrorType{taxonomy.NetworkError}, taxonomy.Types(taxonomy.ParseClassification(r.Classification)))
	}
}

func TestRun_CancellationStopsDispatch(t *testing.T) {
	chunks := makeChunks(40)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	var once sync.Once
	client := llm.ChatFunc(func(ctx context.Context, system, user string) (string, error) {
		if calls.Add(1) >= 4 {
			once.Do(cancel)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Millisecond):
			return "SUCCESS", nil
		}
	})

	o := New(client, Options{Concurrency: 2, Kinds: []Kind{KindClassify}})
	results, err := o.Run(ctx, chunks)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, len(chunks))
	assert.Less(t, int(calls.Load()), len(chunks))

	last := results[len(results)-1]
	assert.Equal(t, len(chunks)-1, last.ChunkIndex)
	assert.ErrorIs(t, last.ClassifyErr, context.Canceled)
	for i, r := range results {
		assert.Equal(t, i, r.ChunkIndex)
		if r.Failed() {
			assert.ErrorIs(t, r.Err(), context.Canceled)
		}
	}
}

func TestRun_OnlyRequestedKinds(t *testing.T) {
	var summarizeCalls atomic.Int32
	client := llm.ChatFunc(func(ctx context.Context, system, user string) (string, error) {
		if system == SystemPrompt(KindSummarize) {
			summarizeCalls.Add(1)
		}
		return "SUCCESS", nil
	})

	o := New(client, Options{Kinds: []Kind{KindClassify}})
	results, err := o.Run(context.Background(), makeChunks(3))

	require.NoError(t, err)
	assert.Equal(t, int32(0), summarizeCalls.Load())
	for _, r := range results {
		assert.Equal(t, "SUCCESS", r.Classification)
		assert.Empty(t, r.Summary)
	}
}

func TestRun_Empty(t *testing.T) {
	o := New(llm.ChatFunc(func(ctx context.Context, system, user string) (string, error) {
		t.Fatal("no calls expected")
		return "", nil
	}), Options{})

	results, err := o.Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClassify_SendsPayloadWithContext(t *testing.T) {
	var gotSystem, gotUser string
	client := llm.ChatFunc(func(ctx context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "SUCCESS", nil
	})

	ch := chunker.Chunk{Text: "2024-01-10 INFO done\n", Context: "2024-01-10 INFO start\n"}
	answer, err := New(client, Options{}).Classify(context.Background(), ch)

	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", answer)
	assert.Equal(t, SystemPrompt(KindClassify), gotSystem)
	assert.Equal(t, "2024-01-10 INFO start\n2024-01-10 INFO done\n", gotUser)
}

func TestSystemPrompts(t *testing.T) {
	classify := SystemPrompt(KindClassify)
	for _, et := range taxonomy.All {
		assert.Contains(t, classify, et.String())
	}
	assert.Contains(t, classify, `return only "SUCCESS"`)
	assert.Contains(t, classify, "up to 3 error codes")
	assert.Contains(t, classify, "comma-separated")

	summarize := SystemPrompt(KindSummarize)
	assert.Contains(t, summarize, "one or two sentences")
	assert.Contains(t, summarize, `"-" (hyphen)`)
	assert.NotEqual(t, classify, summarize)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Summarize ")
	require.NoError(t, err)
	assert.Equal(t, KindSummarize, k)

	_, err = ParseKind("translate")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
