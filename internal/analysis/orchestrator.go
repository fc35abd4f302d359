// Package analysis рассылает запросы с фиксированными промптами по каждому чанку
// во внешний сервис анализа и собирает ответы в порядке чанков.
package analysis

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"log_inspector/internal/chunker"
	"log_inspector/internal/llm"
)

// DefaultConcurrency - с запасом ниже типичных лимитов на ключ
const DefaultConcurrency = 4

// Result - сырые ответы сервиса по одному чанку
type Result struct {
	ChunkIndex     int
	Start          int
	End            int
	Classification string
	Summary        string
	ClassifyErr    error
	SummarizeErr   error
}

// Failed - упал ли хотя бы один запрошенный анализ чанка
func (r Result) Failed() bool {
	return r.ClassifyErr != nil || r.SummarizeErr != nil
}

// Err объединяет ошибки по видам анализа
func (r Result) Err() error {
	return errors.Join(r.ClassifyErr, r.SummarizeErr)
}

// Options - настройки Orchestrator
type Options struct {
	Concurrency int    // размер пула, DefaultConcurrency при <= 0
	Kinds       []Kind // какие анализы запускать, AllKinds если пусто
	Logger      *zap.Logger
}

// Orchestrator раздаёт чанки сервису анализа
type Orchestrator struct {
	client      llm.Chatter
	concurrency int
	kinds       []Kind
	logger      *zap.Logger
}

// New создаёт Orchestrator поверх потокобезопасного клиента
func New(client llm.Chatter, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if len(opts.Kinds) == 0 {
		opts.Kinds = AllKinds
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Orchestrator{
		client:      client,
		concurrency: opts.Concurrency,
		kinds:       opts.Kinds,
		logger:      opts.Logger,
	}
}

// Kinds - анализы, которые запускает оркестратор
func (o *Orchestrator) Kinds() []Kind {
	return o.kinds
}

// Classify запрашивает до трёх кодов ошибок по чанку. Ответ возвращается
// как есть, проверяет его taxonomy.ParseClassification.
func (o *Orchestrator) Classify(ctx context.Context, ch chunker.Chunk) (string, error) {
	return o.client.Chat(ctx, SystemPrompt(KindClassify), ch.Payload())
}

// Summarize запрашивает обзор и список метрик по чанку
func (o *Orchestrator) Summarize(ctx context.Context, ch chunker.Chunk) (string, error) {
	return o.client.Chat(ctx, SystemPrompt(KindSummarize), ch.Payload())
}

// Run прогоняет все чанки через ограниченный пул. Результаты идут в порядке
// чанков. Ошибка вызова записывается в свой чанк и не останавливает
// остальные. При отмене ещё не отправленные чанки помечаются
// ошибкой контекста, а Run возвращает частичные результаты
// вместе с ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, chunks []chunker.Chunk) ([]Result, error) {
	results := make([]Result, len(chunks))
	total := len(chunks)

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	var completed atomic.Int32
	for i, ch := range chunks {
		if err := ctx.Err(); err != nil {
			for j := i; j < total; j++ {
				results[j] = o.abandoned(chunks[j], err)
			}
			o.logger.Warn("⛔ Run canceled, remaining chunks skipped",
				zap.Int("dispatched", i),
				zap.Int("skipped", total-i),
				zap.Error(err))
			break
		}

		g.Go(func() error {
			results[i] = o.analyze(ctx, ch)
			n := completed.Add(1)

			if results[i].Failed() {
				o.logger.Warn("❌ Chunk analysis failed",
					zap.Int("chunk", i+1),
					zap.Int("total", total),
					zap.Error(results[i].Err()))
			} else {
				o.logger.Info("✅ Chunk analyzed",
					zap.Int("chunk", i+1),
					zap.Int("done", int(n)),
					zap.Int("total", total))
			}
			return nil
		})
	}

	// воркеры ошибок не возвращают, сбои лежат в слотах результатов
	_ = g.Wait()

	return results, ctx.Err()
}

func (o *Orchestrator) analyze(ctx context.Context, ch chunker.Chunk) Result {
	res := Result{ChunkIndex: ch.Index, Start: ch.Start, End: ch.End}

	for _, kind := range o.kinds {
		answer, err := o.dispatch(ctx, kind, ch)
		if err != nil {
			err = &ServiceCallError{ChunkIndex: ch.Index, Kind: kind, Err: err}
		}

		switch kind {
		case KindClassify:
			res.Classification, res.ClassifyErr = answer, err
		case KindSummarize:
			res.Summary, res.SummarizeErr = answer, err
		}
	}

	return res
}

func (o *Orchestrator) dispatch(ctx context.Context, kind Kind, ch chunker.Chunk) (string, error) {
	if kind == KindSummarize {
		return o.Summarize(ctx, ch)
	}
	return o.Classify(ctx, ch)
}

func (o *Orchestrator) abandoned(ch chunker.Chunk, cause error) Result {
	res := Result{ChunkIndex: ch.Index, Start: ch.Start, End: ch.End}
	for _, kind := range o.kinds {
		err := &ServiceCallError{ChunkIndex: ch.Index, Kind: kind, Err: cause}
		switch kind {
		case KindClassify:
			res.ClassifyErr = err
		case KindSummarize:
			res.SummarizeErr = err
		}
	}
	return res
}
