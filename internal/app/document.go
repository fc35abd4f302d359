package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"log_inspector/internal/analysis"
	"log_inspector/internal/chunker"
	"log_inspector/internal/report"
)

// Inspect прогоняет файл через весь конвейер: чанки, анализ, отчёт.
// При частичном отказе отчёт возвращается вместе с ошибкой.
func (a *App) Inspect(ctx context.Context, path string) (report.Report, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := a.logger.With(zap.String("run", runID))

	reader, err := chunker.Open(path, a.strategy, logger)
	if err != nil {
		return report.Report{}, err
	}

	chunks, err := reader.ReadChunks()
	if err != nil {
		return report.Report{}, err
	}

	logger.Info("📄 File loaded",
		zap.String("path", path),
		zap.Int64("bytes", reader.Size()),
		zap.Int("chunks", len(chunks)))

	orch := analysis.New(a.client, analysis.Options{
		Concurrency: a.cfg.MaxConcurrency,
		Kinds:       a.kinds,
		Logger:      logger,
	})
	results, runErr := orch.Run(ctx, chunks)

	rep := report.Build(report.Header{
		RunID:   runID,
		Source:  path,
		Size:    reader.Size(),
		Elapsed: time.Since(started),
		Kinds:   orch.Kinds(),
	}, results)

	logger.Info("📊 Summary",
		zap.Int("total", rep.Total()),
		zap.Int("analyzed", rep.Succeeded),
		zap.Int("errors", rep.Failed),
		zap.Int("delivered", rep.Delivered()),
		zap.Duration("elapsed", rep.Header.Elapsed))
	a.logCacheStats(logger)

	if runErr != nil {
		return rep, fmt.Errorf("analysis interrupted: %w", runErr)
	}
	if rep.Total() > 0 && rep.Delivered() == 0 {
		return rep, ErrAllChunksFailed
	}
	return rep, nil
}

// WriteReport выводит отчёт в w или, если задан outputPath, сохраняет в файл
func (a *App) WriteReport(rep report.Report, format report.Format, outputPath string, w io.Writer) error {
	out, err := rep.Render(format)
	if err != nil {
		return err
	}

	if outputPath == "" {
		_, err := io.WriteString(w, out)
		return err
	}

	if err := os.WriteFile(outputPath, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	a.logger.Info("💾 Results saved", zap.String("path", outputPath), zap.String("format", string(format)))
	return nil
}
