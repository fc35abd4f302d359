package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"log_inspector/internal/report"
)

// ReportFunc получает результат каждого прогона в watch
type ReportFunc func(rep report.Report, err error)

// Watch анализирует файл сразу и затем после каждого изменения.
// Следим за каталогом, а не файлом: ротация логов пересоздаёт файл.
// Пачка событий схлопывается в один прогон через debounce.
// Возвращается по отмене ctx.
func (a *App) Watch(ctx context.Context, path string, onReport ReportFunc) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	a.logger.Info("👀 Watching", zap.String("path", target), zap.Duration("debounce", a.debounce))

	onReport(a.Inspect(ctx, path))

	timer := time.NewTimer(a.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Shutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			a.logger.Debug("📝 File changed", zap.String("op", event.Op.String()))
			timer.Reset(a.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("⚠️ Watcher error", zap.Error(err))

		case <-timer.C:
			if ctx.Err() != nil {
				return nil
			}
			onReport(a.Inspect(ctx, path))
		}
	}
}
