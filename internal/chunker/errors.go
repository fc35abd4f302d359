package chunker

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig - политика разбиения нарушает инварианты
	ErrInvalidConfig = errors.New("invalid chunk config")

	// ErrNotText - содержимое файла не является UTF-8 текстом
	ErrNotText = errors.New("file is not valid UTF-8 text")

	// ErrChunkingInvariant - поиск границы не продвинулся на непустом входе.
	// Это баг, а не ошибка ввода: падаем сразу, а не зацикливаемся.
	ErrChunkingInvariant = errors.New("chunking invariant violated")
)

// FileError - файл не найден, не читается или не является текстом
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
