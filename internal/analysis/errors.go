package analysis

import "fmt"

// ServiceCallError - неудачный вызов внешнего сервиса, привязанный к чанку.
// Прогон не прерывает, отчёт показывает ошибку прямо в секции чанка.
type ServiceCallError struct {
	ChunkIndex int
	Kind       Kind
	Err        error
}

func (e *ServiceCallError) Error() string {
	return fmt.Sprintf("chunk %d %s: %v", e.ChunkIndex, e.Kind, e.Err)
}

func (e *ServiceCallError) Unwrap() error {
	return e.Err
}
