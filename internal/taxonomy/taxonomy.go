// Package taxonomy отображает свободный ответ сервиса на закрытый набор
// категорий исходов по логу.
package taxonomy

import (
	"strings"
)

// ErrorType - одна из категорий закрытого набора
type ErrorType string

const (
	Success         ErrorType = "SUCCESS"
	UserCodeError   ErrorType = "USER_CODE_ERROR"
	ScalingError    ErrorType = "SCALING_ERROR"
	SparkError      ErrorType = "SPARK_ERROR"
	SparkOOMError   ErrorType = "SPARK_OOM_ERROR"
	NetworkError    ErrorType = "NETWORK_ERROR"
	PermissionError ErrorType = "PERMISSION_ERROR"
	UnknownError    ErrorType = "UNKNOWN_ERROR"
)

// All - все категории в порядке промпта
var All = []ErrorType{
	Success,
	UserCodeError,
	ScalingError,
	SparkError,
	SparkOOMError,
	NetworkError,
	PermissionError,
	UnknownError,
}

var known = func() map[ErrorType]struct{} {
	m := make(map[ErrorType]struct{}, len(All))
	for _, t := range All {
		m[t] = struct{}{}
	}
	return m
}()

func (t ErrorType) String() string {
	return string(t)
}

// Valid - входит ли t в закрытый набор
func (t ErrorType) Valid() bool {
	_, ok := known[t]
	return ok
}

// ErrorClassification - разобранная категория и исходный токен
type ErrorClassification struct {
	Type     ErrorType
	Messages []string
}

// Recognized - получена ли категория из известного токена,
// а не через запасной UNKNOWN_ERROR.
func (c ErrorClassification) Recognized() bool {
	for _, m := range c.Messages {
		if ErrorType(normalize(m)) != c.Type {
			return false
		}
	}
	return true
}

// ParseClassification режет ответ classify по запятым и переводам строк
// и отображает каждый токен на закрытый набор. Неизвестный токен становится UNKNOWN_ERROR
// с исходным токеном в сообщении. Порядок сохраняется, отбрасываются
// только пустые токены. Пустой ответ - один UNKNOWN_ERROR.
func ParseClassification(raw string) []ErrorClassification {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	var out []ErrorClassification
	for _, field := range fields {
		token := strings.TrimSpace(field)
		code := normalize(token)
		if code == "" {
			continue
		}

		t := ErrorType(code)
		if !t.Valid() {
			t = UnknownError
		}
		out = append(out, ErrorClassification{Type: t, Messages: []string{token}})
	}

	if len(out) == 0 {
		return []ErrorClassification{{Type: UnknownError, Messages: []string{strings.TrimSpace(raw)}}}
	}
	return out
}

// Types - только категории из разобранной классификации
func Types(cs []ErrorClassification) []ErrorType {
	out := make([]ErrorType, len(cs))
	for i, c := range cs {
		out[i] = c.Type
	}
	return out
}

// normalize: "  spark-oom error." -> "SPARK_OOM_ERROR"
func normalize(token string) string {
	token = strings.TrimSpace(token)
	token = strings.TrimLeft(token, "-*•0123456789.) ")
	token = strings.Trim(token, "\"'`. ")
	token = strings.ToUpper(token)
	return strings.Join(strings.FieldsFunc(token, func(r rune) bool {
		return r == ' ' || r == '-' || r == '\t' || r == '_'
	}), "_")
}
