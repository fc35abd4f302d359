package analysis

import (
	"fmt"
	"strings"

	"log_inspector/internal/taxonomy"
)

// Kind - один фиксированный анализ, применяемый к каждому чанку
type Kind string

const (
	KindClassify  Kind = "classify"
	KindSummarize Kind = "summarize"
)

// AllKinds - набор анализов по умолчанию, в порядке отправки
var AllKinds = []Kind{KindClassify, KindSummarize}

// ParseKind принимает "classify" или "summarize"
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindClassify:
		return KindClassify, nil
	case KindSummarize:
		return KindSummarize, nil
	default:
		return "", fmt.Errorf("unknown analysis kind: %q", s)
	}
}

var classifyPrompt = buildClassifyPrompt()

func buildClassifyPrompt() string {
	var buf strings.Builder

	buf.WriteString("Analyze the logs and return codes from these categories:\n")
	for _, t := range taxonomy.All {
		buf.WriteString("- ")
		buf.WriteString(t.String())
		if t == taxonomy.Success {
			buf.WriteString(": Successful execution without errors")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("\nRules:\n")
	buf.WriteString("1. If execution was successful, return only \"SUCCESS\"\n")
	buf.WriteString("2. Otherwise, return up to 3 error codes from highest to lowest probability (left to right)\n\n")
	buf.WriteString("Return only the comma-separated list, no other text.\n")

	return buf.String()
}

const summarizePrompt = `Provide a summary in this exact format:
First line: Brief overview of the log situation in one or two sentences.
Then list up to 3 key points with specific metrics where available:
- For timeouts: include duration (ms/s)
- For memory issues: include usage values (MB/GB)
- For connection errors: include retry counts or failure duration
- For performance issues: include specific thresholds or values

Use "-" (hyphen) for each point. Include only metrics that appear in the logs.
`

// SystemPrompt возвращает фиксированную инструкцию для вида анализа
func SystemPrompt(kind Kind) string {
	if kind == KindSummarize {
		return summarizePrompt
	}
	return classifyPrompt
}
