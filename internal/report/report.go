// Package report собирает упорядоченные результаты по чанкам в итоговый
// отчёт для пользователя. Сборка и вывод без побочных эффектов.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"log_inspector/internal/analysis"
	"log_inspector/internal/taxonomy"
)

// Header - сведения о прогоне
type Header struct {
	RunID   string
	Source  string
	Size    int64
	Elapsed time.Duration
	Kinds   []analysis.Kind
}

// Failure - упавший анализ, показывается прямо в секции чанка
type Failure struct {
	Kind   analysis.Kind
	Reason string
}

// Section - часть отчёта по одному чанку
type Section struct {
	Number     int // с единицы
	Start, End int
	Codes      []taxonomy.ErrorClassification
	Summary    taxonomy.Summary
	Failures   []Failure
}

// Failed - упал ли хоть один анализ чанка
func (s Section) Failed() bool {
	return len(s.Failures) > 0
}

func (s Section) failure(kind analysis.Kind) (Failure, bool) {
	for _, f := range s.Failures {
		if f.Kind == kind {
			return f, true
		}
	}
	return Failure{}, false
}

// Report - неизменяемый итог одного прогона
type Report struct {
	Header    Header
	Sections  []Section
	Succeeded int
	Failed    int
}

// Total - число обработанных чанков
func (r Report) Total() int {
	return len(r.Sections)
}

// Delivered - число чанков, где хотя бы один анализ прошёл успешно
func (r Report) Delivered() int {
	n := 0
	for _, s := range r.Sections {
		if len(s.Failures) < len(r.Header.Kinds) {
			n++
		}
	}
	return n
}

// Build собирает отчёт, results уже должны идти в порядке чанков
func Build(h Header, results []analysis.Result) Report {
	if len(h.Kinds) == 0 {
		h.Kinds = analysis.AllKinds
	}

	r := Report{Header: h, Sections: make([]Section, 0, len(results))}
	for _, res := range results {
		s := Section{Number: res.ChunkIndex + 1, Start: res.Start, End: res.End}

		for _, kind := range h.Kinds {
			switch kind {
			case analysis.KindClassify:
				if res.ClassifyErr != nil {
					s.Failures = append(s.Failures, Failure{Kind: kind, Reason: reason(res.ClassifyErr)})
				} else {
					s.Codes = taxonomy.ParseClassification(res.Classification)
				}
			case analysis.KindSummarize:
				if res.SummarizeErr != nil {
					s.Failures = append(s.Failures, Failure{Kind: kind, Reason: reason(res.SummarizeErr)})
				} else {
					s.Summary = taxonomy.ParseSummary(res.Summary)
				}
			}
		}

		if s.Failed() {
			r.Failed++
		} else {
			r.Succeeded++
		}
		r.Sections = append(r.Sections, s)
	}

	return r
}

// reason отрезает префикс ServiceCallError, чанк и так назван в секции
func reason(err error) string {
	var callErr *analysis.ServiceCallError
	if errors.As(err, &callErr) && callErr.Err != nil {
		return callErr.Err.Error()
	}
	return err.Error()
}

func (r Report) wants(kind analysis.Kind) bool {
	for _, k := range r.Header.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// codesLine: "SPARK_ERROR, UNKNOWN_ERROR (FOO_BAR)"
func codesLine(codes []taxonomy.ErrorClassification) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = c.Type.String()
		if !c.Recognized() && len(c.Messages) > 0 && c.Messages[0] != "" {
			parts[i] += fmt.Sprintf(" (%s)", strings.Join(c.Messages, " "))
		}
	}
	return strings.Join(parts, ", ")
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d bytes", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%d bytes (%.1f %ciB)", n, float64(n)/float64(div), "KMGTPE"[exp])
}
