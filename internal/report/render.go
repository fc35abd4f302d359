package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"log_inspector/internal/analysis"
)

// Format - формат вывода отчёта
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat принимает text, markdown/md или html
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown report format: %s", s)
	}
}

// Render выводит отчёт в запрошенном формате
func (r Report) Render(format Format) (string, error) {
	switch format {
	case FormatText, "":
		return r.Text(), nil
	case FormatMarkdown:
		return r.Markdown(), nil
	case FormatHTML:
		return r.HTML()
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}
}

// Text выводит текстовый отчёт. Строки с метками (ERROR_CODES:, SUMMARY:,
// METRICS:) стабильны, их можно разбирать программно.
func (r Report) Text() string {
	var buf strings.Builder

	buf.WriteString("LOG INSPECTION REPORT\n")
	if r.Header.RunID != "" {
		fmt.Fprintf(&buf, "Run:      %s\n", r.Header.RunID)
	}
	fmt.Fprintf(&buf, "Source:   %s\n", r.Header.Source)
	fmt.Fprintf(&buf, "Size:     %s\n", humanBytes(r.Header.Size))
	fmt.Fprintf(&buf, "Elapsed:  %s\n", r.Header.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&buf, "Chunks:   %d processed, %d succeeded, %d failed\n", r.Total(), r.Succeeded, r.Failed)

	if r.Total() == 0 {
		buf.WriteString("\nNo chunks to analyze: the file is empty.\n")
		return buf.String()
	}

	for _, s := range r.Sections {
		fmt.Fprintf(&buf, "\n=== Chunk %d/%d [bytes %d-%d) ===\n", s.Number, r.Total(), s.Start, s.End)

		if r.wants(analysis.KindClassify) {
			if f, failed := s.failure(analysis.KindClassify); failed {
				fmt.Fprintf(&buf, "ERROR_CODES: FAILED (ServiceCallError): %s\n", f.Reason)
			} else {
				fmt.Fprintf(&buf, "ERROR_CODES: %s\n", codesLine(s.Codes))
			}
		}

		if r.wants(analysis.KindSummarize) {
			if f, failed := s.failure(analysis.KindSummarize); failed {
				fmt.Fprintf(&buf, "SUMMARY: FAILED (ServiceCallError): %s\n", f.Reason)
				continue
			}
			fmt.Fprintf(&buf, "SUMMARY: %s\n", s.Summary.Overview)
			if len(s.Summary.Points) == 0 {
				buf.WriteString("METRICS: none reported\n")
				continue
			}
			buf.WriteString("METRICS:\n")
			for _, p := range s.Summary.Points {
				fmt.Fprintf(&buf, "- %s\n", p)
			}
		}
	}

	return buf.String()
}

// Markdown выводит отчёт markdown-документом
func (r Report) Markdown() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "# Log analysis: %s\n\n", r.Header.Source)
	if r.Header.RunID != "" {
		fmt.Fprintf(&buf, "**Run:** %s\n\n", r.Header.RunID)
	}
	fmt.Fprintf(&buf, "**Size:** %s\n\n", humanBytes(r.Header.Size))
	fmt.Fprintf(&buf, "**Elapsed:** %s\n\n", r.Header.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&buf, "**Total chunks:** %d\n\n", r.Total())

	buf.WriteString("## Totals\n\n")
	fmt.Fprintf(&buf, "- ✅ Analyzed: %d\n", r.Succeeded)
	fmt.Fprintf(&buf, "- ❌ Failed: %d\n\n", r.Failed)

	if r.Total() == 0 {
		buf.WriteString("No chunks to analyze: the file is empty.\n")
		return buf.String()
	}

	buf.WriteString("## Chunks\n\n")
	for _, s := range r.Sections {
		fmt.Fprintf(&buf, "### Chunk %d: bytes %d-%d\n\n", s.Number, s.Start, s.End)

		if r.wants(analysis.KindClassify) {
			if f, failed := s.failure(analysis.KindClassify); failed {
				fmt.Fprintf(&buf, "**ERROR_CODES:** ❌ FAILED (ServiceCallError): %s\n\n", f.Reason)
			} else {
				fmt.Fprintf(&buf, "**ERROR_CODES:** `%s`\n\n", codesLine(s.Codes))
			}
		}

		if r.wants(analysis.KindSummarize) {
			if f, failed := s.failure(analysis.KindSummarize); failed {
				fmt.Fprintf(&buf, "**SUMMARY:** ❌ FAILED (ServiceCallError): %s\n\n", f.Reason)
			} else {
				fmt.Fprintf(&buf, "**SUMMARY:** %s\n\n", s.Summary.Overview)
				if len(s.Summary.Points) > 0 {
					buf.WriteString("**METRICS:**\n\n")
					for _, p := range s.Summary.Points {
						fmt.Fprintf(&buf, "- %s\n", p)
					}
					buf.WriteString("\n")
				}
			}
		}

		buf.WriteString("---\n\n")
	}

	return buf.String()
}

// HTML прогоняет markdown-отчёт через goldmark
func (r Report) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Log analysis</title></head><body>\n")
	if err := md.Convert([]byte(r.Markdown()), &out); err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}
	out.WriteString("</body></html>\n")

	return out.String(), nil
}
