package chunker

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownLoader читает разборы инцидентов в markdown: разметка убирается,
// заголовки и абзацы остаются строками, блоки кода (обычно вставленный лог)
// переносятся как есть
type MarkdownLoader struct{}

func (MarkdownLoader) Name() string {
	return "markdown"
}

func (MarkdownLoader) Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, &FileError{Op: "read", Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return Document{}, &FileError{Op: "decode", Path: path, Err: ErrNotText}
	}
	return newDocument(path, []byte(flattenMarkdown(data)))
}

// flattenMarkdown превращает markdown в плоский текст построчно
func flattenMarkdown(source []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var buf strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				buf.WriteString(extractText(node, source))
				buf.WriteString("\n")
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					segment := lines.At(i)
					buf.Write(segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.TextBlock:
			if !entering {
				buf.WriteString("\n")
			}

		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteString("\n")
				}
			}

		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

// extractText извлекает текст заголовка, включая вложенные code span и ссылки
func extractText(node ast.Node, source []byte) string {
	var buf strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(source))
		case *ast.String:
			buf.Write(c.Value)
		default:
			buf.WriteString(extractText(child, source))
		}
	}
	return buf.String()
}
