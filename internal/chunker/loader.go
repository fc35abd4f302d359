package chunker

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Loader читает лог в Document
type Loader interface {
	Load(path string) (Document, error)

	// Name возвращает название загрузчика для логирования
	Name() string
}

// LoaderFor выбирает загрузчик по расширению файла
func LoaderFor(path string) Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDFLoader{}
	case ".md", ".markdown":
		return MarkdownLoader{}
	default:
		return TextLoader{}
	}
}

// TextLoader читает файл как UTF-8 текст
type TextLoader struct{}

func (TextLoader) Name() string {
	return "text"
}

func (TextLoader) Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, &FileError{Op: "read", Path: path, Err: err}
	}
	return newDocument(path, data)
}

// PDFLoader достаёт текст из PDF (выгрузки логов из CI часто приходят в PDF)
type PDFLoader struct{}

func (PDFLoader) Name() string {
	return "pdf"
}

func (PDFLoader) Load(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, &FileError{Op: "open pdf", Path: path, Err: err}
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return Document{}, &FileError{Op: "extract pdf text", Path: path, Err: err}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return Document{}, &FileError{Op: "extract pdf text", Path: path, Err: err}
	}
	return newDocument(path, buf.Bytes())
}

func newDocument(path string, data []byte) (Document, error) {
	if !utf8.Valid(data) {
		return Document{}, &FileError{Op: "decode", Path: path, Err: ErrNotText}
	}
	return Document{
		Source:  path,
		Content: string(data),
		Size:    int64(len(data)),
	}, nil
}

// NewDocument оборачивает уже прочитанный текст (stdin, тесты)
func NewDocument(source, content string) (Document, error) {
	if !utf8.ValidString(content) {
		return Document{}, &FileError{Op: "decode", Path: source, Err: ErrNotText}
	}
	return Document{Source: source, Content: content, Size: int64(len(content))}, nil
}

func (d Document) String() string {
	return fmt.Sprintf("%s (%d bytes)", d.Source, d.Size)
}
