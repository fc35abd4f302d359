package chunker

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// chunkID - детерминированный идентификатор чанка по содержимому и источнику
func chunkID(text, source string, start int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%s", source, start, text)))
	return fmt.Sprintf("%x", hash[:8])
}

// TailLines возвращает последние n строк текста для overlap.
// Завершающий перевод строки не считается отдельной строкой.
func TailLines(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}

	body := strings.TrimSuffix(text, "\n")
	idx := len(body)
	for i := 0; i < n; i++ {
		prev := strings.LastIndexByte(body[:idx], '\n')
		if prev < 0 {
			return text
		}
		idx = prev
	}
	return text[idx+1:]
}
