package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Точки естественного разрыва в порядке приоритета.
// Каждый шаблон начинается с перевода строки: режем только между записями.
var boundaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\n\d{4}-\d{2}-\d{2}`), // дата-время
	regexp.MustCompile(`\nERROR:`),
	regexp.MustCompile(`\nWARNING:`),
	regexp.MustCompile(`\n\d{10}`), // unix-время
}

// amortization - во сколько раз строк в чанке меньше, чем в файле
const amortization = 10

// Strategy - чистая политика размеров и поиска границ, без I/O
type Strategy struct {
	cfg Config
}

// NewStrategy создаёт стратегию, проверив политику
func NewStrategy(cfg Config) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Strategy{cfg: cfg}, nil
}

// Config возвращает политику стратегии
func (s *Strategy) Config() Config {
	return s.cfg
}

// CalculateOptimalChunkSize переводит размер файла в целевой размер чанка.
// Маленький файл целиком становится одним чанком. Для остальных
// размер растёт как 1/10 числа строк, но не выше MaxLinesPerChunk строк.
// Может вернуть 0 при экзотической политике - см. ChunkSize.
func (s *Strategy) CalculateOptimalChunkSize(fileSize int64) int64 {
	if fileSize < int64(s.cfg.MinChunkBytes) {
		return fileSize
	}

	lineBytes := int64(s.cfg.EstimatedLineBytes)
	totalLines := fileSize / lineBytes
	optimalLines := min(totalLines/amortization, int64(s.cfg.MaxLinesPerChunk))

	return optimalLines * lineBytes
}

// ChunkSize - размер, которым пользуется Reader. Если формула дала 0
// для файла не меньше MinChunkBytes, берём MinChunkBytes (но не выше потолка).
func (s *Strategy) ChunkSize(fileSize int64) int64 {
	size := s.CalculateOptimalChunkSize(fileSize)
	if size > 0 || fileSize < int64(s.cfg.MinChunkBytes) {
		return size
	}
	return min(int64(s.cfg.MinChunkBytes), s.cfg.MaxChunkBytes())
}

// FindChunkBoundary возвращает смещение конца чанка внутри content.
// Смотрим только на первые SearchWindow() байт. Побеждает первый шаблон,
// у которого есть совпадение; берём самое правое и режем сразу после
// перевода строки, чтобы следующий чанк начинался с записи.
// Без совпадений - жёсткий разрез по краю окна.
// Для непустого входа результат всегда в (0, min(len, SearchWindow())],
// с поправкой на окно короче одного UTF-8 символа.
func (s *Strategy) FindChunkBoundary(content string) int {
	window := s.window(content)
	if window == "" {
		return 0
	}

	for _, pattern := range boundaryPatterns {
		if cut := lastCut(pattern, window); cut > 0 {
			return cut
		}
	}

	return len(window)
}

// window обрезает content до окна поиска, не разрывая UTF-8 символ
func (s *Strategy) window(content string) string {
	end := min(len(content), s.cfg.SearchWindow())
	if end == len(content) {
		return content
	}
	for end > 0 && !utf8.RuneStart(content[end]) {
		end--
	}
	if end == 0 {
		// окно короче одного символа: берём символ целиком
		_, size := utf8.DecodeRuneInString(content)
		end = size
	}
	return content[:end]
}

// lastCut ищет самое правое совпадение, после которого остаётся
// непустой чанк. Совпадение в позиции 0 не продвигает разбиение.
func lastCut(pattern *regexp.Regexp, window string) int {
	matches := pattern.FindAllStringIndex(window, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if pos := matches[i][0]; pos > 0 {
			return pos + 1
		}
	}
	return 0
}

// EstimateTokens - грубая оценка числа токенов: max(chars/4, words/0.75)
func EstimateTokens(content string) int {
	chars := len(content)
	words := len(strings.Fields(content))

	charsEstimate := chars / 4
	wordsEstimate := int(float64(words) / 0.75)

	return max(charsEstimate, wordsEstimate)
}
