package taxonomy

import "strings"

// MaxPoints - сколько пунктов метрик просит инструкция summarize
const MaxPoints = 3

// Summary - ответ summarize, разделённый на обзор и пункты метрик
type Summary struct {
	Overview string
	Points   []string
}

// ParseSummary считает строки с префиксом "-", "*" или "•" пунктами метрик,
// остальные непустые строки - обзором. Пункты сверх MaxPoints сохраняются,
// инструкция лишь рекомендует их число.
func ParseSummary(raw string) Summary {
	var overview []string
	var s Summary

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if point, ok := bullet(line); ok {
			if point != "" {
				s.Points = append(s.Points, point)
			}
			continue
		}
		overview = append(overview, line)
	}

	s.Overview = strings.Join(overview, " ")
	return s
}

func bullet(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "• ", "-", "•"} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}
