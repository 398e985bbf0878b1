package summarizer

import (
	"context"
	"strings"
	"unicode"
)

// Extractive summarizes by keeping the leading sentences of the content.
type Extractive struct {
	MaxSentences int
}

// Summarize implements Function.
func (e Extractive) Summarize(_ context.Context, content string) (string, error) {
	n := e.MaxSentences
	if n <= 0 {
		n = 3
	}
	sentences := splitSentences(content)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.Join(sentences, " "), nil
}

// splitSentences breaks text on terminal punctuation followed by whitespace
// and on blank lines. Markdown heading markers and list bullets are stripped.
func splitSentences(text string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		s := strings.Join(strings.Fields(cur.String()), " ")
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#>-*+ ")
		if line == "" {
			flush()
			continue
		}
		runes := []rune(line)
		for i, r := range runes {
			cur.WriteRune(r)
			if r == '.' || r == '!' || r == '?' {
				if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
					flush()
				}
			}
		}
		cur.WriteByte(' ')
	}
	flush()
	return out
}
