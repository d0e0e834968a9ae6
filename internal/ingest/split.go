package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target maximum characters per chunk.
	DefaultChunkSize = 1200
	// DefaultChunkOverlap is how many trailing characters of a chunk are repeated in the next one.
	DefaultChunkOverlap = 150
)

// SplitText cuts text into chunks of roughly maxLen characters on sentence boundaries.
// Each chunk after the first starts with the last overlap characters of the previous chunk.
// A single sentence longer than maxLen is kept whole.
func SplitText(text string, maxLen, overlap int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var buf []string
	size := 0

	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if size+n > maxLen && len(buf) > 0 {
			chunk := strings.Join(buf, " ")
			chunks = append(chunks, chunk)

			tail := lastRunes(chunk, overlap)
			buf = []string{tail, s}
			size = utf8.RuneCountInString(tail) + n
			continue
		}
		buf = append(buf, s)
		size += n
	}

	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, " "))
	}
	return chunks
}

// splitSentences breaks text after '.', '!' or '?' when whitespace follows.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentences = append(sentences, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
