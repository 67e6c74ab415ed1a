package text

import (
	"strings"
	"unicode/utf8"
)

// SplitLines splits text into lines without their terminators. A final line
// terminator does not produce an extra empty line; interior empty lines are
// kept so that output stays aligned with input.
func SplitLines(text string) []string {
	text = Normalize(text, ModeNone)
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// isTerminator reports whether r ends a sentence. Closing brackets and
// quotes right after a terminator stay with the sentence.
func isTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', '.', '．':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '」', '』', '）', ')', '"', '\'', '”', '’':
		return true
	}
	return false
}

// SplitSentences cuts text after each run of sentence terminators. The
// pieces concatenate back to text exactly; nothing is trimmed.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	inTerm := false

	for i, r := range text {
		switch {
		case isTerminator(r):
			inTerm = true
		case inTerm && isCloser(r):
		case inTerm:
			out = append(out, text[start:i])
			start = i
			inTerm = false
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}

	return out
}

// ChunkBySentence groups consecutive sentences into chunks of at most
// maxBytes. A sentence longer than maxBytes is split on rune boundaries.
// If maxBytes is 0 the text is returned whole. Chunks concatenate back to
// text.
func ChunkBySentence(text string, maxBytes int) []string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, s := range SplitSentences(text) {
		if current.Len()+len(s) > maxBytes {
			flush()
		}
		for len(s) > maxBytes {
			cut := runeCut(s, maxBytes)
			chunks = append(chunks, s[:cut])
			s = s[cut:]
		}
		current.WriteString(s)
	}
	flush()

	return chunks
}

// runeCut returns the largest rune boundary in s at or below limit, and at
// least the first rune.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, cut = utf8.DecodeRuneInString(s)
	}
	return cut
}
