package tokenizer

import "strings"

// EOSMarker terminates every sentence in MeCab-style output.
const EOSMarker = "EOS"

// Parse analyzes text and renders it in the MeCab text format: one
// "surface<TAB>feature" line per token followed by an EOS line.
func (t *Tokenizer) Parse(text string) (string, error) {
	tokens, err := t.Tokenize(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	WriteMeCab(&b, tokens)
	return b.String(), nil
}

// WriteMeCab appends the MeCab rendering of tokens to b.
func WriteMeCab(b *strings.Builder, tokens []Token) {
	for _, tok := range tokens {
		b.WriteString(tok.Surface)
		b.WriteByte('\t')
		b.WriteString(tok.Feature)
		b.WriteByte('\n')
	}
	b.WriteString(EOSMarker)
	b.WriteByte('\n')
}

// Surfaces returns the surface forms of tokens.
func Surfaces(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Surface
	}
	return out
}
