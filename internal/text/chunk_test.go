package text

import (
	"strings"
	"testing"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single line", input: "もも", want: []string{"もも"}},
		{name: "trailing newline", input: "もも\n", want: []string{"もも"}},
		{name: "crlf", input: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "keeps interior blank lines", input: "a\n\nb", want: []string{"a", "", "b"}},
		{name: "lone newline", input: "\n", want: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.input)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("SplitLines(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "japanese full stops",
			input: "今日は晴れ。明日は雨。",
			want:  []string{"今日は晴れ。", "明日は雨。"},
		},
		{
			name:  "closing quote stays with sentence",
			input: "「行く！」と言った。",
			want:  []string{"「行く！」", "と言った。"},
		},
		{
			name:  "terminator runs",
			input: "本当？！はい",
			want:  []string{"本当？！", "はい"},
		},
		{
			name:  "latin terminators keep the space on the next sentence",
			input: "Hello. World!",
			want:  []string{"Hello.", " World!"},
		},
		{
			name:  "no terminator",
			input: "すもももももも",
			want:  []string{"すもももももも"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.input)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if strings.Join(got, "") != tt.input {
				t.Errorf("pieces do not reconstruct input: %q", got)
			}
		})
	}
}

func TestChunkBySentence(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxBytes int
		want     []string
	}{
		{
			name:     "within limit returns whole text",
			text:     "晴れ。雨。",
			maxBytes: 100,
			want:     []string{"晴れ。雨。"},
		},
		{
			name:     "zero limit disables chunking",
			text:     "晴れ。雨。",
			maxBytes: 0,
			want:     []string{"晴れ。雨。"},
		},
		{
			name:     "groups sentences up to the limit",
			text:     "あ。い。う。",
			maxBytes: len("あ。い。"),
			want:     []string{"あ。い。", "う。"},
		},
		{
			name:     "one sentence per chunk",
			text:     "あ。い。う。",
			maxBytes: len("あ。"),
			want:     []string{"あ。", "い。", "う。"},
		},
		{
			name:     "oversized sentence split on rune boundaries",
			text:     "あいうえお",
			maxBytes: 7,
			want:     []string{"あい", "うえ", "お"},
		},
		{
			name:     "limit below one rune still makes progress",
			text:     "あい",
			maxBytes: 1,
			want:     []string{"あ", "い"},
		},
		{
			name:     "empty text",
			text:     "",
			maxBytes: 4,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkBySentence(tt.text, tt.maxBytes)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("ChunkBySentence(%q, %d) = %q, want %q", tt.text, tt.maxBytes, got, tt.want)
			}
			if strings.Join(got, "") != tt.text {
				t.Errorf("chunks do not reconstruct input: %q", got)
			}
		})
	}
}
