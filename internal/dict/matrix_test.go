package dict

import (
	"errors"
	"strings"
	"testing"
)

func TestParseMatrix(t *testing.T) {
	m, err := ParseMatrix(strings.NewReader("2 3\n\n0 0 -5\n1 2 700\n"))
	if err != nil {
		t.Fatalf("ParseMatrix: %v", err)
	}
	if m.RightSize() != 2 || m.LeftSize() != 3 {
		t.Fatalf("size = %dx%d; want 2x3", m.RightSize(), m.LeftSize())
	}

	tests := []struct {
		right, left int
		want        int64
	}{
		{0, 0, -5},
		{1, 2, 700},
		{1, 1, 0}, // unlisted pairs cost nothing
	}
	for _, tc := range tests {
		got, err := m.Cost(tc.right, tc.left)
		if err != nil || got != tc.want {
			t.Errorf("Cost(%d, %d) = (%d, %v); want %d", tc.right, tc.left, got, err, tc.want)
		}
	}
}

func TestParseMatrix_Errors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":          "",
		"header fields":  "3\n",
		"line fields":    "2 2\n0 0\n",
		"bad cost":       "2 2\n0 0 x\n",
		"cost too large": "2 2\n0 0 4294967296\n",
		"out of range":   "2 2\n2 0 1\n",
		"negative size":  "-1 2\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseMatrix(strings.NewReader(input)); !errors.Is(err, ErrDictionaryLoad) {
				t.Fatalf("err = %v; want ErrDictionaryLoad", err)
			}
		})
	}
}

func TestTrie_TerminalCount(t *testing.T) {
	tr := newTrie()
	tr.insert("ab", 0)
	tr.insert("a", 1)
	tr.insert("ab", 2)

	if tr.terminals != 2 {
		t.Errorf("terminals = %d; want 2", tr.terminals)
	}
	got := tr.appendPrefixes(nil, "abc")
	if len(got) != 3 || got[0] != 1 || got[1] != 0 || got[2] != 2 {
		t.Errorf("appendPrefixes = %v; want [1 0 2]", got)
	}
}
