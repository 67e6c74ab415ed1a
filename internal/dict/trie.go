package dict

import "unicode/utf8"

// trie is a rune trie over surface forms. Nodes live in a flat slice and
// refer to each other by index; the structure is frozen once the Store is
// built.
type trie struct {
	nodes     []trieNode
	terminals int
}

type trieNode struct {
	children map[rune]int32
	entries  []EntryID
}

func newTrie() *trie {
	return &trie{nodes: []trieNode{{}}}
}

func (t *trie) insert(surface string, id EntryID) {
	cur := int32(0)
	for _, r := range surface {
		next, ok := t.nodes[cur].children[r]
		if !ok {
			next = int32(len(t.nodes))
			t.nodes = append(t.nodes, trieNode{})
			if t.nodes[cur].children == nil {
				t.nodes[cur].children = make(map[rune]int32)
			}
			t.nodes[cur].children[r] = next
		}
		cur = next
	}
	if len(t.nodes[cur].entries) == 0 {
		t.terminals++
	}
	t.nodes[cur].entries = append(t.nodes[cur].entries, id)
}

// appendPrefixes walks s from its start and collects the entries of every
// node reached, so shorter surfaces come first. The walk stops at the first
// invalid byte, which never matches a surface, not even U+FFFD.
func (t *trie) appendPrefixes(dst []EntryID, s string) []EntryID {
	cur := int32(0)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		next, ok := t.nodes[cur].children[r]
		if !ok {
			break
		}
		cur = next
		dst = append(dst, t.nodes[cur].entries...)
		i += size
	}
	return dst
}
