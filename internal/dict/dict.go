// Package dict implements the immutable dictionary store consumed by the
// lattice builder: a lexicon of surface forms with context IDs, emission
// costs and opaque feature strings, a connection-cost matrix, and a
// common-prefix index over the lexicon.
//
// A Store never changes after construction and is safe for concurrent use by
// any number of readers.
package dict

import (
	"errors"
	"fmt"
	"sort"

	"github.com/example/go-morpho/internal/charcat"
)

var (
	// ErrDictionaryLoad wraps every failure to construct a Store.
	ErrDictionaryLoad = errors.New("dictionary load error")
	// ErrUnknownContextID is returned when a context ID falls outside the
	// connection matrix. With a validated dictionary this indicates corruption.
	ErrUnknownContextID = errors.New("unknown context id")
)

// EntryID indexes an Entry inside its Store.
type EntryID int32

// Entry is one lexicon record.
type Entry struct {
	Surface string
	LeftID  int
	RightID int
	Cost    int64
	Feature string
}

// Store holds a loaded dictionary.
type Store struct {
	entries []Entry
	matrix  *Matrix
	unknown map[charcat.Category]Entry
	index   *trie
	source  string
	charset string
}

// New builds a Store from in-memory data. Entry order is preserved and
// determines the order of homographs returned by LookupPrefixes. Unknown-word
// definitions are optional; their Surface is ignored.
func New(entries []Entry, m *Matrix, unknown map[charcat.Category]Entry) (*Store, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: connection matrix is required", ErrDictionaryLoad)
	}
	if m.RightSize() < 1 || m.LeftSize() < 1 {
		return nil, fmt.Errorf("%w: connection matrix %dx%d has no room for the sentence boundary id 0",
			ErrDictionaryLoad, m.RightSize(), m.LeftSize())
	}

	for i, e := range entries {
		if e.Surface == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty surface", ErrDictionaryLoad, i)
		}
		if err := m.checkIDs(e.RightID, e.LeftID); err != nil {
			return nil, fmt.Errorf("%w: entry %d (%q): %w", ErrDictionaryLoad, i, e.Surface, err)
		}
	}

	unk := make(map[charcat.Category]Entry, len(unknown))
	for cat, e := range unknown {
		if err := m.checkIDs(e.RightID, e.LeftID); err != nil {
			return nil, fmt.Errorf("%w: unknown-word definition %s: %w", ErrDictionaryLoad, cat, err)
		}
		e.Surface = ""
		unk[cat] = e
	}

	owned := append([]Entry(nil), entries...)
	idx := newTrie()
	for i := range owned {
		idx.insert(owned[i].Surface, EntryID(i))
	}

	return &Store{
		entries: owned,
		matrix:  m,
		unknown: unk,
		index:   idx,
		charset: CharsetUTF8,
	}, nil
}

// Len returns the number of lexicon entries.
func (s *Store) Len() int { return len(s.entries) }

// Entry returns the entry with the given id. The returned pointer refers to
// store-owned memory and must not be modified.
func (s *Store) Entry(id EntryID) *Entry { return &s.entries[id] }

// Unknown returns the unknown-word definition for a category, if the
// dictionary declares one.
func (s *Store) Unknown(cat charcat.Category) (Entry, bool) {
	e, ok := s.unknown[cat]
	return e, ok
}

// LookupPrefixes returns every entry whose surface matches text starting at
// the byte offset, shortest surface first and homographs in load order.
func (s *Store) LookupPrefixes(text string, offset int) []EntryID {
	return s.AppendPrefixes(nil, text, offset)
}

// AppendPrefixes is LookupPrefixes appending into dst, so callers can reuse
// a buffer across offsets.
func (s *Store) AppendPrefixes(dst []EntryID, text string, offset int) []EntryID {
	if offset < 0 || offset >= len(text) {
		return dst
	}
	return s.index.appendPrefixes(dst, text[offset:])
}

// ConnectionCost returns the cost of placing a morpheme whose right context
// is rightID immediately before one whose left context is leftID.
func (s *Store) ConnectionCost(rightID, leftID int) (int64, error) {
	return s.matrix.Cost(rightID, leftID)
}

// Matrix exposes the connection matrix (read-only).
func (s *Store) Matrix() *Matrix { return s.matrix }

// Info summarizes a Store.
type Info struct {
	Source    string   `json:"source,omitempty"`
	Charset   string   `json:"charset"`
	Entries   int      `json:"entries"`
	Surfaces  int      `json:"surfaces"`
	RightSize int      `json:"right_size"`
	LeftSize  int      `json:"left_size"`
	Unknown   []string `json:"unknown"`
}

// Info returns a summary of the store contents.
func (s *Store) Info() Info {
	unk := make([]string, 0, len(s.unknown))
	for cat := range s.unknown {
		unk = append(unk, cat.String())
	}
	sort.Strings(unk)

	return Info{
		Source:    s.source,
		Charset:   s.charset,
		Entries:   len(s.entries),
		Surfaces:  s.index.terminals,
		RightSize: s.matrix.RightSize(),
		LeftSize:  s.matrix.LeftSize(),
		Unknown:   unk,
	}
}
