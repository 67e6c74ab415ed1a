package lattice

import (
	"fmt"
	"unicode/utf8"

	"github.com/example/go-morpho/internal/charcat"
	"github.com/example/go-morpho/internal/dict"
)

// Defaults used when an Options field is zero.
const (
	DefaultMaxUnknownLength = 16
	DefaultUnknownCost      = 10000
	DefaultUnknownFeature   = "UNK"
)

// Options control unknown-word synthesis.
type Options struct {
	// MaxUnknownLength caps an unknown-word run, in runes.
	MaxUnknownLength int
	// UnknownCost and UnknownFeature are used for categories the dictionary
	// has no unk.def line for. Unknown nodes without an unk.def line use
	// context id 0. A zero UnknownCost means DefaultUnknownCost; use a
	// unk.def line to give unknown words a cost of exactly 0.
	UnknownCost    int64
	UnknownFeature string
	// InvokeUnknown lists categories that get an unknown-word node even at
	// offsets where dictionary entries match.
	InvokeUnknown []charcat.Category
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxUnknownLength: DefaultMaxUnknownLength,
		UnknownCost:      DefaultUnknownCost,
		UnknownFeature:   DefaultUnknownFeature,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxUnknownLength <= 0 {
		o.MaxUnknownLength = DefaultMaxUnknownLength
	}
	if o.UnknownCost == 0 {
		o.UnknownCost = DefaultUnknownCost
	}
	if o.UnknownFeature == "" {
		o.UnknownFeature = DefaultUnknownFeature
	}
	return o
}

func (o Options) invokes(cat charcat.Category) bool {
	for _, c := range o.InvokeUnknown {
		if c == cat {
			return true
		}
	}
	return false
}

// Build constructs the lattice of text over store.
func Build(text string, store *dict.Store, opts Options) (*Lattice, error) {
	l := &Lattice{}
	if err := l.Rebuild(text, store, opts); err != nil {
		return nil, err
	}
	return l, nil
}

// Rebuild discards the current contents of l and builds the lattice of text,
// reusing l's buffers.
//
// Every byte offset on a rune boundary gets one node per dictionary entry
// matching there. Offsets with no match get exactly one unknown-word node
// covering the longest same-category run, which keeps every reachable
// offset connected to EOS.
func (l *Lattice) Rebuild(text string, store *dict.Store, opts Options) error {
	if store == nil {
		return fmt.Errorf("lattice: nil dictionary store")
	}

	l.reset(text, store, opts.withDefaults())

	for i := 0; i < len(text); {
		l.buf = store.AppendPrefixes(l.buf[:0], text, i)
		for _, id := range l.buf {
			e := store.Entry(id)
			end := i + len(e.Surface)
			if end <= i {
				continue
			}
			l.addNode(Node{
				Kind:    KindKnown,
				Start:   i,
				End:     end,
				Entry:   id,
				LeftID:  e.LeftID,
				RightID: e.RightID,
				Cost:    e.Cost,
			})
		}

		cat, size := charcat.Run(text[i:], l.opts.MaxUnknownLength)
		if len(l.buf) == 0 || l.opts.invokes(cat) {
			e := l.unknownEntry(cat)
			l.addNode(Node{
				Kind:     KindUnknown,
				Start:    i,
				End:      i + size,
				Category: cat,
				LeftID:   e.LeftID,
				RightID:  e.RightID,
				Cost:     e.Cost,
			})
		}

		_, step := utf8.DecodeRuneInString(text[i:])
		i += step
	}

	return nil
}

func (l *Lattice) reset(text string, store *dict.Store, opts Options) {
	l.text = text
	l.store = store
	l.opts = opts
	l.scored = false
	l.nodes = l.nodes[:0]

	n := len(text) + 1
	if cap(l.startAt) < n {
		l.startAt = make([][]int, n)
		l.endAt = make([][]int, n)
	}
	l.startAt = l.startAt[:n]
	l.endAt = l.endAt[:n]
	for i := range n {
		l.startAt[i] = l.startAt[i][:0]
		l.endAt[i] = l.endAt[i][:0]
	}

	l.addNode(Node{Kind: KindBOS})
	l.addNode(Node{Kind: KindEOS, Start: len(text), End: len(text)})
}

// unknownEntry resolves the synthetic entry for a category: the dictionary's
// unk.def line for it, else the DEFAULT line, else the configured fallback.
func (l *Lattice) unknownEntry(cat charcat.Category) dict.Entry {
	if e, ok := l.store.Unknown(cat); ok {
		return e
	}
	if e, ok := l.store.Unknown(charcat.Default); ok {
		return e
	}
	return dict.Entry{Cost: l.opts.UnknownCost, Feature: l.opts.UnknownFeature}
}
