// Package lattice builds the morpheme lattice for an input text and searches
// it for the lowest-cost segmentation (Viterbi) or the N lowest-cost
// segmentations.
//
// A Lattice is an arena: nodes are stored in one slice and refer to each
// other by index. BOS is always node 0 and EOS node 1. A Lattice belongs to a
// single call; it reads from a shared dict.Store but never writes to it.
package lattice

import (
	"errors"
	"fmt"
	"math"

	"github.com/example/go-morpho/internal/charcat"
	"github.com/example/go-morpho/internal/dict"
)

var (
	// ErrNoPath means EOS is unreachable from BOS. Unknown-word fallback
	// makes this impossible for a well-formed lattice.
	ErrNoPath = errors.New("no path found")
	// ErrCostOverflow means a cumulative path cost left the int64 range.
	ErrCostOverflow = errors.New("cost overflow")
)

// Sentinel node indices.
const (
	BOS = 0
	EOS = 1
)

// Kind tags what a node stands for.
type Kind uint8

const (
	KindBOS Kind = iota
	KindEOS
	KindKnown   // dictionary entry
	KindUnknown // synthesized from a character-category run
)

func (k Kind) String() string {
	switch k {
	case KindBOS:
		return "BOS"
	case KindEOS:
		return "EOS"
	case KindKnown:
		return "known"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a candidate morpheme spanning text[Start:End].
type Node struct {
	Kind  Kind
	Start int
	End   int

	// Entry is set for KindKnown.
	Entry dict.EntryID
	// Category is set for KindUnknown.
	Category charcat.Category

	LeftID  int
	RightID int
	Cost    int64 // emission cost

	best      int64 // cumulative cost from BOS through this node
	prev      int   // best predecessor
	reachable bool
}

// Path is a BOS..EOS node sequence and its total cost.
type Path struct {
	Nodes []int
	Cost  int64
}

// Lattice holds the nodes of one input text.
type Lattice struct {
	text  string
	store *dict.Store
	opts  Options

	nodes   []Node
	startAt [][]int
	endAt   [][]int
	buf     []dict.EntryID
	scored  bool
}

// Text returns the input text.
func (l *Lattice) Text() string { return l.text }

// Len returns the number of nodes including BOS and EOS.
func (l *Lattice) Len() int { return len(l.nodes) }

// Node returns a copy of node i.
func (l *Lattice) Node(i int) Node { return l.nodes[i] }

// StartingAt returns the indices of nodes that start at byte offset pos.
// BOS is never listed; EOS is listed at len(Text()).
func (l *Lattice) StartingAt(pos int) []int { return l.startAt[pos] }

// EndingAt returns the indices of nodes that end at byte offset pos.
func (l *Lattice) EndingAt(pos int) []int { return l.endAt[pos] }

// Surface returns the text covered by node i.
func (l *Lattice) Surface(i int) string {
	n := &l.nodes[i]
	return l.text[n.Start:n.End]
}

// Feature returns the feature string of node i. Sentinels have none.
func (l *Lattice) Feature(i int) string {
	n := &l.nodes[i]
	switch n.Kind {
	case KindKnown:
		return l.store.Entry(n.Entry).Feature
	case KindUnknown:
		return l.unknownEntry(n.Category).Feature
	default:
		return ""
	}
}

// BestCost returns the cumulative cost of the best path from BOS through
// node i, and false if the node is unreachable or the lattice is unscored.
func (l *Lattice) BestCost(i int) (int64, bool) {
	n := &l.nodes[i]
	return n.best, l.scored && n.reachable
}

func (l *Lattice) addNode(n Node) {
	idx := len(l.nodes)
	n.prev = -1
	l.nodes = append(l.nodes, n)
	if n.Kind != KindBOS {
		l.startAt[n.Start] = append(l.startAt[n.Start], idx)
	}
	if n.Kind != KindEOS {
		l.endAt[n.End] = append(l.endAt[n.End], idx)
	}
}

func checkedAdd(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%w: %d + %d", ErrCostOverflow, a, b)
	}
	return a + b, nil
}
