package lattice

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

// partial is a path suffix from node to EOS on the search agenda.
type partial struct {
	node   int
	suffix int64 // cost of everything after node up to EOS
	prio   int64 // best cost through node + suffix
	seq    uint64
	next   *partial
}

// agendaOrder pops the lowest priority first; among equal priorities the
// most recently pushed entry wins.
func agendaOrder(a, b *partial) int {
	if c := cmp.Compare(a.prio, b.prio); c != 0 {
		return c
	}
	return cmp.Compare(b.seq, a.seq)
}

// NBest returns up to n distinct BOS..EOS paths in non-decreasing cost order.
// It returns fewer than n paths when the lattice has fewer, and none when
// n < 1.
//
// The forward pass gives the exact best cost from BOS to every node, which
// serves as the heuristic of a best-first search that extends path suffixes
// backwards from EOS. Each node's Viterbi predecessor is pushed last, so the
// first path found is the Viterbi path and the order never depends on n.
func (l *Lattice) NBest(n int) ([]Path, error) {
	if n < 1 {
		return nil, nil
	}
	if err := l.forward(); err != nil {
		return nil, err
	}

	eos := &l.nodes[EOS]
	if !eos.reachable {
		return nil, fmt.Errorf("%w: EOS unreachable over %d bytes", ErrNoPath, len(l.text))
	}

	agenda := binaryheap.NewWith(agendaOrder)
	var seq uint64
	push := func(p *partial) {
		p.seq = seq
		seq++
		agenda.Push(p)
	}
	push(&partial{node: EOS, prio: eos.best})

	seen := make(map[string]struct{})
	var paths []Path

	for len(paths) < n {
		top, ok := agenda.Pop()
		if !ok {
			break
		}

		if top.node == BOS {
			p := collect(top)
			key := pathKey(p.Nodes)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			paths = append(paths, p)
			continue
		}

		if err := l.expand(top, push); err != nil {
			return nil, err
		}
	}

	return paths, nil
}

// expand pushes one extension of p per reachable predecessor of p.node.
// Predecessors go in reverse creation order with the Viterbi predecessor
// last, so ties pop the Viterbi choice first and then creation order.
func (l *Lattice) expand(p *partial, push func(*partial)) error {
	v := &l.nodes[p.node]
	preds := l.endAt[v.Start]

	extend := func(ui int) error {
		c, err := l.edgeCost(ui, p.node)
		if err != nil {
			return err
		}
		suffix, err := checkedAdd(p.suffix, c)
		if err != nil {
			return err
		}
		prio, err := checkedAdd(l.nodes[ui].best, suffix)
		if err != nil {
			return err
		}
		push(&partial{node: ui, suffix: suffix, prio: prio, next: p})
		return nil
	}

	for i := len(preds) - 1; i >= 0; i-- {
		ui := preds[i]
		if ui == v.prev || !l.nodes[ui].reachable {
			continue
		}
		if err := extend(ui); err != nil {
			return err
		}
	}
	if v.prev >= 0 {
		return extend(v.prev)
	}
	return nil
}

func collect(p *partial) Path {
	var nodes []int
	for q := p; q != nil; q = q.next {
		nodes = append(nodes, q.node)
	}
	return Path{Nodes: nodes, Cost: p.suffix}
}

func pathKey(nodes []int) string {
	var b strings.Builder
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
