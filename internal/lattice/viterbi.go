package lattice

import "fmt"

// forward computes, for every node, the minimum cumulative cost from BOS and
// the predecessor achieving it. Nodes are visited by start offset, so every
// node ending at a position is final before any node starting there is
// scored. Ties keep the earliest-created predecessor.
func (l *Lattice) forward() error {
	if l.scored {
		return nil
	}

	bos := &l.nodes[BOS]
	bos.best = 0
	bos.reachable = true

	for pos := range l.startAt {
		preds := l.endAt[pos]
		for _, vi := range l.startAt[pos] {
			v := &l.nodes[vi]
			v.reachable = false
			v.prev = -1

			for _, ui := range preds {
				u := &l.nodes[ui]
				if !u.reachable {
					continue
				}
				c, err := l.edgeCost(ui, vi)
				if err != nil {
					return err
				}
				total, err := checkedAdd(u.best, c)
				if err != nil {
					return err
				}
				if !v.reachable || total < v.best {
					v.best = total
					v.prev = ui
					v.reachable = true
				}
			}
		}
	}

	l.scored = true
	return nil
}

// edgeCost is the cost of entering v from u: their connection cost plus the
// emission cost of v. BOS directly followed by EOS (empty input) costs 0.
func (l *Lattice) edgeCost(ui, vi int) (int64, error) {
	if ui == BOS && vi == EOS {
		return 0, nil
	}
	u, v := &l.nodes[ui], &l.nodes[vi]
	conn, err := l.store.ConnectionCost(u.RightID, v.LeftID)
	if err != nil {
		return 0, fmt.Errorf("connect %s[%d:%d] -> %s[%d:%d]: %w",
			u.Kind, u.Start, u.End, v.Kind, v.Start, v.End, err)
	}
	return checkedAdd(conn, v.Cost)
}

// Viterbi returns the lowest-cost BOS..EOS path.
func (l *Lattice) Viterbi() (Path, error) {
	if err := l.forward(); err != nil {
		return Path{}, err
	}

	eos := &l.nodes[EOS]
	if !eos.reachable {
		return Path{}, fmt.Errorf("%w: EOS unreachable over %d bytes", ErrNoPath, len(l.text))
	}

	var rev []int
	for i := EOS; i != -1; i = l.nodes[i].prev {
		rev = append(rev, i)
		if i == BOS {
			break
		}
	}
	if rev[len(rev)-1] != BOS {
		return Path{}, fmt.Errorf("%w: back-pointer chain does not reach BOS", ErrNoPath)
	}

	nodes := make([]int, len(rev))
	for i, n := range rev {
		nodes[len(rev)-1-i] = n
	}

	return Path{Nodes: nodes, Cost: eos.best}, nil
}
