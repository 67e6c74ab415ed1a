package dict

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Matrix is a dense connection-cost table indexed by the right context ID of
// the preceding morpheme and the left context ID of the following one.
type Matrix struct {
	rightSize int
	leftSize  int
	costs     []int32
}

// NewMatrix allocates a zero-cost matrix.
func NewMatrix(rightSize, leftSize int) (*Matrix, error) {
	if rightSize < 0 || leftSize < 0 {
		return nil, fmt.Errorf("%w: negative matrix size %dx%d", ErrDictionaryLoad, rightSize, leftSize)
	}
	return &Matrix{
		rightSize: rightSize,
		leftSize:  leftSize,
		costs:     make([]int32, rightSize*leftSize),
	}, nil
}

// RightSize is the number of right context IDs (rows).
func (m *Matrix) RightSize() int { return m.rightSize }

// LeftSize is the number of left context IDs (columns).
func (m *Matrix) LeftSize() int { return m.leftSize }

// Set stores a connection cost. It is only meant for construction, before
// the matrix is handed to a Store.
func (m *Matrix) Set(rightID, leftID int, cost int32) error {
	if err := m.checkIDs(rightID, leftID); err != nil {
		return err
	}
	m.costs[rightID*m.leftSize+leftID] = cost
	return nil
}

// Cost returns the connection cost between rightID and leftID.
func (m *Matrix) Cost(rightID, leftID int) (int64, error) {
	if err := m.checkIDs(rightID, leftID); err != nil {
		return 0, err
	}
	return int64(m.costs[rightID*m.leftSize+leftID]), nil
}

func (m *Matrix) checkIDs(rightID, leftID int) error {
	if rightID < 0 || rightID >= m.rightSize {
		return fmt.Errorf("%w: right id %d outside [0,%d)", ErrUnknownContextID, rightID, m.rightSize)
	}
	if leftID < 0 || leftID >= m.leftSize {
		return fmt.Errorf("%w: left id %d outside [0,%d)", ErrUnknownContextID, leftID, m.leftSize)
	}
	return nil
}

// ParseMatrix reads the matrix.def text format: a header line
// "right_size left_size" followed by "right_id left_id cost" lines.
// Pairs that are not listed cost 0.
func ParseMatrix(r io.Reader) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var m *Matrix
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		if m == nil {
			if len(fields) != 2 {
				return nil, fmt.Errorf("%w: matrix line %d: header wants 2 fields, got %d", ErrDictionaryLoad, line, len(fields))
			}
			rs, err1 := strconv.Atoi(fields[0])
			ls, err2 := strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("%w: matrix line %d: malformed header %q", ErrDictionaryLoad, line, sc.Text())
			}
			var err error
			if m, err = NewMatrix(rs, ls); err != nil {
				return nil, err
			}
			continue
		}

		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: matrix line %d: want 3 fields, got %d", ErrDictionaryLoad, line, len(fields))
		}
		rid, err1 := strconv.Atoi(fields[0])
		lid, err2 := strconv.Atoi(fields[1])
		cost, err3 := strconv.ParseInt(fields[2], 10, 32)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("%w: matrix line %d: malformed %q", ErrDictionaryLoad, line, sc.Text())
		}
		if cost < math.MinInt32 || cost > math.MaxInt32 {
			return nil, fmt.Errorf("%w: matrix line %d: cost out of range", ErrDictionaryLoad, line)
		}
		if err := m.Set(rid, lid, int32(cost)); err != nil {
			return nil, fmt.Errorf("%w: matrix line %d: %w", ErrDictionaryLoad, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read matrix: %w", ErrDictionaryLoad, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: matrix is empty", ErrDictionaryLoad)
	}

	return m, nil
}
