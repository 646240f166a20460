// Package topology describes the physical scan matrix: its GPIO lines and
// the mapping between (row, col) pairs and key positions. A topology is
// built once at startup from configuration and is immutable afterwards.
package topology

import (
	"fmt"

	"codeberg.org/mutker/kscand/internal/errors"
)

// MaxLines bounds the number of physical scan lines a matrix may declare.
const MaxLines = 16

// Line describes one physical scan line.
type Line struct {
	Index uint32
	Pin   uint32
	Port  string
}

// Topology is the static description of the scan matrix.
type Topology struct {
	rows        int
	cols        int
	multiplexed bool
	lines       []Line
	posToRC     [][2]int
	rcToPos     map[[2]int]int
}

// New builds and validates a topology.
//
// For a multiplexed matrix each line acts as both drive and sense, so the
// shape is derived from the line count and diagonal (row == col) pairs are
// invalid. For a plain matrix the shape comes from rows and cols directly.
func New(rows, cols int, multiplexed bool, lines []Line) (*Topology, error) {
	errFactory := errors.New()

	if len(lines) == 0 {
		return nil, errFactory.New(ErrNoLines)
	}
	if len(lines) > MaxLines {
		return nil, errFactory.WithData(ErrTooManyLines, len(lines))
	}

	seen := make(map[string]struct{}, len(lines))
	for i := range lines {
		lines[i].Index = uint32(i)
		key := fmt.Sprintf("%s:%d", lines[i].Port, lines[i].Pin)
		if _, dup := seen[key]; dup {
			return nil, errFactory.WithData(ErrDuplicateLine, key)
		}
		seen[key] = struct{}{}
	}

	if multiplexed {
		rows = len(lines)
		cols = len(lines)
		if rows < 2 {
			return nil, errFactory.WithMessage(ErrInvalidShape,
				"multiplexed matrix needs at least two lines")
		}
	} else if rows <= 0 || cols <= 0 {
		return nil, errFactory.WithData(ErrInvalidShape,
			fmt.Sprintf("%dx%d", rows, cols))
	}

	t := &Topology{
		rows:        rows,
		cols:        cols,
		multiplexed: multiplexed,
		lines:       lines,
		rcToPos:     make(map[[2]int]int),
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if multiplexed && row == col {
				continue
			}
			pos := len(t.posToRC)
			t.posToRC = append(t.posToRC, [2]int{row, col})
			t.rcToPos[[2]int{row, col}] = pos
		}
	}

	return t, nil
}

// Rows returns the number of matrix rows.
func (t *Topology) Rows() int { return t.rows }

// Cols returns the number of matrix columns.
func (t *Topology) Cols() int { return t.cols }

// Multiplexed reports whether lines are shared between drive and sense.
func (t *Topology) Multiplexed() bool { return t.multiplexed }

// KeyCount returns the number of addressable key positions.
func (t *Topology) KeyCount() int { return len(t.posToRC) }

// LineCount returns the number of physical scan lines.
func (t *Topology) LineCount() int { return len(t.lines) }

// Lines returns the physical scan line descriptors.
func (t *Topology) Lines() []Line { return t.lines }

// Line returns the descriptor for the given line index.
func (t *Topology) Line(index int) (Line, bool) {
	if index < 0 || index >= len(t.lines) {
		return Line{}, false
	}
	return t.lines[index], true
}

// PositionFor maps a (row, col) pair to a key position.
func (t *Topology) PositionFor(row, col int) (int, bool) {
	pos, ok := t.rcToPos[[2]int{row, col}]
	return pos, ok
}

// RowColFor maps a key position back to its (row, col) pair.
func (t *Topology) RowColFor(position int) (row, col int, ok bool) {
	if position < 0 || position >= len(t.posToRC) {
		return 0, 0, false
	}
	rc := t.posToRC[position]
	return rc[0], rc[1], true
}

// LinesFor returns the drive and sense line indices serving a key position.
// Only meaningful for multiplexed matrices, where drive == row and
// sense == col by construction.
func (t *Topology) LinesFor(position int) (drive, sense int, ok bool) {
	if !t.multiplexed {
		return 0, 0, false
	}
	row, col, ok := t.RowColFor(position)
	if !ok {
		return 0, 0, false
	}
	return row, col, true
}
