// Package board holds the omok grid model and win detection.
package board

import "fmt"

// Board is a fixed-size grid of stones. Dimensions never change after
// construction.
type Board struct {
	width  int
	height int
	cells  []Stone
}

// New creates an empty width x height board.
func New(width, height int) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("board: invalid dimensions %dx%d", width, height)
	}
	b := &Board{width: width, height: height, cells: make([]Stone, width*height)}
	b.Reset()
	return b, nil
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// InBounds reports whether (x, y) lies on the board.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// At returns the stone at (x, y); Empty for out-of-bounds coordinates.
func (b *Board) At(x, y int) Stone {
	if !b.InBounds(x, y) {
		return Empty
	}
	return b.cells[y*b.width+x]
}

// Set places a stone at (x, y).
func (b *Board) Set(x, y int, s Stone) error {
	if !b.InBounds(x, y) {
		return fmt.Errorf("board: (%d,%d) out of bounds", x, y)
	}
	b.cells[y*b.width+x] = s
	return nil
}

// IsEmpty reports whether the in-bounds cell (x, y) holds no stone.
// Blockers and jokers count as occupied.
func (b *Board) IsEmpty(x, y int) bool {
	return b.InBounds(x, y) && b.At(x, y) == Empty
}

// Reset clears every cell.
func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = Empty
	}
}

// Full reports whether no empty cell remains.
func (b *Board) Full() bool {
	for _, c := range b.cells {
		if c == Empty {
			return false
		}
	}
	return true
}

// Snapshot returns a defensive byte copy of the grid in row-major order.
func (b *Board) Snapshot() []byte {
	out := make([]byte, len(b.cells))
	for i, c := range b.cells {
		out[i] = byte(int8(c))
	}
	return out
}

// axis direction pairs: horizontal, vertical, both diagonals
var directions = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// HasFiveInARow reports whether the stone just placed at (x, y) completes a
// run of five or more for the given player, scanning both ways along each
// of the four axes. Jokers extend runs; blockers terminate them.
func (b *Board) HasFiveInARow(x, y int, player Stone) bool {
	if !player.IsPlayer() {
		return false
	}
	if !b.At(x, y).CountsFor(player) {
		return false
	}
	for _, dir := range directions {
		count := 1
		count += b.countRun(x, y, dir[0], dir[1], player)
		count += b.countRun(x, y, -dir[0], -dir[1], player)
		if count >= 5 {
			return true
		}
	}
	return false
}

func (b *Board) countRun(startX, startY, dx, dy int, player Stone) int {
	count := 0
	x, y := startX+dx, startY+dy
	for b.InBounds(x, y) && b.At(x, y).CountsFor(player) {
		count++
		x += dx
		y += dy
	}
	return count
}
