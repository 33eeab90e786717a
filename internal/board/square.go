// Package board implements the chess position model: an 8x8 mailbox board,
// move descriptors, legal move generation with check and pin detection, and
// reversible move application.
package board

import "fmt"

// Square addresses one cell of the board.
// Row 0 is the 8th rank (Black's back rank), Col 0 is the a-file.
type Square struct {
	Row int
	Col int
}

// NoSquare marks an absent square, e.g. no en passant target.
var NoSquare = Square{Row: -1, Col: -1}

// Sq is shorthand for Square{Row: row, Col: col}.
func Sq(row, col int) Square {
	return Square{Row: row, Col: col}
}

// OnBoard returns true if the square lies within the 8x8 grid.
func (sq Square) OnBoard() bool {
	return sq.Row >= 0 && sq.Row < 8 && sq.Col >= 0 && sq.Col < 8
}

// Add returns the square offset by (dr, dc).
func (sq Square) Add(dr, dc int) Square {
	return Square{Row: sq.Row + dr, Col: sq.Col + dc}
}

// File returns the file letter ('a'-'h').
func (sq Square) File() byte {
	return byte('a' + sq.Col)
}

// Rank returns the rank digit ('1'-'8').
func (sq Square) Rank() byte {
	return byte('8' - sq.Row)
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	if !sq.OnBoard() {
		return "-"
	}
	return string([]byte{sq.File(), sq.Rank()})
}

// ParseSquare parses algebraic notation (e.g., "e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	col := int(s[0] - 'a')
	row := int('8' - s[1])

	sq := Square{Row: row, Col: col}
	if s[0] < 'a' || s[1] > '8' || !sq.OnBoard() {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	return sq, nil
}

// MustSquare is like ParseSquare but panics on malformed input.
// Intended for constants in tests and tables.
func MustSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}
