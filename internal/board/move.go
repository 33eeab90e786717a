package board

import "fmt"

// Move describes a single ply. It is built by snapshotting the board
// before the move is applied, so it carries everything Undo needs.
type Move struct {
	From      Square
	To        Square
	Piece     Piece // piece moved
	Captured  Piece // NoPiece for quiet moves
	Promotion bool
	EnPassant bool
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare}

// NewMove creates a move from the board as it stands before the move.
// Promotion is detected when a pawn reaches the far rank.
func NewMove(from, to Square, b *Board) Move {
	m := Move{
		From:     from,
		To:       to,
		Piece:    b.At(from),
		Captured: b.At(to),
	}
	if m.Piece.Type() == Pawn {
		m.Promotion = (m.Piece.Color() == White && to.Row == 0) ||
			(m.Piece.Color() == Black && to.Row == 7)
	}
	return m
}

// NewEnPassant creates an en passant capture. The captured pawn stands
// beside the mover, not on the target square.
func NewEnPassant(from, to Square, b *Board) Move {
	mover := b.At(from)
	return Move{
		From:      from,
		To:        to,
		Piece:     mover,
		Captured:  NewPiece(Pawn, mover.Color().Other()),
		EnPassant: true,
	}
}

// ID returns the identity key fromRow*1000 + fromCol*100 + toRow*10 + toCol.
// Two moves are equal iff their IDs match.
func (m Move) ID() int {
	return m.From.Row*1000 + m.From.Col*100 + m.To.Row*10 + m.To.Col
}

// Equal reports whether m and o connect the same pair of squares.
func (m Move) Equal(o Move) bool {
	return m.ID() == o.ID()
}

// IsNone reports whether m is NoMove.
func (m Move) IsNone() bool {
	return !m.From.OnBoard()
}

// IsCapture returns true if this move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoPiece
}

// IsDoublePush returns true for a two-square pawn advance.
func (m Move) IsDoublePush() bool {
	d := m.To.Row - m.From.Row
	return m.Piece.Type() == Pawn && (d == 2 || d == -2)
}

// CapturedSquare returns where the captured piece stood.
func (m Move) CapturedSquare() Square {
	if m.EnPassant {
		return Square{Row: m.From.Row, Col: m.To.Col}
	}
	return m.To
}

// String returns the move as start and end square, e.g. "e2e4".
func (m Move) String() string {
	if m.IsNone() {
		return "0000"
	}
	return m.From.String() + m.To.String()
}

// UCI returns the long algebraic form used by UCI tools, which spells out
// the promotion piece ("e7e8q").
func (m Move) UCI() string {
	if m.Promotion {
		return m.String() + "q"
	}
	return m.String()
}

// Notation returns the start and end squares of m in file-rank form.
func Notation(m Move) string {
	return m.String()
}

// ParseMove finds the legal move written as "e2e4" among moves. Pawns only
// promote to queens, so a fifth character must be "q" and must name a
// promotion.
func ParseMove(s string, moves []Move) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("invalid move string: %q", s)
	}
	if len(s) == 5 && s[4] != 'q' {
		return NoMove, fmt.Errorf("unsupported promotion in %q: only queen promotion", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	want := Move{From: from, To: to}
	for _, m := range moves {
		if !m.Equal(want) {
			continue
		}
		if len(s) == 5 && !m.Promotion {
			return NoMove, fmt.Errorf("illegal move: %s is not a promotion", s)
		}
		return m, nil
	}
	return NoMove, fmt.Errorf("illegal move: %s", s)
}

// ContainsMove returns true if moves holds a move equal to m.
func ContainsMove(moves []Move, m Move) bool {
	for _, o := range moves {
		if o.Equal(m) {
			return true
		}
	}
	return false
}
