package board

import (
	"fmt"
	"strings"
)

// logEntry is one move-log record: the move plus the en passant target
// that was current before it.
type logEntry struct {
	move          Move
	prevEnPassant Square
}

// Position represents a game in progress: the board, whose turn it is, and
// the move log needed to take moves back.
type Position struct {
	Board      Board
	SideToMove Color

	// King locations, cached for check detection.
	KingSquare [2]Square

	// Square passed over by the last two-step pawn advance, NoSquare if none.
	EnPassant Square

	FullMoveNumber int

	log []logEntry

	// Terminal flags, valid only right after LegalMoves.
	inCheck     bool
	checkmate   bool
	stalemate   bool
	statusValid bool
}

// State is the comparable part of a position: everything Apply followed by
// Undo must restore exactly.
type State struct {
	Board      Board
	SideToMove Color
	KingSquare [2]Square
	EnPassant  Square
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	p := &Position{
		Board:          StartingBoard(),
		SideToMove:     White,
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	p.findKings()
	return p
}

// Copy creates a deep copy of the position, move log included.
func (p *Position) Copy() *Position {
	newPos := *p
	newPos.log = append([]logEntry(nil), p.log...)
	return &newPos
}

// State returns a snapshot of the position for comparison.
func (p *Position) State() State {
	return State{
		Board:      p.Board,
		SideToMove: p.SideToMove,
		KingSquare: p.KingSquare,
		EnPassant:  p.EnPassant,
	}
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Board.At(sq)
}

// Apply plays m, which must come from LegalMoves on this position.
// No legality check is made.
func (p *Position) Apply(m Move) {
	us := m.Piece.Color()

	p.Board.Set(m.From, NoPiece)
	placed := m.Piece
	if m.Promotion {
		placed = NewPiece(Queen, us)
	}
	p.Board.Set(m.To, placed)
	if m.EnPassant {
		p.Board.Set(m.CapturedSquare(), NoPiece)
	}

	p.log = append(p.log, logEntry{move: m, prevEnPassant: p.EnPassant})
	p.SideToMove = p.SideToMove.Other()
	if us == Black {
		p.FullMoveNumber++
	}

	if m.Piece.Type() == King {
		p.KingSquare[us] = m.To
	}

	if m.IsDoublePush() {
		p.EnPassant = Square{Row: (m.From.Row + m.To.Row) / 2, Col: m.From.Col}
	} else {
		p.EnPassant = NoSquare
	}

	p.statusValid = false
}

// Undo takes back the last move. It is a no-op on an empty log.
func (p *Position) Undo() {
	n := len(p.log)
	if n == 0 {
		return
	}
	e := p.log[n-1]
	p.log = p.log[:n-1]
	m := e.move
	us := m.Piece.Color()

	p.Board.Set(m.From, m.Piece)
	if m.EnPassant {
		p.Board.Set(m.To, NoPiece)
		p.Board.Set(m.CapturedSquare(), m.Captured)
	} else {
		p.Board.Set(m.To, m.Captured)
	}

	p.SideToMove = p.SideToMove.Other()
	if us == Black {
		p.FullMoveNumber--
	}

	if m.Piece.Type() == King {
		p.KingSquare[us] = m.From
	}

	p.EnPassant = e.prevEnPassant
	p.statusValid = false
	p.inCheck, p.checkmate, p.stalemate = false, false, false
}

// MoveLog returns the moves played so far, oldest first.
func (p *Position) MoveLog() []Move {
	moves := make([]Move, len(p.log))
	for i, e := range p.log {
		moves[i] = e.move
	}
	return moves
}

// Ply returns the number of moves in the log.
func (p *Position) Ply() int {
	return len(p.log)
}

// LastMove returns the most recent move, if any.
func (p *Position) LastMove() (Move, bool) {
	if len(p.log) == 0 {
		return NoMove, false
	}
	return p.log[len(p.log)-1].move, true
}

// InCheck returns true if the side to move is in check.
// Valid only after LegalMoves.
func (p *Position) InCheck() bool {
	return p.inCheck
}

// IsCheckmate returns true if the side to move has been mated.
// Valid only after LegalMoves.
func (p *Position) IsCheckmate() bool {
	return p.checkmate
}

// IsStalemate returns true if the side to move has no moves and is not in
// check. Valid only after LegalMoves.
func (p *Position) IsStalemate() bool {
	return p.stalemate
}

// StatusValid reports whether the terminal flags reflect the current
// position, i.e. LegalMoves ran since the last Apply or Undo.
func (p *Position) StatusValid() bool {
	return p.statusValid
}

// Outcome describes how a game stands.
type Outcome uint8

const (
	Ongoing Outcome = iota
	WhiteWins
	BlackWins
	Draw
)

// String returns the end-of-game message.
func (o Outcome) String() string {
	switch o {
	case WhiteWins:
		return "White wins by checkmate"
	case BlackWins:
		return "Black wins by checkmate"
	case Draw:
		return "Stalemate"
	default:
		return "Ongoing"
	}
}

// Result returns the PGN result token for o.
func (o Outcome) Result() string {
	switch o {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Outcome reports checkmate or stalemate. Valid only after LegalMoves.
func (p *Position) Outcome() Outcome {
	switch {
	case p.checkmate && p.SideToMove == White:
		return BlackWins
	case p.checkmate:
		return WhiteWins
	case p.stalemate:
		return Draw
	}
	return Ongoing
}

// findKings locates and caches the king positions.
func (p *Position) findKings() {
	p.KingSquare[White] = p.Board.FindKing(White)
	p.KingSquare[Black] = p.Board.FindKing(Black)
}

// Validate checks if the position is valid.
func (p *Position) Validate() error {
	counts := [2]int{}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := p.Board[row][col]
			if piece.Type() == King {
				counts[piece.Color()]++
			}
			if piece.Type() == Pawn && (row == 0 || row == 7) {
				return fmt.Errorf("pawn on back rank at %v", Square{Row: row, Col: col})
			}
		}
	}
	if counts[White] != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if counts[Black] != 1 {
		return fmt.Errorf("black must have exactly one king")
	}
	if p.IsSquareAttacked(p.KingSquare[p.SideToMove.Other()], p.SideToMove.Other()) {
		return fmt.Errorf("%v king can be captured", p.SideToMove.Other())
	}
	return nil
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	sb.WriteString(p.Board.String())
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	fmt.Fprintf(&sb, "FEN: %s\n", p.FEN())
	return sb.String()
}
