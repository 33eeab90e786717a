package board

import "fmt"

// DebugAssertions enables invariant checks that panic on corrupted
// positions (missing king, king square out of sync with the board).
var DebugAssertions = false

// LegalMoves returns every legal move for the side to move. As a side
// effect it refreshes the in-check, checkmate and stalemate flags.
func (p *Position) LegalMoves() []Move {
	us := p.SideToMove
	king := p.KingSquare[us]

	if DebugAssertions {
		if !king.OnBoard() || p.Board.At(king) != NewPiece(King, us) {
			panic(fmt.Sprintf("board: %v king not on %v\n%s", us, king, p.Board.String()))
		}
	}

	info := p.scanKing(king, us)
	pseudo := p.PseudoLegalMoves()
	moves := pseudo[:0]

	switch {
	case len(info.Checks) > 1:
		// Double check: only the king can move.
		for _, m := range pseudo {
			if m.Piece.Type() == King && p.kingMoveIsSafe(m) {
				moves = append(moves, m)
			}
		}

	case len(info.Checks) == 1:
		targets := p.checkTargets(king, info.Checks[0])
		for _, m := range pseudo {
			switch {
			case m.Piece.Type() == King:
				if p.kingMoveIsSafe(m) {
					moves = append(moves, m)
				}
			case m.EnPassant:
				if p.leavesKingSafe(m) {
					moves = append(moves, m)
				}
			case pinAllows(&info, m) && containsSquare(targets, m.To):
				moves = append(moves, m)
			}
		}

	default:
		for _, m := range pseudo {
			switch {
			case m.Piece.Type() == King:
				if p.kingMoveIsSafe(m) {
					moves = append(moves, m)
				}
			case m.EnPassant:
				if p.leavesKingSafe(m) {
					moves = append(moves, m)
				}
			case pinAllows(&info, m):
				moves = append(moves, m)
			}
		}
	}

	p.inCheck = info.InCheck
	p.checkmate = len(moves) == 0 && info.InCheck
	p.stalemate = len(moves) == 0 && !info.InCheck
	p.statusValid = true

	return moves
}

// checkTargets returns the squares a non-king move may land on to answer a
// single check: the checker itself plus, for sliders, the squares between it
// and the king.
func (p *Position) checkTargets(king Square, c Check) []Square {
	if p.Board.At(c.Square).Type() == Knight {
		return []Square{c.Square}
	}
	targets := make([]Square, 0, 7)
	for i := 1; i < 8; i++ {
		sq := king.Add(c.Dir.DR*i, c.Dir.DC*i)
		targets = append(targets, sq)
		if sq == c.Square {
			break
		}
	}
	return targets
}

// pinAllows reports whether m keeps a pinned piece on its pin axis.
// Unpinned pieces are unrestricted.
func pinAllows(info *CheckInfo, m Move) bool {
	pin, pinned := info.PinFor(m.From)
	if !pinned {
		return true
	}
	if m.Piece.Type() == Knight {
		return false
	}
	d := Direction{DR: sign(m.To.Row - m.From.Row), DC: sign(m.To.Col - m.From.Col)}
	return d == pin.Dir || d == pin.Dir.Neg()
}

// kingMoveIsSafe places the king on its destination, re-runs the detector
// and restores the board.
func (p *Position) kingMoveIsSafe(m Move) bool {
	b := &p.Board
	b.Set(m.From, NoPiece)
	b.Set(m.To, m.Piece)
	attacked := p.scanKing(m.To, m.Piece.Color()).InCheck
	b.Set(m.To, m.Captured)
	b.Set(m.From, m.Piece)
	return !attacked
}

// leavesKingSafe plays m and checks the mover's king directly. Used for en
// passant, where two pawns leave the same rank at once and the captured
// pawn is not on the destination square.
func (p *Position) leavesKingSafe(m Move) bool {
	us := m.Piece.Color()
	p.Apply(m)
	attacked := p.scanKing(p.KingSquare[us], us).InCheck
	p.Undo()
	return !attacked
}

func containsSquare(squares []Square, sq Square) bool {
	for _, s := range squares {
		if s == sq {
			return true
		}
	}
	return false
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
