package board

// PseudoLegalMoves generates all moves allowed by piece movement rules for
// the side to move, ignoring whether the mover's king is left in check.
func (p *Position) PseudoLegalMoves() []Move {
	moves := make([]Move, 0, 64)
	us := p.SideToMove

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := p.Board[row][col]
			if piece == NoPiece || piece.Color() != us {
				continue
			}
			moves = p.pieceMoves(moves, Square{Row: row, Col: col}, piece)
		}
	}

	return moves
}

// pieceMoves appends the pseudo-legal moves of piece standing on from.
func (p *Position) pieceMoves(moves []Move, from Square, piece Piece) []Move {
	switch piece.Type() {
	case Pawn:
		return p.pawnMoves(moves, from, piece.Color())
	case Knight:
		return p.stepMoves(moves, from, piece.Color(), knightOffsets[:])
	case Bishop:
		return p.slideMoves(moves, from, piece.Color(), rayDirections[4:])
	case Rook:
		return p.slideMoves(moves, from, piece.Color(), rayDirections[:4])
	case Queen:
		return p.slideMoves(moves, from, piece.Color(), rayDirections[:])
	case King:
		// No castling.
		return p.stepMoves(moves, from, piece.Color(), rayDirections[:])
	}
	return moves
}

// pawnForward returns the row step of a pawn of color c.
func pawnForward(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

// pawnStartRow returns the row pawns of color c start on.
func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

// pawnMoves generates pushes, double pushes, captures and en passant.
func (p *Position) pawnMoves(moves []Move, from Square, us Color) []Move {
	b := &p.Board
	dir := pawnForward(us)

	one := from.Add(dir, 0)
	if one.OnBoard() && b.At(one) == NoPiece {
		moves = append(moves, NewMove(from, one, b))

		two := from.Add(2*dir, 0)
		if from.Row == pawnStartRow(us) && b.At(two) == NoPiece {
			moves = append(moves, NewMove(from, two, b))
		}
	}

	for _, dc := range [2]int{-1, 1} {
		to := from.Add(dir, dc)
		if !to.OnBoard() {
			continue
		}
		occ := b.At(to)
		if occ != NoPiece {
			if occ.Color() != us {
				moves = append(moves, NewMove(from, to, b))
			}
			continue
		}
		if to == p.EnPassant && b.At(Square{Row: from.Row, Col: to.Col}) == NewPiece(Pawn, us.Other()) {
			moves = append(moves, NewEnPassant(from, to, b))
		}
	}

	return moves
}

// stepMoves generates single-step moves (knight and king) onto empty or
// enemy-occupied squares.
func (p *Position) stepMoves(moves []Move, from Square, us Color, offsets []Direction) []Move {
	b := &p.Board
	for _, d := range offsets {
		to := from.Add(d.DR, d.DC)
		if !to.OnBoard() {
			continue
		}
		if occ := b.At(to); occ == NoPiece || occ.Color() != us {
			moves = append(moves, NewMove(from, to, b))
		}
	}
	return moves
}

// slideMoves walks each direction until the edge, an ally (excluded) or an
// enemy (included as a capture).
func (p *Position) slideMoves(moves []Move, from Square, us Color, dirs []Direction) []Move {
	b := &p.Board
	for _, d := range dirs {
		for i := 1; i < 8; i++ {
			to := from.Add(d.DR*i, d.DC*i)
			if !to.OnBoard() {
				break
			}
			occ := b.At(to)
			if occ == NoPiece {
				moves = append(moves, NewMove(from, to, b))
				continue
			}
			if occ.Color() != us {
				moves = append(moves, NewMove(from, to, b))
			}
			break
		}
	}
	return moves
}
