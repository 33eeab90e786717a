package board

// Direction is a step on the board in rows and columns.
type Direction struct {
	DR int
	DC int
}

// Neg returns the opposite direction.
func (d Direction) Neg() Direction {
	return Direction{DR: -d.DR, DC: -d.DC}
}

// rayDirections is the fixed scan order used by the detector.
// Indices 0-3 are orthogonal and 4-7 diagonal; pawn checks are keyed on
// these indices, so the order must not change.
var rayDirections = [8]Direction{
	{-1, 0}, {0, -1}, {1, 0}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

var knightOffsets = [8]Direction{
	{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
	{1, -2}, {1, 2}, {2, -1}, {2, 1},
}

// Pin records an allied piece that may only move along Dir (either sign)
// without exposing its king.
type Pin struct {
	Square Square
	Dir    Direction
}

// Check records a piece giving check and the direction from the king
// towards it. For knight checks Dir is the knight offset itself.
type Check struct {
	Square Square
	Dir    Direction
}

// CheckInfo is the detector's view of the side to move's king.
type CheckInfo struct {
	InCheck bool
	Pins    []Pin
	Checks  []Check
}

// PinFor returns the pin on sq, if any.
func (ci *CheckInfo) PinFor(sq Square) (Pin, bool) {
	for _, pin := range ci.Pins {
		if pin.Square == sq {
			return pin, true
		}
	}
	return Pin{}, false
}

// CheckInfo scans outward from the king of the side to move and classifies
// pins and checks.
func (p *Position) CheckInfo() CheckInfo {
	return p.scanKing(p.KingSquare[p.SideToMove], p.SideToMove)
}

// scanKing runs the detector as if us had a king on king.
func (p *Position) scanKing(king Square, us Color) CheckInfo {
	var info CheckInfo
	b := &p.Board

	for j, d := range rayDirections {
		candidate := NoSquare
		for i := 1; i < 8; i++ {
			sq := king.Add(d.DR*i, d.DC*i)
			if !sq.OnBoard() {
				break
			}
			occ := b.At(sq)
			if occ == NoPiece {
				continue
			}
			if occ.Color() == us {
				if occ.Type() == King {
					continue
				}
				if candidate == NoSquare {
					candidate = sq
					continue
				}
				// Two allies on the ray: nothing behind them matters.
				break
			}
			if attacksAlongRay(occ, j, i) {
				if candidate == NoSquare {
					info.InCheck = true
					info.Checks = append(info.Checks, Check{Square: sq, Dir: d})
				} else {
					info.Pins = append(info.Pins, Pin{Square: candidate, Dir: d})
				}
			}
			break
		}
	}

	enemyKnight := NewPiece(Knight, us.Other())
	for _, d := range knightOffsets {
		sq := king.Add(d.DR, d.DC)
		if sq.OnBoard() && b.At(sq) == enemyKnight {
			info.InCheck = true
			info.Checks = append(info.Checks, Check{Square: sq, Dir: d})
		}
	}

	return info
}

// attacksAlongRay reports whether enemy, found dist squares from the king on
// ray index j, attacks the king along that ray.
func attacksAlongRay(enemy Piece, j, dist int) bool {
	switch enemy.Type() {
	case Rook:
		return j <= 3
	case Bishop:
		return j >= 4
	case Queen:
		return true
	case King:
		return dist == 1
	case Pawn:
		if dist != 1 {
			return false
		}
		// A white pawn attacks upwards, so it sits below the king (6, 7);
		// a black pawn sits above it (4, 5).
		if enemy.Color() == White {
			return j == 6 || j == 7
		}
		return j == 4 || j == 5
	}
	return false
}

// IsSquareAttacked reports whether a king of color us standing on sq would be
// in check. The board is inspected as is.
func (p *Position) IsSquareAttacked(sq Square, us Color) bool {
	return p.scanKing(sq, us).InCheck
}
