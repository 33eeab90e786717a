package board

import "strings"

// Board is the 8x8 grid of square occupants, indexed [row][col].
// The zero value is an empty board.
type Board [8][8]Piece

// backRank is the piece order on both back ranks, a-file to h-file.
var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StartingBoard returns the standard initial layout.
func StartingBoard() Board {
	var b Board
	for col, pt := range backRank {
		b[0][col] = NewPiece(pt, Black)
		b[1][col] = BlackPawn
		b[6][col] = WhitePawn
		b[7][col] = NewPiece(pt, White)
	}
	return b
}

// At returns the occupant of sq.
func (b *Board) At(sq Square) Piece {
	return b[sq.Row][sq.Col]
}

// Set places p on sq. Setting NoPiece clears the square.
func (b *Board) Set(sq Square, p Piece) {
	b[sq.Row][sq.Col] = p
}

// FindKing returns the square of c's king, or NoSquare if it is missing.
func (b *Board) FindKing(c Color) Square {
	king := NewPiece(King, c)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if b[row][col] == king {
				return Square{Row: row, Col: col}
			}
		}
	}
	return NoSquare
}

// String renders the board from White's side, rank 8 first.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		sb.WriteByte(byte('8' - row))
		sb.WriteString("  ")
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(p.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n")
	return sb.String()
}
