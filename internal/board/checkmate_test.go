package board

import (
	"testing"
)

func TestCheckmate(t *testing.T) {
	// Back rank mate: White Ka1 Ra8, Black Kh8 boxed in by its own pawns.
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	t.Log("Checkmate position:")
	t.Log(pos)

	blackMoves := pos.LegalMoves()
	t.Log("Black legal moves:", len(blackMoves))
	t.Log("InCheck:", pos.InCheck())
	t.Log("IsCheckmate:", pos.IsCheckmate())
	t.Log("IsStalemate:", pos.IsStalemate())

	if !pos.IsCheckmate() {
		t.Error("Expected checkmate but got false")
	}
	if pos.IsStalemate() {
		t.Error("Checkmate reported as stalemate")
	}
	if got := pos.Outcome(); got != WhiteWins {
		t.Errorf("Outcome = %v, want %v", got, WhiteWins)
	}
}

func TestNotCheckmate(t *testing.T) {
	// The black king can take the checking rook.
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	t.Log("Not checkmate position (king can capture rook):")
	t.Log(pos)

	blackMoves := pos.LegalMoves()
	for _, m := range blackMoves {
		t.Log("  Move:", m)
	}

	if !pos.InCheck() {
		t.Error("Expected check")
	}
	if pos.IsCheckmate() {
		t.Error("Expected NOT checkmate but got true")
	}
	if !ContainsMove(blackMoves, Move{From: MustSquare("h8"), To: MustSquare("g8")}) {
		t.Error("Kxg8 missing")
	}
}

func TestStalemate(t *testing.T) {
	pos, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	moves := pos.LegalMoves()
	t.Log("Black legal moves:", len(moves))

	if len(moves) != 0 {
		t.Errorf("Expected no legal moves, got %v", moves)
	}
	if !pos.IsStalemate() || pos.IsCheckmate() || pos.InCheck() {
		t.Errorf("stalemate=%v checkmate=%v check=%v", pos.IsStalemate(), pos.IsCheckmate(), pos.InCheck())
	}
	if got := pos.Outcome(); got != Draw {
		t.Errorf("Outcome = %v, want %v", got, Draw)
	}
}

func TestFoolsMate(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m, err := ParseMove(s, pos.LegalMoves())
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		pos.Apply(m)
	}

	if n := len(pos.LegalMoves()); n != 0 {
		t.Errorf("White has %d moves after Qh4#", n)
	}
	if got := pos.Outcome(); got != BlackWins {
		t.Errorf("Outcome = %v, want %v", got, BlackWins)
	}
	t.Log(pos.Outcome())
}

func TestStatusFlagsResetByApply(t *testing.T) {
	pos := MustParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	pos.LegalMoves()
	if !pos.StatusValid() {
		t.Fatal("status not valid after LegalMoves")
	}

	pos.Undo() // empty log, no-op
	pos.LegalMoves()
	if !pos.IsCheckmate() {
		t.Fatal("expected checkmate")
	}

	pos = NewPosition()
	pos.LegalMoves()
	pos.Apply(findMove(t, pos, MustSquare("e2"), MustSquare("e4")))
	if pos.StatusValid() {
		t.Error("status still valid after Apply")
	}
}
