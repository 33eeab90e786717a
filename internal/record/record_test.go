package record

import (
	"strings"
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func play(t *testing.T, pos *board.Position, g *Game, moves ...string) {
	t.Helper()
	for _, s := range moves {
		m, err := board.ParseMove(s, pos.LegalMoves())
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		pos.Apply(m)
		g.Add(m)
	}
}

func TestMoveText(t *testing.T) {
	tests := []struct {
		name       string
		moves      []string
		fullMove   int
		blackFirst bool
		want       string
	}{
		{"empty", nil, 1, false, ""},
		{"pairs", []string{"e2e4", "e7e5", "g1f3"}, 1, false, "1. e2e4 e7e5 2. g1f3"},
		{"black first", []string{"e7e5", "g1f3", "b8c6"}, 1, true, "1... e7e5 2. g1f3 b8c6"},
		{"late start", []string{"a2a3"}, 12, false, "12. a2a3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MoveText(tc.moves, tc.fullMove, tc.blackFirst); got != tc.want {
				t.Errorf("MoveText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFoolsMatePGN(t *testing.T) {
	pos := board.NewPosition()
	g := New(pos)
	if g.StartFEN != "" {
		t.Errorf("StartFEN = %q for the standard start", g.StartFEN)
	}

	play(t, pos, g, "f2f3", "e7e5", "g2g4", "d8h4")
	pos.LegalMoves()
	g.Finish(pos.Outcome())

	if g.Result != "0-1" || !g.Done() {
		t.Errorf("result = %q, done = %v", g.Result, g.Done())
	}
	if got := g.MoveText(); got != "1. f2f3 e7e5 2. g2g4 d8h4" {
		t.Errorf("MoveText = %q", got)
	}

	pgn, err := PGN(g)
	if err != nil {
		t.Fatalf("PGN: %v", err)
	}
	t.Log(pgn)

	for _, want := range []string{`[Result "0-1"]`, "1. f3 e5 2. g4 Qh4#", "0-1"} {
		if !strings.Contains(pgn, want) {
			t.Errorf("PGN missing %q", want)
		}
	}
}

func TestPGNFromFEN(t *testing.T) {
	fen := "4k3/P7/8/8/8/8/8/4K3 w - - 0 1"
	pos := board.MustParseFEN(fen)
	g := New(pos)
	if g.StartFEN != fen {
		t.Fatalf("StartFEN = %q, want %q", g.StartFEN, fen)
	}

	play(t, pos, g, "a7a8")
	if g.Moves[0] != "a7a8q" {
		t.Errorf("promotion recorded as %q", g.Moves[0])
	}

	pgn, err := PGN(g)
	if err != nil {
		t.Fatalf("PGN: %v", err)
	}
	if !strings.Contains(pgn, "a8=Q") || !strings.Contains(pgn, `[FEN "`+fen+`"]`) {
		t.Errorf("unexpected PGN:\n%s", pgn)
	}
}

func TestPGNRejectsBadMove(t *testing.T) {
	g := New(board.NewPosition())
	g.Moves = []string{"e2e5"}
	if _, err := PGN(g); err == nil {
		t.Error("PGN accepted an illegal move")
	}
}

func TestReplayAndUndo(t *testing.T) {
	pos := board.NewPosition()
	g := New(pos)
	play(t, pos, g, "e2e4", "d7d5", "e4d5")

	got, err := g.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if got.FEN() != pos.FEN() {
		t.Errorf("Replay FEN = %s, want %s", got.FEN(), pos.FEN())
	}

	g.Undo()
	if len(g.Moves) != 2 {
		t.Errorf("moves after Undo = %v", g.Moves)
	}

	// A record taken mid-game keeps the moves already played.
	mid := New(pos)
	if len(mid.Moves) != 3 || mid.ID == g.ID {
		t.Errorf("mid-game record = %+v", mid)
	}
}
