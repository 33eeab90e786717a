// Package record keeps the move record of a game and renders it as text or
// PGN.
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"

	"github.com/hailam/chessplay/internal/board"
)

// Game is the record of one game.
type Game struct {
	ID       uuid.UUID `json:"id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitempty"`

	// StartFEN is empty for the standard starting position.
	StartFEN string `json:"start_fen,omitempty"`

	// Moves in UCI form ("e2e4", "a7a8q").
	Moves  []string `json:"moves"`
	Result string   `json:"result"`

	// Nodes is the total number of nodes the engine searched in this game.
	Nodes uint64 `json:"nodes"`
}

// New starts a record for the game pos belongs to, including any moves
// already in its log.
func New(pos *board.Position) *Game {
	g := &Game{
		ID:      uuid.New(),
		Started: time.Now(),
		Result:  board.Ongoing.Result(),
	}

	start := pos.Copy()
	for start.Ply() > 0 {
		start.Undo()
	}
	if fen := start.FEN(); fen != board.StartFEN {
		g.StartFEN = fen
	}
	for _, m := range pos.MoveLog() {
		g.Moves = append(g.Moves, m.UCI())
	}
	return g
}

// Add appends a played move.
func (g *Game) Add(m board.Move) {
	g.Moves = append(g.Moves, m.UCI())
}

// Undo drops the last recorded move.
func (g *Game) Undo() {
	if len(g.Moves) > 0 {
		g.Moves = g.Moves[:len(g.Moves)-1]
	}
}

// Finish stamps the result. An ongoing outcome leaves the game open.
func (g *Game) Finish(o board.Outcome) {
	g.Result = o.Result()
	if o != board.Ongoing {
		g.Finished = time.Now()
	}
}

// Done reports whether the game has a result.
func (g *Game) Done() bool {
	return g.Result != "" && g.Result != board.Ongoing.Result()
}

// start returns the initial position of the record.
func (g *Game) start() (*board.Position, error) {
	if g.StartFEN == "" {
		return board.NewPosition(), nil
	}
	return board.ParseFEN(g.StartFEN)
}

// Replay rebuilds the final position by playing the recorded moves.
func (g *Game) Replay() (*board.Position, error) {
	pos, err := g.start()
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", g.ID, err)
	}
	for i, s := range g.Moves {
		m, err := board.ParseMove(s, pos.LegalMoves())
		if err != nil {
			return nil, fmt.Errorf("record %s: move %d: %w", g.ID, i+1, err)
		}
		pos.Apply(m)
	}
	return pos, nil
}

// MoveText renders the record as numbered move pairs, "1. e2e4 e7e5 2. ...".
func (g *Game) MoveText() string {
	pos, err := g.start()
	if err != nil {
		return strings.Join(g.Moves, " ")
	}
	return MoveText(g.Moves, pos.FullMoveNumber, pos.SideToMove == board.Black)
}

// MoveText numbers moves starting at fullMove. When blackFirst is set the
// first move is Black's and is written "N... move".
func MoveText(moves []string, fullMove int, blackFirst bool) string {
	var sb strings.Builder
	n := fullMove
	white := !blackFirst

	for i, m := range moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch {
		case white:
			sb.WriteString(strconv.Itoa(n))
			sb.WriteString(". ")
		case i == 0:
			sb.WriteString(strconv.Itoa(n))
			sb.WriteString("... ")
		}
		sb.WriteString(m)
		if !white {
			n++
		}
		white = !white
	}
	return sb.String()
}

// PGN renders g in PGN with standard algebraic notation.
func PGN(g *Game) (string, error) {
	var opts []func(*chess.Game)
	if g.StartFEN != "" {
		fen, err := chess.FEN(g.StartFEN)
		if err != nil {
			return "", fmt.Errorf("record %s: start position: %w", g.ID, err)
		}
		opts = append(opts, fen)
	}

	cg := chess.NewGame(opts...)
	for i, s := range g.Moves {
		m, err := chess.UCINotation{}.Decode(cg.Position(), s)
		if err != nil {
			return "", fmt.Errorf("record %s: move %d %q: %w", g.ID, i+1, s, err)
		}
		if err := cg.Move(m); err != nil {
			return "", fmt.Errorf("record %s: move %d %q: %w", g.ID, i+1, s, err)
		}
	}

	cg.AddTagPair("Event", "chessplay game")
	cg.AddTagPair("Site", g.ID.String())
	cg.AddTagPair("Date", g.Started.Format("2006.01.02"))
	cg.AddTagPair("White", "?")
	cg.AddTagPair("Black", "?")
	cg.AddTagPair("Result", g.Result)
	if g.StartFEN != "" {
		cg.AddTagPair("SetUp", "1")
		cg.AddTagPair("FEN", g.StartFEN)
	}

	return cg.String(), nil
}
