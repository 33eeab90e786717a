package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/hailam/chessplay/internal/board"
)

// SearchInfo contains information about a finished search.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Move  board.Move
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 1 ply
	Medium                   // 2 ply
	Hard                     // 3 ply
)

// DifficultyDepth maps difficulty to search depth.
var DifficultyDepth = map[Difficulty]int{
	Easy:   1,
	Medium: 2,
	Hard:   3,
}

// String returns the difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseDifficulty parses a difficulty name as produced by String.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(s) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// Engine is the chess AI engine.
type Engine struct {
	searcher   *Searcher
	difficulty Difficulty
	depth      int // overrides difficulty when > 0
	log        logr.Logger

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine at Medium difficulty.
func NewEngine(opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		searcher: &Searcher{
			rng:     o.rng,
			shuffle: !o.noShuffle,
			log:     o.log,
		},
		difficulty: Medium,
		log:        o.log,
	}
}

// SetDifficulty sets the engine difficulty and clears any explicit depth.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
	e.depth = 0
}

// Difficulty returns the engine difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// SetDepth fixes the search depth. Zero falls back to the difficulty table.
func (e *Engine) SetDepth(depth int) {
	if depth < 0 {
		depth = 0
	}
	e.depth = depth
}

// Depth returns the depth the next search will use.
func (e *Engine) Depth() int {
	if e.depth > 0 {
		return e.depth
	}
	if d, ok := DifficultyDepth[e.difficulty]; ok {
		return d
	}
	return DifficultyDepth[Medium]
}

// Search finds the best move for the given position at the engine's depth.
func (e *Engine) Search(pos *board.Position) Result {
	return e.FindBestMove(pos, pos.LegalMoves(), e.Depth())
}

// FindBestMove searches moves to depth. If the search finds nothing while
// moves is non-empty, a random legal move is returned instead with
// Found == false.
func (e *Engine) FindBestMove(pos *board.Position, moves []board.Move, depth int) Result {
	start := time.Now()
	res := e.searcher.FindBestMove(pos, moves, depth)

	if !res.Found && len(moves) > 0 {
		res.Move = e.searcher.FindRandomMove(moves)
		e.log.Info("search returned no move, playing random move", "move", res.Move.String())
	}

	elapsed := time.Since(start)
	e.log.V(1).Info("nodes evaluated", "nodes", res.Nodes, "depth", depth, "elapsed", elapsed)

	if e.OnInfo != nil {
		e.OnInfo(SearchInfo{
			Depth: depth,
			Score: res.Score,
			Nodes: res.Nodes,
			Time:  elapsed,
			Move:  res.Move,
		})
	}
	return res
}

// RandomMove picks a legal move uniformly at random.
func (e *Engine) RandomMove(moves []board.Move) board.Move {
	return e.searcher.FindRandomMove(moves)
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// IsMateScore reports whether score encodes a checkmate.
func IsMateScore(score int) bool {
	return score >= CheckmateScore || score <= -CheckmateScore
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score >= CheckmateScore {
		return "Mate"
	}
	if score <= -CheckmateScore {
		return "Mated"
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	cp := strconv.Itoa(centipawns)
	if centipawns < 10 {
		cp = "0" + cp
	}
	return sign + strconv.Itoa(pawns) + "." + cp
}
