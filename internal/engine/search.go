package engine

import (
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/hailam/chessplay/internal/board"
)

// Infinity bounds the alpha-beta window. It exceeds any reachable score.
const Infinity = 1 << 30

// Result is the outcome of one search.
type Result struct {
	Move  board.Move
	Found bool // false when the search had no move to return
	Score int  // from the perspective of the side to move
	Nodes uint64
}

// Option configures a Searcher or Engine.
type Option func(*options)

type options struct {
	rng       *rand.Rand
	noShuffle bool
	log       logr.Logger
}

// WithSeed makes root move shuffling reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewSource(seed)) }
}

// WithoutShuffle searches root moves in the order given.
func WithoutShuffle() Option {
	return func(o *options) { o.noShuffle = true }
}

// WithLogger sets the logger for search diagnostics.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Searcher performs fixed-depth negamax search with alpha-beta pruning.
// A Searcher may be shared between goroutines as long as each search runs
// on its own Position.
type Searcher struct {
	mu      sync.Mutex // guards rng
	rng     *rand.Rand
	shuffle bool
	log     logr.Logger
}

// NewSearcher creates a new searcher.
func NewSearcher(opts ...Option) *Searcher {
	o := buildOptions(opts)
	return &Searcher{
		rng:     o.rng,
		shuffle: !o.noShuffle,
		log:     o.log,
	}
}

// searchState is the per-call accumulator.
type searchState struct {
	nodes uint64
}

// FindBestMove searches moves, the legal moves of pos, to the given depth
// and returns the best one for the side to move. pos is mutated during the
// search and restored before returning. With no moves the result has
// Found == false.
func (s *Searcher) FindBestMove(pos *board.Position, moves []board.Move, depth int) Result {
	if len(moves) == 0 {
		return Result{Move: board.NoMove}
	}
	if depth < 1 {
		depth = 1
	}

	root := slices.Clone(moves)
	if s.shuffle {
		s.mu.Lock()
		s.rng.Shuffle(len(root), func(i, j int) { root[i], root[j] = root[j], root[i] })
		s.mu.Unlock()
	}

	st := &searchState{nodes: 1}
	sign := pos.SideToMove.Sign()
	alpha, beta := -Infinity, Infinity
	best := Result{Move: board.NoMove, Score: -Infinity}

	for _, m := range root {
		pos.Apply(m)
		score := -st.negamax(pos, depth-1, -beta, -alpha, -sign)
		pos.Undo()

		if score > best.Score {
			best.Score = score
			best.Move = m
			best.Found = true
		}
		if best.Score > alpha {
			alpha = best.Score
		}
	}

	best.Nodes = st.nodes
	s.log.V(1).Info("search finished", "depth", depth, "move", best.Move.String(), "score", best.Score, "nodes", st.nodes)
	return best
}

// negamax returns the score of pos from the point of view of the side whose
// sign is +1 in sign.
func (st *searchState) negamax(pos *board.Position, depth, alpha, beta, sign int) int {
	st.nodes++

	if depth == 0 {
		return sign * Evaluate(pos)
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		// Terminal flags were just refreshed.
		return sign * Evaluate(pos)
	}

	best := -Infinity
	for _, m := range moves {
		pos.Apply(m)
		score := -st.negamax(pos, depth-1, -beta, -alpha, -sign)
		pos.Undo()

		if score > best {
			best = score
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

// FindRandomMove picks one of s's moves uniformly at random.
func (s *Searcher) FindRandomMove(moves []board.Move) board.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FindRandomMove(s.rng, moves)
}

// FindRandomMove picks one of moves uniformly at random using rng. It
// returns board.NoMove for an empty list.
func FindRandomMove(rng *rand.Rand, moves []board.Move) board.Move {
	if len(moves) == 0 {
		return board.NoMove
	}
	return moves[rng.Intn(len(moves))]
}
