package engine

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessplay/internal/board"
)

// Perft counts the leaf nodes of the legal move tree to the given depth.
// This is the standard way to verify move generation correctness.
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		pos.Apply(m)
		nodes += Perft(pos, depth-1)
		pos.Undo()
	}
	return nodes
}

// DivideEntry is the perft count below one root move.
type DivideEntry struct {
	Move  board.Move
	Nodes uint64
}

// PerftDivide runs perft below each root move in parallel, one goroutine per
// move on its own copy of pos. Entries are sorted by move notation.
func PerftDivide(ctx context.Context, pos *board.Position, depth int) ([]DivideEntry, error) {
	if depth < 1 {
		return nil, nil
	}

	moves := pos.LegalMoves()
	entries := make([]DivideEntry, len(moves))

	g, ctx := errgroup.WithContext(ctx)
	for i, m := range moves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cp := pos.Copy()
			cp.Apply(m)
			entries[i] = DivideEntry{Move: m, Nodes: Perft(cp, depth-1)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Move.UCI() < entries[b].Move.UCI()
	})
	return entries, nil
}

// DivideTotal sums the node counts of entries.
func DivideTotal(entries []DivideEntry) uint64 {
	var total uint64
	for _, e := range entries {
		total += e.Nodes
	}
	return total
}
