package engine

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
)

// ErrTaskCanceled is returned by Wait after Cancel.
var ErrTaskCanceled = errors.New("engine: search task canceled")

// Task is a search running on its own goroutine against a private copy of
// the position. The search cannot be interrupted; canceling only discards
// its result.
type Task struct {
	result   chan Result
	res      Result
	err      error
	done     chan struct{}
	canceled atomic.Bool
}

// Submit starts a search of moves on a snapshot of pos. Neither pos nor
// moves is touched after Submit returns. If ctx is already done when the
// goroutine starts, no search is run and Wait reports ctx.Err().
func Submit(ctx context.Context, eng *Engine, pos *board.Position, moves []board.Move, depth int) *Task {
	snapshot := pos.Copy()
	ours := slices.Clone(moves)

	t := &Task{
		result: make(chan Result, 1),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		if err := ctx.Err(); err != nil {
			t.err = err
			return
		}
		res := eng.FindBestMove(snapshot, ours, depth)
		t.res = res
		t.result <- res // Always send, even if no move was found
	}()

	return t
}

// Result returns the channel the search result is delivered on. It receives
// at most one value.
func (t *Task) Result() <-chan Result {
	return t.result
}

// Done is closed when the search goroutine exits.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the search finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return Result{Move: board.NoMove}, ctx.Err()
	}
	if t.canceled.Load() {
		return Result{Move: board.NoMove}, ErrTaskCanceled
	}
	if t.err != nil {
		return Result{Move: board.NoMove}, t.err
	}
	return t.res, nil
}

// Cancel drops the task. The goroutine still runs to completion but its
// result is discarded.
func (t *Task) Cancel() {
	t.canceled.Store(true)
}

// Canceled reports whether Cancel was called.
func (t *Task) Canceled() bool {
	return t.canceled.Load()
}
