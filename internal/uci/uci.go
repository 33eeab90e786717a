// Package uci drives the engine over a line-based text protocol modelled on
// the Universal Chess Interface.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/record"
	"github.com/hailam/chessplay/internal/storage"
)

const maxDepth = 6

// search is a task in flight. When apply is set the result is played on the
// current position as the engine's reply.
type search struct {
	task  *engine.Task
	apply bool
}

// UCI implements the protocol handler.
type UCI struct {
	engine *engine.Engine
	store  *storage.Storage // nil when persistence is disabled
	prefs  *storage.Preferences
	log    logr.Logger

	in  io.Reader
	out io.Writer

	// mu guards everything below and serializes writes to out, since
	// search results arrive on other goroutines.
	mu       sync.Mutex
	position *board.Position
	game     *record.Game
	current  *search
	wg       sync.WaitGroup
}

// New creates a protocol handler reading stdin and writing stdout. store
// may be nil.
func New(eng *engine.Engine, store *storage.Storage, log logr.Logger) *UCI {
	prefs := storage.DefaultPreferences()
	if store != nil {
		p, err := store.LoadPreferences()
		if err != nil {
			log.Error(err, "loading preferences, using defaults")
		} else {
			prefs = p
		}
	}

	pos := board.NewPosition()
	return &UCI{
		engine:   eng,
		store:    store,
		prefs:    prefs,
		log:      log,
		in:       os.Stdin,
		out:      os.Stdout,
		position: pos,
		game:     record.New(pos),
	}
}

// SetIO replaces the input and output streams.
func (u *UCI) SetIO(in io.Reader, out io.Writer) {
	u.in = in
	u.out = out
}

// Preferences returns the preferences in effect.
func (u *UCI) Preferences() storage.Preferences {
	u.mu.Lock()
	defer u.mu.Unlock()
	return *u.prefs
}

// Run reads commands until "quit", end of input or ctx is done. At end of
// input a running search is allowed to finish and report its move; "quit"
// and ctx abandon it.
func (u *UCI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines, readErr := u.readLines(ctx)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				// End of input.
				u.wg.Wait()
				break loop
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			parts := strings.Fields(line)
			if !u.dispatch(ctx, parts[0], parts[1:]) {
				cancel()
				u.shutdown()
				return nil
			}
		}
	}

	err := ctx.Err()
	u.shutdown()
	select {
	case rerr := <-readErr:
		return fmt.Errorf("uci: reading input: %w", rerr)
	default:
	}
	return err
}

// readLines scans input on its own goroutine so that Run can stop on ctx
// while no line is pending. The goroutine stays blocked in a read that never
// returns; for stdin it ends with the process.
func (u *UCI) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(u.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
		}
	}()
	return lines, readErr
}

// dispatch runs one command and reports whether to keep reading.
func (u *UCI) dispatch(ctx context.Context, cmd string, args []string) bool {
	u.log.V(1).Info("command", "cmd", cmd, "args", args)

	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.handleNewGame()
	case "position":
		u.handlePosition(args)
	case "go":
		u.handleGo(ctx, args)
	case "stop":
		u.handleStop()
	case "move":
		u.handleMove(ctx, args)
	case "undo":
		u.handleUndo()
	case "setoption":
		u.handleSetOption(args)
	case "export":
		u.handleExport()
	case "quit":
		return false
	// Debug commands
	case "d":
		u.handleDisplay()
	case "moves":
		u.handleMoves()
	case "eval":
		u.handleEval()
	case "perft":
		u.handlePerft(ctx, args)
	default:
		u.println("info string Unknown command: " + cmd)
	}
	return true
}

func (u *UCI) println(s string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.printlnLocked(s)
}

func (u *UCI) printlnLocked(s string) {
	fmt.Fprintln(u.out, s)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.printlnLocked("id name ChessPlay")
	u.printlnLocked("id author ChessPlay Team")
	u.printlnLocked("")
	u.printlnLocked(fmt.Sprintf("option name Depth type spin default %d min 1 max %d", u.engine.Depth(), maxDepth))
	u.printlnLocked(fmt.Sprintf("option name Difficulty type combo default %s var easy var medium var hard", u.engine.Difficulty()))
	u.printlnLocked(fmt.Sprintf("option name EngineWhite type check default %t", u.prefs.EngineWhite))
	u.printlnLocked(fmt.Sprintf("option name EngineBlack type check default %t", u.prefs.EngineBlack))
	u.printlnLocked("uciok")
}

// handleNewGame files the current game and resets to the starting position.
func (u *UCI) handleNewGame() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.dropSearchLocked()
	u.saveGameLocked()
	u.position = board.NewPosition()
	u.game = record.New(u.position)
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.println("info string Invalid FEN: " + err.Error())
			return
		}
	default:
		u.println("info string Invalid position command")
		return
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			m, err := board.ParseMove(s, pos.LegalMoves())
			if err != nil {
				u.println("info string Invalid move: " + s)
				break
			}
			pos.Apply(m)
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.dropSearchLocked()
	u.setPositionLocked(pos)
}

// setPositionLocked installs pos, keeping the game record's identity when
// the new position continues the same game.
func (u *UCI) setPositionLocked(pos *board.Position) {
	rec := record.New(pos)
	if u.game != nil && rec.StartFEN == u.game.StartFEN && !u.game.Done() {
		rec.ID = u.game.ID
		rec.Started = u.game.Started
		rec.Nodes = u.game.Nodes
	}
	u.position = pos
	u.game = rec
	u.reportOutcomeLocked()
}

// handleGo starts a search of the current position.
// Formats:
//   - go
//   - go depth <n>
func (u *UCI) handleGo(ctx context.Context, args []string) {
	depth := 0
	for i := 0; i < len(args); i++ {
		if args[i] == "depth" && i+1 < len(args) {
			depth, _ = strconv.Atoi(args[i+1])
			i++
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.startSearchLocked(ctx, depth, false)
}

// startSearchLocked submits a search of the current position. A depth of
// zero uses the engine's configured depth.
func (u *UCI) startSearchLocked(ctx context.Context, depth int, apply bool) {
	if u.current != nil {
		u.printlnLocked("info string Search already running")
		return
	}
	if depth <= 0 {
		depth = u.engine.Depth()
	}
	if depth > maxDepth {
		depth = maxDepth
	}

	moves := u.position.LegalMoves()
	if len(moves) == 0 {
		u.printlnLocked("info string " + u.position.Outcome().String())
		u.printlnLocked("bestmove " + board.NoMove.String())
		return
	}

	s := &search{
		task:  engine.Submit(ctx, u.engine, u.position, moves, depth),
		apply: apply,
	}
	u.current = s
	start := time.Now()

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		res, err := s.task.Wait(ctx)

		u.mu.Lock()
		defer u.mu.Unlock()
		if u.current != s {
			// Dropped by stop or a position change.
			return
		}
		u.current = nil
		if errors.Is(err, context.Canceled) {
			u.log.V(1).Info("search abandoned")
			return
		}
		if err != nil {
			u.log.Error(err, "search failed")
			return
		}
		u.finishSearchLocked(s, res, depth, time.Since(start))
	}()
}

// finishSearchLocked reports a completed search and, for engine replies,
// plays the move.
func (u *UCI) finishSearchLocked(s *search, res engine.Result, depth int, elapsed time.Duration) {
	u.game.Nodes += res.Nodes

	u.printlnLocked(fmt.Sprintf("info depth %d score %s nodes %d time %d",
		depth, scoreString(res.Score), res.Nodes, elapsed.Milliseconds()))
	u.printlnLocked(fmt.Sprintf("info string %s nodes evaluated", humanize.Comma(int64(res.Nodes))))
	u.printlnLocked("bestmove " + res.Move.UCI())

	if s.apply && !res.Move.IsNone() {
		u.playLocked(res.Move)
	}
}

// scoreString formats a side-to-move score for an info line. Mate scores
// carry no distance, so they are reported in centipawns too.
func scoreString(score int) string {
	return "cp " + strconv.Itoa(score)
}

// handleStop drops the running search and answers at once with a random
// legal move.
func (u *UCI) handleStop() {
	u.mu.Lock()
	defer u.mu.Unlock()

	s := u.current
	if s == nil {
		return
	}
	u.dropSearchLocked()

	m := u.engine.RandomMove(u.position.LegalMoves())
	u.printlnLocked("bestmove " + m.UCI())
	if s.apply && !m.IsNone() {
		u.playLocked(m)
	}
}

// dropSearchLocked cancels the running search, if any. Its goroutine keeps
// running but its result is ignored.
func (u *UCI) dropSearchLocked() {
	if u.current == nil {
		return
	}
	u.current.task.Cancel()
	u.current = nil
	u.log.V(1).Info("search dropped")
}

// handleMove plays a move for the side to move and lets the engine reply
// if it plays the other side.
func (u *UCI) handleMove(ctx context.Context, args []string) {
	if len(args) != 1 {
		u.println("info string Usage: move <from><to>")
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.dropSearchLocked()
	m, err := board.ParseMove(args[0], u.position.LegalMoves())
	if err != nil {
		u.printlnLocked("info string " + err.Error())
		return
	}
	u.playLocked(m)

	if u.enginePlaysLocked(u.position.SideToMove) && u.game != nil && !u.game.Done() {
		u.startSearchLocked(ctx, 0, true)
	}
}

// playLocked applies m to the current game.
func (u *UCI) playLocked(m board.Move) {
	u.position.Apply(m)
	u.game.Add(m)
	u.reportOutcomeLocked()
}

// reportOutcomeLocked prints the end-of-game message and files the game
// when the position is terminal.
func (u *UCI) reportOutcomeLocked() {
	u.position.LegalMoves()
	o := u.position.Outcome()
	if o == board.Ongoing {
		return
	}
	u.printlnLocked("info string " + o.String())
	if !u.game.Done() {
		u.game.Finish(o)
		u.saveGameLocked()
	}
}

func (u *UCI) enginePlaysLocked(c board.Color) bool {
	if c == board.White {
		return u.prefs.EngineWhite
	}
	return u.prefs.EngineBlack
}

// saveGameLocked stores the current game if it has any moves. Saving the
// same game again replaces its record and its share of the statistics.
func (u *UCI) saveGameLocked() {
	if u.store == nil || u.game == nil || len(u.game.Moves) == 0 {
		return
	}
	if err := u.store.RecordGame(u.game); err != nil {
		u.log.Error(err, "saving game", "id", u.game.ID)
	}
}

// handleUndo takes back the last move.
func (u *UCI) handleUndo() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.dropSearchLocked()
	if u.position.Ply() == 0 {
		u.printlnLocked("info string Nothing to undo")
		return
	}
	u.position.Undo()
	u.game.Undo()
	u.game.Result = board.Ongoing.Result()
	u.game.Finished = time.Time{}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	switch strings.ToLower(name) {
	case "depth":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 1 || depth > maxDepth {
			u.printlnLocked(fmt.Sprintf("info string Depth must be 1-%d", maxDepth))
			return
		}
		u.engine.SetDepth(depth)
		u.prefs.Depth = depth
	case "difficulty":
		d, err := engine.ParseDifficulty(value)
		if err != nil {
			u.printlnLocked("info string " + err.Error())
			return
		}
		u.engine.SetDifficulty(d)
		u.prefs.Difficulty = d
		u.prefs.Depth = 0
	case "enginewhite":
		u.prefs.EngineWhite = strings.ToLower(value) == "true"
	case "engineblack":
		u.prefs.EngineBlack = strings.ToLower(value) == "true"
	default:
		u.printlnLocked("info string Unknown option: " + name)
		return
	}

	if u.store != nil {
		if err := u.store.SavePreferences(u.prefs); err != nil {
			u.log.Error(err, "saving preferences")
		}
	}
}

// handleExport prints the current game as PGN.
func (u *UCI) handleExport() {
	u.mu.Lock()
	defer u.mu.Unlock()

	pgn, err := record.PGN(u.game)
	if err != nil {
		u.printlnLocked("info string Export failed: " + err.Error())
		return
	}
	u.printlnLocked(pgn)
}

// handleDisplay prints the board, the move list and the game state.
func (u *UCI) handleDisplay() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.printlnLocked(u.position.String())
	if text := u.game.MoveText(); text != "" {
		u.printlnLocked("Moves: " + text)
	}
	u.position.LegalMoves()
	if u.position.InCheck() {
		u.printlnLocked("Check")
	}
	if o := u.position.Outcome(); o != board.Ongoing {
		u.printlnLocked(o.String())
	}
}

// handleMoves lists the legal moves.
func (u *UCI) handleMoves() {
	u.mu.Lock()
	defer u.mu.Unlock()

	moves := u.position.LegalMoves()
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.UCI()
	}
	u.printlnLocked(fmt.Sprintf("info string %d moves: %s", len(moves), strings.Join(names, " ")))
}

// handleEval prints the static evaluation from White's point of view.
func (u *UCI) handleEval() {
	u.mu.Lock()
	defer u.mu.Unlock()

	score := u.engine.Evaluate(u.position)
	u.printlnLocked(fmt.Sprintf("info string eval %d (%s)", score, engine.ScoreToString(score)))
}

// handlePerft runs a perft test, split by root move.
func (u *UCI) handlePerft(ctx context.Context, args []string) {
	depth := 3
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	u.mu.Lock()
	pos := u.position.Copy()
	u.mu.Unlock()

	start := time.Now()
	entries, err := engine.PerftDivide(ctx, pos, depth)
	if err != nil {
		u.println("info string perft: " + err.Error())
		return
	}
	elapsed := time.Since(start)
	nodes := engine.DivideTotal(entries)

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, e := range entries {
		u.printlnLocked(fmt.Sprintf("%s: %d", e.Move.UCI(), e.Nodes))
	}
	u.printlnLocked("")
	u.printlnLocked("Nodes: " + humanize.Comma(int64(nodes)))
	u.printlnLocked(fmt.Sprintf("Time: %v", elapsed))
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		u.printlnLocked("NPS: " + humanize.Comma(int64(nps)))
	}
}

// shutdown drops any search, files the current game and waits for the
// search waiters to exit. Abandoned searches are not waited for.
func (u *UCI) shutdown() {
	u.mu.Lock()
	u.dropSearchLocked()
	u.saveGameLocked()
	u.mu.Unlock()

	u.wg.Wait()
}
