// Command perft counts move-tree nodes from a position to check the move
// generator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
)

var (
	fen    = flag.String("fen", board.StartFEN, "position to count from")
	depth  = flag.Int("depth", 4, "depth in plies")
	divide = flag.Bool("divide", false, "print the count below each root move")
)

func main() {
	flag.Parse()

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatalf("invalid FEN: %v", err)
	}
	if *depth < 1 {
		log.Fatalf("depth must be at least 1, got %d", *depth)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	entries, err := engine.PerftDivide(ctx, pos, *depth)
	if err != nil {
		log.Fatalf("perft: %v", err)
	}
	elapsed := time.Since(start)
	nodes := engine.DivideTotal(entries)

	if *divide {
		for _, e := range entries {
			fmt.Printf("%s: %d\n", e.Move.UCI(), e.Nodes)
		}
		fmt.Println()
	}

	fmt.Printf("Depth: %d\n", *depth)
	fmt.Printf("Nodes: %s\n", humanize.Comma(int64(nodes)))
	fmt.Printf("Time:  %v\n", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		fmt.Printf("NPS:   %s\n", humanize.Comma(int64(float64(nodes)/elapsed.Seconds())))
	}
}
