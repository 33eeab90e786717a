package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/hailam/chessplay/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	depth      = flag.Int("depth", 0, "search depth (overrides the saved difficulty)")
	dbDir      = flag.String("db", "", "database directory (default: user data directory)")
	noDB       = flag.Bool("nodb", false, "do not persist preferences or games")
	verbosity  = flag.Int("v", 0, "log verbosity")
)

func main() {
	flag.Parse()

	// Diagnostics go to stderr; stdout belongs to the protocol.
	stdr.SetVerbosity(*verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("chessplay")

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		logger.Info("CPU profiling enabled", "path", profilePath)
	}

	store := openStorage(logger)
	if store != nil {
		defer store.Close()
	}

	eng := engine.NewEngine(engine.WithLogger(logger.WithName("engine")))
	protocol := uci.New(eng, store, logger.WithName("uci"))

	prefs := protocol.Preferences()
	prefs.Apply(eng)
	if *depth > 0 {
		eng.SetDepth(*depth)
	}
	logger.V(1).Info("engine ready", "difficulty", eng.Difficulty(), "depth", eng.Depth())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		// A second interrupt kills the process while shutting down.
		<-ctx.Done()
		stop()
	}()

	if err := protocol.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error(err, "protocol loop failed")
	}
}

// openStorage opens the preferences database. Failure is not fatal: the
// engine runs without persistence.
func openStorage(logger logr.Logger) *storage.Storage {
	if *noDB {
		return nil
	}

	dbLog := logger.WithName("storage")
	var (
		store *storage.Storage
		err   error
	)
	if *dbDir != "" {
		store, err = storage.Open(*dbDir, dbLog)
	} else {
		store, err = storage.NewStorage(dbLog)
	}
	if err != nil {
		logger.Error(err, "storage unavailable, running without persistence")
		return nil
	}

	if first, err := store.IsFirstLaunch(); err == nil && first {
		logger.Info("first launch, using default preferences")
		if err := store.MarkFirstLaunchComplete(); err != nil {
			logger.Error(err, "marking first launch")
		}
	}
	return store
}
