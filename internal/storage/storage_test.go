package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/record"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory(logr.Discard())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func finishedGame(t *testing.T, moves ...string) *record.Game {
	t.Helper()
	pos := board.NewPosition()
	g := record.New(pos)
	for _, str := range moves {
		m, err := board.ParseMove(str, pos.LegalMoves())
		if err != nil {
			t.Fatalf("%s: %v", str, err)
		}
		pos.Apply(m)
		g.Add(m)
	}
	pos.LegalMoves()
	g.Finish(pos.Outcome())
	return g
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		if prefs.Difficulty != engine.Medium {
			t.Errorf("Expected medium difficulty")
		}
		if prefs.Depth != 0 {
			t.Errorf("Expected no explicit depth")
		}
		if prefs.EngineWhite || !prefs.EngineBlack {
			t.Errorf("Expected engine to play Black by default")
		}
	})

	t.Run("NewStats", func(t *testing.T) {
		stats := NewStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.DecisiveRate() != 0 {
			t.Errorf("Expected 0 decisive rate")
		}
	})

	t.Run("DecisiveRate", func(t *testing.T) {
		stats := &Stats{
			GamesPlayed: 10,
			WhiteWins:   3,
			BlackWins:   2,
			Draws:       5,
		}
		rate := stats.DecisiveRate()
		if rate != 50 {
			t.Errorf("Expected 50%% decisive rate, got %.2f%%", rate)
		}
	})
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("IsFirstLaunch = %v, %v; want true", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatalf("MarkFirstLaunchComplete: %v", err)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Error("IsFirstLaunch still true")
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTest(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if prefs.Difficulty != engine.Medium {
		t.Errorf("missing preferences should load defaults, got %+v", prefs)
	}

	prefs.Depth = 3
	prefs.Difficulty = engine.Hard
	prefs.EngineWhite = true
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if got.Depth != 3 || got.Difficulty != engine.Hard || !got.EngineWhite {
		t.Errorf("loaded %+v", got)
	}

	eng := engine.NewEngine()
	got.Apply(eng)
	if eng.Depth() != 3 || eng.Difficulty() != engine.Hard {
		t.Errorf("engine depth %d difficulty %v", eng.Depth(), eng.Difficulty())
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	mate := finishedGame(t, "f2f3", "e7e5", "g2g4", "d8h4")
	mate.Nodes = 1234
	ongoing := finishedGame(t, "e2e4")

	for _, g := range []*record.Game{mate, ongoing} {
		if err := s.RecordGame(g); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 2 || stats.BlackWins != 1 || stats.Unfinished != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalMoves != 5 || stats.TotalNodes != 1234 {
		t.Errorf("totals = %d moves, %d nodes", stats.TotalMoves, stats.TotalNodes)
	}

	got, err := s.LoadGame(mate.ID)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if got.Result != "0-1" || len(got.Moves) != 4 || got.Moves[3] != "d8h4" {
		t.Errorf("loaded %+v", got)
	}
	if !got.Started.Equal(mate.Started) {
		t.Errorf("started %v, want %v", got.Started, mate.Started)
	}
}

func TestRecordGameAgainReplacesStats(t *testing.T) {
	s := openTest(t)

	g := finishedGame(t, "f2f3", "e7e5", "g2g4", "d8h4")
	if err := s.RecordGame(g); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}

	// Take back the mate and leave the game open.
	g.Undo()
	g.Result = board.Ongoing.Result()
	g.Finished = time.Time{}
	if err := s.RecordGame(g); err != nil {
		t.Fatalf("RecordGame again: %v", err)
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 1 || stats.BlackWins != 0 || stats.Unfinished != 1 || stats.TotalMoves != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalPlayTime != 0 {
		t.Errorf("play time = %v, want 0 for an open game", stats.TotalPlayTime)
	}
}

func TestListAndDeleteGames(t *testing.T) {
	s := openTest(t)

	older := finishedGame(t, "e2e4")
	older.Started = time.Now().Add(-time.Hour)
	newer := finishedGame(t, "d2d4")

	for _, g := range []*record.Game{newer, older} {
		if err := s.SaveGame(g); err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
	}

	games, err := s.ListGames()
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 2 || games[0].ID != older.ID || games[1].ID != newer.ID {
		t.Fatalf("ListGames order wrong: %v", games)
	}

	if err := s.DeleteGame(older.ID); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if _, err := s.LoadGame(older.ID); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("LoadGame after delete = %v, want ErrGameNotFound", err)
	}
	if _, err := s.LoadGame(uuid.New()); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("LoadGame of unknown ID = %v", err)
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, logr.Discard())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	prefs := DefaultPreferences()
	prefs.Depth = 2
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir, logr.Discard())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.LoadPreferences()
	if err != nil || got.Depth != 2 {
		t.Errorf("after reopen: %+v, %v", got, err)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv(HomeEnv, "")
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("DataDir returned empty path")
	}

	dbDir, err := DatabaseDir()
	if err != nil {
		t.Fatalf("DatabaseDir failed: %v", err)
	}
	if filepath.Dir(dbDir) != dataDir {
		t.Errorf("database dir %s is not inside %s", dbDir, dataDir)
	}

	// Verify directory exists
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		t.Errorf("Database directory was not created: %s", dbDir)
	}

	t.Logf("Data directory: %s", dataDir)
}

func TestResolveDataDir(t *testing.T) {
	home := filepath.Join("/", "home", "player")

	tests := []struct {
		name string
		goos string
		vars map[string]string
		want string
	}{
		{"override wins", "linux", map[string]string{HomeEnv: "/srv/chess", "XDG_DATA_HOME": "/xdg"}, "/srv/chess"},
		{"xdg", "linux", map[string]string{"XDG_DATA_HOME": "/xdg"}, filepath.Join("/xdg", appName)},
		{"linux default", "linux", nil, filepath.Join(home, ".local", "share", appName)},
		{"macos", "darwin", nil, filepath.Join(home, "Library", "Application Support", appName)},
		{"windows appdata", "windows", map[string]string{"APPDATA": "/appdata"}, filepath.Join("/appdata", appName)},
		{"windows default", "windows", nil, filepath.Join(home, "AppData", "Roaming", appName)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := env{
				goos:   tc.goos,
				getenv: func(k string) string { return tc.vars[k] },
				home:   func() (string, error) { return home, nil },
			}
			got, err := e.dataDir()
			if err != nil {
				t.Fatalf("dataDir: %v", err)
			}
			if got != tc.want {
				t.Errorf("dataDir = %s, want %s", got, tc.want)
			}
		})
	}

	t.Run("no home", func(t *testing.T) {
		e := env{
			goos:   "linux",
			getenv: func(string) string { return "" },
			home:   func() (string, error) { return "", errors.New("unset") },
		}
		if _, err := e.dataDir(); err == nil {
			t.Error("expected an error without a home directory")
		}
	})
}
