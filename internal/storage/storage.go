package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/record"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
	gamePrefix     = "game/"
)

// ErrGameNotFound is returned when no record exists for an ID.
var ErrGameNotFound = errors.New("storage: game not found")

// Preferences stores engine settings between sessions.
type Preferences struct {
	// Depth overrides the difficulty table when > 0.
	Depth      int               `json:"depth"`
	Difficulty engine.Difficulty `json:"difficulty"`

	// Sides the engine plays when driving a game on its own.
	EngineWhite bool `json:"engine_white"`
	EngineBlack bool `json:"engine_black"`

	LastPlayed time.Time `json:"last_played"`
}

// DefaultPreferences returns default preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		Difficulty:  engine.Medium,
		EngineBlack: true,
		LastPlayed:  time.Now(),
	}
}

// Apply configures eng from the preferences.
func (p *Preferences) Apply(eng *engine.Engine) {
	eng.SetDifficulty(p.Difficulty)
	if p.Depth > 0 {
		eng.SetDepth(p.Depth)
	}
}

// Stats stores aggregate game statistics
type Stats struct {
	GamesPlayed   int           `json:"games_played"`
	WhiteWins     int           `json:"white_wins"`
	BlackWins     int           `json:"black_wins"`
	Draws         int           `json:"draws"`
	Unfinished    int           `json:"unfinished"`
	TotalMoves    int           `json:"total_moves"`
	TotalNodes    uint64        `json:"total_nodes"`
	TotalPlayTime time.Duration `json:"total_play_time"`
}

// NewStats returns empty statistics
func NewStats() *Stats {
	return &Stats{}
}

// add folds one game into the totals.
func (s *Stats) add(g *record.Game) {
	s.fold(g, 1)
}

// remove takes back an earlier add of g.
func (s *Stats) remove(g *record.Game) {
	s.fold(g, -1)
}

func (s *Stats) fold(g *record.Game, n int) {
	s.GamesPlayed += n
	s.TotalMoves += n * len(g.Moves)
	if n > 0 {
		s.TotalNodes += g.Nodes
	} else {
		s.TotalNodes -= min(g.Nodes, s.TotalNodes)
	}
	if !g.Finished.IsZero() {
		s.TotalPlayTime += time.Duration(n) * g.Finished.Sub(g.Started)
	}

	switch g.Result {
	case board.WhiteWins.Result():
		s.WhiteWins += n
	case board.BlackWins.Result():
		s.BlackWins += n
	case board.Draw.Result():
		s.Draws += n
	default:
		s.Unfinished += n
	}
}

// DecisiveRate returns the share of games ending in checkmate as a
// percentage (0-100).
func (s *Stats) DecisiveRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.WhiteWins+s.BlackWins) / float64(s.GamesPlayed) * 100
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	log logr.Logger
}

// NewStorage opens the database in the default data directory.
func NewStorage(log logr.Logger) (*Storage, error) {
	dbDir, err := DatabaseDir()
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return Open(dbDir, log)
}

// Open opens or creates the database in dir.
func Open(dir string, log logr.Logger) (*Storage, error) {
	return open(badger.DefaultOptions(dir), log)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory(log logr.Logger) (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log logr.Logger) (*Storage, error) {
	opts = opts.WithLogger(badgerLogger{log: log.WithName("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", opts.Dir, err)
	}

	log.V(1).Info("database opened", "dir", opts.Dir, "inMemory", opts.InMemory)
	return &Storage{db: db, log: log}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// putJSON stores v under key.
func (s *Storage) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getJSON loads key into v. A missing key leaves v untouched and reports
// found == false.
func (s *Storage) getJSON(key string, v any) (found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if err != nil {
		return found, fmt.Errorf("storage: load %s: %w", key, err)
	}
	return found, nil
}

// SavePreferences saves preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()
	return s.putJSON(keyPreferences, prefs)
}

// LoadPreferences loads preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	_, err := s.getJSON(keyPreferences, prefs)
	return prefs, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *Stats) error {
	return s.putJSON(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*Stats, error) {
	stats := NewStats()
	_, err := s.getJSON(keyStats, stats)
	return stats, err
}

func gameKey(id uuid.UUID) string {
	return gamePrefix + id.String()
}

// SaveGame stores or replaces a game record without touching statistics.
func (s *Storage) SaveGame(g *record.Game) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return s.putJSON(gameKey(g.ID), g)
}

// RecordGame stores a game record and folds it into the statistics. A game
// recorded again under the same ID replaces its earlier contribution.
func (s *Storage) RecordGame(g *record.Game) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	if g.ID != uuid.Nil {
		var prev record.Game
		found, err := s.getJSON(gameKey(g.ID), &prev)
		if err != nil {
			return err
		}
		if found {
			stats.remove(&prev)
		}
	}

	if err := s.SaveGame(g); err != nil {
		return err
	}
	stats.add(g)

	s.log.V(1).Info("game recorded", "id", g.ID, "result", g.Result, "moves", len(g.Moves))
	return s.SaveStats(stats)
}

// LoadGame loads the record with the given ID.
func (s *Storage) LoadGame(id uuid.UUID) (*record.Game, error) {
	var g record.Game
	found, err := s.getJSON(gameKey(id), &g)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return &g, nil
}

// ListGames returns every stored record, oldest first.
func (s *Storage) ListGames() ([]*record.Game, error) {
	var games []*record.Game

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(gamePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				g := new(record.Game)
				if err := json.Unmarshal(val, g); err != nil {
					return fmt.Errorf("decode %s: %w", item.Key(), err)
				}
				games = append(games, g)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list games: %w", err)
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].Started.Before(games[j].Started)
	})
	return games, nil
}

// DeleteGame removes a record. Statistics are not adjusted.
func (s *Storage) DeleteGame(id uuid.UUID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(gameKey(id)))
	})
}
