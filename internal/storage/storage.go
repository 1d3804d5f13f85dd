package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Storage keys
const (
	keyPreferences    = "preferences"
	analysisKeyPrefix = "analysis/"
)

// Preferences are the engine settings remembered between runs. Command-line
// flags override them.
type Preferences struct {
	MaxDepth   int           `json:"max_depth"`
	MoveTime   time.Duration `json:"move_time"`
	HashMB     int           `json:"hash_mb"`
	Threads    int           `json:"threads"`
	RandomKeys bool          `json:"random_keys"`
	LogLevel   string        `json:"log_level"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// DefaultPreferences returns the settings used before anything was saved.
func DefaultPreferences() *Preferences {
	return &Preferences{
		MaxDepth: 6,
		HashMB:   64,
		LogLevel: "info",
	}
}

// Analysis is a finished search result for one position.
type Analysis struct {
	FEN     string        `json:"fen"`
	Move    string        `json:"move"`
	Score   int           `json:"score"`
	Depth   int           `json:"depth"`
	Nodes   uint64        `json:"nodes"`
	Elapsed time.Duration `json:"elapsed"`
	SavedAt time.Time     `json:"saved_at"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) a database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir).
		WithCompression(options.ZSTD)
	opts.Logger = nil // badger is chatty on open and compaction

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SavePreferences saves the engine preferences.
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.UpdatedAt = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads the engine preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	if _, err := s.get(keyPreferences, prefs); err != nil {
		return DefaultPreferences(), err
	}
	return prefs, nil
}

// LookupAnalysis returns the stored analysis of fen if it was searched to
// at least minDepth.
func (s *Storage) LookupAnalysis(fen string, minDepth int) (Analysis, bool, error) {
	var a Analysis
	found, err := s.get(analysisKeyPrefix+fen, &a)
	if err != nil || !found || a.Depth < minDepth {
		return Analysis{}, false, err
	}
	return a, true, nil
}

// SaveAnalysis stores a, unless a deeper analysis of the same position is
// already stored.
func (s *Storage) SaveAnalysis(a Analysis) error {
	key := []byte(analysisKeyPrefix + a.FEN)
	a.SavedAt = time.Now()

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			var old Analysis
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &old)
			}); err != nil {
				return err
			}
			if old.Depth > a.Depth {
				return nil
			}
		}

		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// CountAnalyses returns the number of stored analyses.
func (s *Storage) CountAnalyses() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(analysisKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes the value at key into v and reports whether it existed.
func (s *Storage) get(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
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
	return found, err
}
