package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/notnil/chess"

	"github.com/hailam/drawbackchess/internal/config"
	"github.com/hailam/drawbackchess/internal/game"
)

// Storage keys
const (
	keySettings = "settings"
	keyStats    = "stats"
	keyGameSeq  = "seq/game"
	gamePrefix  = "game/"
)

// GameRecord is one finished game.
type GameRecord struct {
	ID            uint64        `json:"id"`
	WhiteHandicap string        `json:"white_handicap"`
	BlackHandicap string        `json:"black_handicap"`
	WhiteAlgo     string        `json:"white_algo"`
	BlackAlgo     string        `json:"black_algo"`
	Status        string        `json:"status"`
	Winner        string        `json:"winner"` // "white", "black" or "draw"
	Plies         int           `json:"plies"`
	Moves         []string      `json:"moves"`
	FinalFEN      string        `json:"final_fen"`
	Duration      time.Duration `json:"duration"`
	PlayedAt      time.Time     `json:"played_at"`
}

// RecordFromGame summarises a finished game.
func RecordFromGame(g *game.Game, whiteAlgo, blackAlgo string, duration time.Duration) GameRecord {
	res := g.Result()
	winner := "draw"
	switch res.Winner {
	case chess.White:
		winner = "white"
	case chess.Black:
		winner = "black"
	}
	moves := g.Moves()
	text := make([]string, len(moves))
	for i, m := range moves {
		text[i] = m.String()
	}
	return GameRecord{
		WhiteHandicap: g.Rule(chess.White).Slug,
		BlackHandicap: g.Rule(chess.Black).Slug,
		WhiteAlgo:     whiteAlgo,
		BlackAlgo:     blackAlgo,
		Status:        res.Status.String(),
		Winner:        winner,
		Plies:         len(moves),
		Moves:         text,
		FinalFEN:      g.FEN(),
		Duration:      duration,
		PlayedAt:      time.Now(),
	}
}

// MatchStats aggregates every recorded game.
type MatchStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	ByReason      map[string]int `json:"by_reason"`
	WinsByHandi   map[string]int `json:"wins_by_handicap"`
	LossesByHandi map[string]int `json:"losses_by_handicap"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
}

// NewMatchStats returns empty statistics.
func NewMatchStats() *MatchStats {
	return &MatchStats{
		ByReason:      make(map[string]int),
		WinsByHandi:   make(map[string]int),
		LossesByHandi: make(map[string]int),
	}
}

// WhiteScore returns White's score as a percentage (0-100), counting draws
// as half a point.
func (s *MatchStats) WhiteScore() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return (float64(s.WhiteWins) + float64(s.Draws)/2) / float64(s.GamesPlayed) * 100
}

func (s *MatchStats) add(rec GameRecord) {
	s.GamesPlayed++
	s.TotalPlayTime += rec.Duration
	s.ByReason[rec.Status]++

	switch rec.Winner {
	case "white":
		s.WhiteWins++
		s.WinsByHandi[rec.WhiteHandicap]++
		s.LossesByHandi[rec.BlackHandicap]++
	case "black":
		s.BlackWins++
		s.WinsByHandi[rec.BlackHandicap]++
		s.LossesByHandi[rec.WhiteHandicap]++
	default:
		s.Draws++
	}
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens or creates a database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	seq, err := db.GetSequence([]byte(keyGameSeq), 16)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("game sequence: %w", err)
	}
	return &Storage{db: db, seq: seq}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.seq != nil {
		if err := s.seq.Release(); err != nil {
			s.db.Close()
			return err
		}
		s.seq = nil
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSettings stores the last used settings.
func (s *Storage) SaveSettings(settings config.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keySettings), data)
	})
}

// LoadSettings loads stored settings, returns defaults if not found
func (s *Storage) LoadSettings() (config.Settings, error) {
	settings := config.Default()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keySettings))
		if err == badger.ErrKeyNotFound {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})

	return settings, err
}

// LoadStats loads match statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*MatchStats, error) {
	var stats *MatchStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (*MatchStats, error) {
	stats := NewMatchStats()
	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	return stats, err
}

// RecordGame stores a finished game and folds it into the statistics in a
// single transaction. It returns the id assigned to the record.
func (s *Storage) RecordGame(rec GameRecord) (uint64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, err
	}
	rec.ID = n + 1
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		stats, err := loadStats(txn)
		if err != nil {
			return err
		}
		stats.add(rec)
		statsData, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(keyStats), statsData); err != nil {
			return err
		}
		return txn.Set(gameKey(rec.ID), data)
	})
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// Game loads one record by id.
func (s *Storage) Game(id uint64) (GameRecord, error) {
	var rec GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// RecentGames returns up to n records, newest first.
func (s *Storage) RecentGames(n int) ([]GameRecord, error) {
	var out []GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key <= the seek key.
		seek := append([]byte(gamePrefix), 0xff)
		for it.Seek(seek); it.Valid() && len(out) < n; it.Next() {
			var rec GameRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// gameKey orders records by id under a fixed-width hex suffix.
func gameKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", gamePrefix, id))
}
