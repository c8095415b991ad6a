// Package storage provides SQLite-based persistence for finished games and save slots.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-connect4/internal/engine"
)

// ErrNotFound is returned when a game or save slot does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// GameRecord is a finished game as stored in the games table.
type GameRecord struct {
	ID        string
	Status    string
	Winner    engine.PlayerID
	Moves     string // move notation, one column per character
	MoveCount int
	Duration  time.Duration
	Snapshot  string
	CreatedAt time.Time
}

// SaveSlot is a named snapshot that can be resumed later.
type SaveSlot struct {
	Name      string
	Snapshot  string
	UpdatedAt time.Time
}

// Stats aggregates the outcomes of all stored games.
type Stats struct {
	Games    int
	Wins     int
	Draws    int
	Forfeits int
	ByWinner map[engine.PlayerID]int // wins and forfeit wins per player
}

// RecordFromGame builds a record for g, including its serialized snapshot.
func RecordFromGame(g *engine.Game) (GameRecord, error) {
	snapshot, err := g.Serialize()
	if err != nil {
		return GameRecord{}, fmt.Errorf("storage: cannot snapshot game: %w", err)
	}
	return GameRecord{
		Status:    g.Status().String(),
		Winner:    g.WinningPlayerID(),
		Moves:     g.MoveSequence(),
		MoveCount: g.MoveCount(),
		Duration:  g.TotalElapsedTime(),
		Snapshot:  snapshot,
	}, nil
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			winner INTEGER NOT NULL DEFAULT 0,
			moves TEXT NOT NULL,
			move_count INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			snapshot TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_games_created_at ON games(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);

		CREATE TABLE IF NOT EXISTS saves (
			name TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame records a finished game. A new UUID is assigned when rec.ID is empty.
// Returns the ID of the stored record.
func (s *Store) SaveGame(rec GameRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := s.db.Exec(
		`INSERT INTO games (id, status, winner, moves, move_count, duration_ms, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Status,
		int64(rec.Winner),
		rec.Moves,
		rec.MoveCount,
		rec.Duration.Milliseconds(),
		rec.Snapshot,
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save game: %w", err)
	}
	return rec.ID, nil
}

// RecentGames returns up to limit games, newest first.
func (s *Store) RecentGames(limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, status, winner, moves, move_count, duration_ms, snapshot, created_at
		 FROM games
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query games: %w", err)
	}
	defer rows.Close()

	var records []GameRecord
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// GameByID retrieves a game by its ID.
func (s *Store) GameByID(id string) (GameRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, status, winner, moves, move_count, duration_ms, snapshot, created_at
		 FROM games
		 WHERE id = ?`,
		id,
	)
	rec, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, fmt.Errorf("%w: game %s", ErrNotFound, id)
	}
	return rec, err
}

// Stats returns outcome totals over all stored games.
func (s *Store) Stats() (Stats, error) {
	stats := Stats{ByWinner: make(map[engine.PlayerID]int)}

	rows, err := s.db.Query("SELECT status, COUNT(*) FROM games GROUP BY status")
	if err != nil {
		return stats, fmt.Errorf("storage: cannot query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		stats.Games += count
		switch status {
		case engine.StatusWin.String():
			stats.Wins = count
		case engine.StatusDraw.String():
			stats.Draws = count
		case engine.StatusForfeit.String():
			stats.Forfeits = count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("storage: row iteration error: %w", err)
	}

	winners, err := s.db.Query("SELECT winner, COUNT(*) FROM games WHERE winner != 0 GROUP BY winner")
	if err != nil {
		return stats, fmt.Errorf("storage: cannot query winners: %w", err)
	}
	defer winners.Close()

	for winners.Next() {
		var winner int64
		var count int
		if err := winners.Scan(&winner, &count); err != nil {
			return stats, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		stats.ByWinner[engine.PlayerID(winner)] = count
	}
	if err := winners.Err(); err != nil {
		return stats, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// PutSave creates or replaces the named save slot.
func (s *Store) PutSave(name, snapshot string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("storage: save name is empty")
	}

	_, err := s.db.Exec(
		`INSERT INTO saves (name, snapshot, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		name, snapshot,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save slot %s: %w", name, err)
	}
	return nil
}

// GetSave retrieves the named save slot.
func (s *Store) GetSave(name string) (SaveSlot, error) {
	var slot SaveSlot
	var updatedAt any

	err := s.db.QueryRow(
		"SELECT name, snapshot, updated_at FROM saves WHERE name = ?",
		strings.TrimSpace(name),
	).Scan(&slot.Name, &slot.Snapshot, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return SaveSlot{}, fmt.Errorf("%w: save %s", ErrNotFound, name)
	}
	if err != nil {
		return SaveSlot{}, fmt.Errorf("storage: cannot query save: %w", err)
	}

	slot.UpdatedAt = parseTime(updatedAt)
	return slot, nil
}

// ListSaves returns all save slots ordered by name. Snapshots are included.
func (s *Store) ListSaves() ([]SaveSlot, error) {
	rows, err := s.db.Query("SELECT name, snapshot, updated_at FROM saves ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query saves: %w", err)
	}
	defer rows.Close()

	var slots []SaveSlot
	for rows.Next() {
		var slot SaveSlot
		var updatedAt any
		if err := rows.Scan(&slot.Name, &slot.Snapshot, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		slot.UpdatedAt = parseTime(updatedAt)
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return slots, nil
}

// DeleteSave removes the named save slot.
func (s *Store) DeleteSave(name string) error {
	res, err := s.db.Exec("DELETE FROM saves WHERE name = ?", strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("storage: cannot delete save: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: save %s", ErrNotFound, name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (GameRecord, error) {
	var rec GameRecord
	var winner, durationMS int64
	var createdAt any

	err := row.Scan(
		&rec.ID,
		&rec.Status,
		&winner,
		&rec.Moves,
		&rec.MoveCount,
		&durationMS,
		&rec.Snapshot,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("storage: cannot scan game: %w", err)
	}

	rec.Winner = engine.PlayerID(winner)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

// parseTime handles the datetime as either time.Time or string.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
