// Package history keeps an audit trail of game imports (ZIP uploads and GitHub downloads).
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SourceZip    = "zip"
	SourceGithub = "github"
)

// Record is one import attempt, successful or not.
type Record struct {
	ID     string    `json:"id"`
	GameID string    `json:"gameId,omitempty"`
	Source string    `json:"source"`
	Origin string    `json:"origin,omitempty"` // upload filename or repository URL
	Branch string    `json:"branch,omitempty"`
	Subdir string    `json:"subdir,omitempty"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// Store appends import records to data/imports.json and, when a database is configured,
// mirrors them into the game_imports table.
type Store struct {
	mu      sync.Mutex
	dataDir string
	db      func() (*sql.DB, error)
	limit   int
}

// MaxRecords caps imports.json; older records are dropped (the database mirror keeps them).
const MaxRecords = 500

// NewStore returns a file-backed store. db may be nil; it is consulted lazily on every
// append so the launcher keeps working when the database is down.
func NewStore(dataDir string, db func() (*sql.DB, error)) *Store {
	if dataDir == "" {
		dataDir = "data"
	}
	return &Store{dataDir: dataDir, db: db, limit: MaxRecords}
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, "imports.json")
}

func (s *Store) ensureDir() error {
	return os.MkdirAll(s.dataDir, 0755)
}

// Append stores r, filling in ID and At when empty. The file keeps the newest s.limit records.
func (s *Store) Append(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.At.IsZero() {
		r.At = time.Now().UTC()
	}
	s.mu.Lock()
	err := s.appendLocked(r)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.mirror(ctx, r)
	return nil
}

func (s *Store) appendLocked(r *Record) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	list := s.readLocked()
	list = append(list, r)
	if len(list) > s.limit {
		list = list[len(list)-s.limit:]
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0644)
}

func (s *Store) readLocked() []*Record {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return nil
	}
	var list []*Record
	if err := json.Unmarshal(data, &list); err != nil {
		return nil
	}
	return list
}

// Recent returns up to limit records, newest first. limit <= 0 means all.
func (s *Store) Recent(limit int) []*Record {
	s.mu.Lock()
	list := s.readLocked()
	s.mu.Unlock()
	out := make([]*Record, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// mirror writes r to Postgres; the game_imports table is created when the handle is
// opened. Failures are logged, never returned: the file is the source of truth.
func (s *Store) mirror(ctx context.Context, r *Record) {
	if s.db == nil {
		return
	}
	db, err := s.db()
	if err != nil {
		zap.L().Warn("import history: database unavailable", zap.Error(err))
		return
	}
	if db == nil {
		return
	}
	_, err = db.ExecContext(ctx, `
      INSERT INTO game_imports (id, game_id, source, origin, branch, subdir, ok, error, imported_at)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
      ON CONFLICT (id) DO NOTHING
    `, r.ID, r.GameID, r.Source, r.Origin, r.Branch, r.Subdir, r.OK, r.Error, r.At)
	if err != nil {
		zap.L().Warn("import history: insert", zap.String("id", r.ID), zap.Error(err))
	}
}
