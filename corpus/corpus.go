// Package corpus indexes generated modules in a SQLite database so a
// fuzzing campaign can skip duplicates and find the seed behind any module.
// Modules are keyed by the BLAKE2b-256 hash of their binary encoding.
package corpus

import (
	"context"
	"database/sql"
	"encoding/hex"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"github.com/wippyai/wasm-fuzzgen/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS modules (
	id         TEXT PRIMARY KEY,
	hash       TEXT NOT NULL UNIQUE,
	seed       INTEGER NOT NULL,
	functions  INTEGER NOT NULL,
	path       TEXT NOT NULL,
	valid      INTEGER NOT NULL,
	outcome    TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

const columns = `id, hash, seed, functions, path, valid, outcome, created_at`

// Entry is one indexed module.
type Entry struct {
	ID        string
	Hash      string
	Seed      int64
	Functions int
	// Path is the artifact base path (without extension).
	Path string
	// Valid records whether the engine accepted the binary.
	Valid bool
	// Outcome is the engine's verdict on running the export, if it ran.
	Outcome   string
	CreatedAt time.Time
}

// Store is a SQLite-backed corpus index.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Hash returns the hex BLAKE2b-256 digest of a module binary.
func Hash(bin []byte) string {
	sum := blake2b.Sum256(bin)
	return hex.EncodeToString(sum[:])
}

// Open opens (creating if needed) the corpus database at path.
// Use ":memory:" for a throwaway index.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "open "+path)
	}
	// an in-memory database lives only as long as its connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "create schema")
	}

	s := &Store{db: db, log: Logger()}
	s.log.Debug("corpus opened", zap.String("path", path))
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts e unless a module with the same hash is already indexed.
// ID and CreatedAt are assigned when empty. It returns the stored entry
// (the existing one for duplicates) and whether e was new.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, bool, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO modules (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Hash, e.Seed, e.Functions, e.Path, e.Valid, e.Outcome, e.CreatedAt.UnixNano())
	if err != nil {
		return Entry{}, false, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "insert "+e.Hash)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Entry{}, false, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "insert "+e.Hash)
	}
	if n == 0 {
		existing, err := s.Get(ctx, e.Hash)
		if err != nil {
			return Entry{}, false, err
		}
		s.log.Debug("duplicate module", zap.String("hash", e.Hash), zap.Int64("seed", e.Seed),
			zap.Int64("first_seed", existing.Seed))
		return existing, false, nil
	}

	s.log.Debug("module recorded", zap.String("id", e.ID), zap.String("hash", e.Hash), zap.Int64("seed", e.Seed))
	return e, true, nil
}

// Has reports whether a module with the given hash is indexed.
func (s *Store) Has(ctx context.Context, hash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM modules WHERE hash = ?`, hash).Scan(&n)
	if err != nil {
		return false, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "lookup "+hash)
	}
	return n > 0, nil
}

// Get returns the entry with the given hash.
func (s *Store) Get(ctx context.Context, hash string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM modules WHERE hash = ?`, hash)
	e, err := scan(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Entry{}, errors.NotFound(errors.PhaseStore, "module", hash)
	}
	if err != nil {
		return Entry{}, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "lookup "+hash)
	}
	return e, nil
}

// List returns up to limit entries, oldest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM modules ORDER BY created_at, rowid LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "list")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "list")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "list")
	}
	return out, nil
}

// Count returns the number of indexed modules.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM modules`).Scan(&n); err != nil {
		return 0, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "count")
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (Entry, error) {
	var (
		e       Entry
		created int64
	)
	if err := r.Scan(&e.ID, &e.Hash, &e.Seed, &e.Functions, &e.Path, &e.Valid, &e.Outcome, &created); err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.Unix(0, created)
	return e, nil
}
