package batch

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB tracks which note files have already been converted so unchanged
// files are skipped on the next run.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS converted_files (
		path         TEXT PRIMARY KEY,
		size         INTEGER NOT NULL,
		hash         TEXT NOT NULL,
		plan_id      TEXT NOT NULL DEFAULT '',
		converted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsConverted reports whether path was converted with the same size and hash.
func (s *StateDB) IsConverted(path string, size int64, hash string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM converted_files WHERE path = ? AND size = ? AND hash = ?`,
		path, size, hash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking state for %s: %w", path, err)
	}
	return count > 0, nil
}

// MarkConverted records a successful conversion. planID is empty when the plan
// was only written locally.
func (s *StateDB) MarkConverted(path string, size int64, hash, planID string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO converted_files (path, size, hash, plan_id) VALUES (?, ?, ?, ?)`,
		path, size, hash, planID,
	)
	if err != nil {
		return fmt.Errorf("marking %s converted: %w", path, err)
	}
	return nil
}

// PlanID returns the plan ID stored for path, or "" when none was recorded.
func (s *StateDB) PlanID(path string) (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT plan_id FROM converted_files WHERE path = ?`, path).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading plan id for %s: %w", path, err)
	}
	return id, nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
