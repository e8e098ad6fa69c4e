// Package store implements the durable JSON representation of the request
// ledger. Writes are atomic (temp file + rename) and keep one generation of
// history in a .bak sibling; reads fall back from primary to backup to an
// empty ledger, so a malformed or missing file is a cold start, never a
// fatal error.
package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tbourn/go-request-bot/internal/domain"
)

// BackupSuffix is appended to the primary path to form the backup file.
const BackupSuffix = ".bak"

// tempSuffix is appended to the primary path while writing a new
// generation. A leftover temp file from an interrupted save is harmless:
// it is overwritten by the next save and never read.
const tempSuffix = ".tmp"

// ErrMalformed wraps a JSON decode failure of a store file. Load recovers
// from it internally; it is surfaced only through logs.
var ErrMalformed = errors.New("malformed store file")

// Store persists a snapshot of the ledger to disk.
type Store struct {
	path string
	now  func() time.Time
}

// New returns a store rooted at path. The backup generation lives at
// path + ".bak".
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// NewWithClock is like New but with an injected time source, used by tests
// to pin the created_at backfill.
func NewWithClock(path string, now func() time.Time) *Store {
	return &Store{path: path, now: now}
}

// Path returns the primary file path.
func (s *Store) Path() string { return s.path }

// Load reads the persisted ledger. It tries the primary file first and the
// backup second; when neither holds a valid snapshot it returns an empty
// slice and no error (cold start). Records missing created_at (legacy
// generations predate the field) are backfilled with the current time so
// they restart their voting window instead of maturing immediately.
func (s *Store) Load() ([]domain.Request, error) {
	for _, path := range []string{s.path, s.path + BackupSuffix} {
		reqs, err := s.loadFile(path)
		if err != nil {
			continue
		}
		now := s.now().Unix()
		for i := range reqs {
			if reqs[i].CreatedAt == 0 {
				reqs[i].CreatedAt = now
			}
		}
		return reqs, nil
	}
	return []domain.Request{}, nil
}

// loadFile decodes one candidate file.
func (s *Store) loadFile(path string) ([]domain.Request, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reqs []domain.Request
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return reqs, nil
}

// Save atomically replaces the persisted ledger with reqs.
//
// Sequence:
//  1. rename primary → backup, preserving the last known-good generation
//  2. write the new snapshot to a temp file
//  3. rename temp → primary
//
// A reader never observes a partially written primary: both renames are
// atomic on POSIX filesystems. If the process dies between steps 1 and 3,
// Load recovers from the backup.
func (s *Store) Save(reqs []domain.Request) error {
	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.path+BackupSuffix); err != nil {
			return fmt.Errorf("rotate backup: %w", err)
		}
	}

	data, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp := s.path + tempSuffix
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("promote temp file: %w", err)
	}
	return nil
}
