// Package snapshot persists the last successful run's canonical record set.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/petrescueapp/data-collector/internal/model"
)

const latestFilename = "latest.json"

// DeserializationError means the persisted snapshot cannot be read back.
// This is fatal to the run; no recovery is attempted.
type DeserializationError struct {
	Path string
	Err  error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("snapshot %s is unreadable: %v", e.Path, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// Store owns the snapshot file under a single directory. It is single-writer:
// one run reads it at the start and overwrites it at the end.
type Store struct {
	dir string
}

// NewStore creates the snapshot directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "snapshots"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the location of the latest snapshot file.
func (s *Store) Path() string { return filepath.Join(s.dir, latestFilename) }

// Load reads the prior record set. A missing snapshot is the first run and
// yields an empty set; a malformed one is a *DeserializationError.
func (s *Store) Load() ([]model.Record, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Record{}, nil
		}
		return nil, &DeserializationError{Path: s.Path(), Err: err}
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &DeserializationError{Path: s.Path(), Err: err}
	}
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return nil, &DeserializationError{Path: s.Path(), Err: err}
		}
	}
	return records, nil
}

// Save overwrites the snapshot with the full given set, an empty set
// included: a run that collected nothing still resets the snapshot. The
// write goes through a temp file and rename so readers never see a partial
// document.
func (s *Store) Save(records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, latestFilename+".*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
