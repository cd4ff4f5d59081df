package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/shopspring/decimal"
)

// SnapshotVersion is the schema version written by Save. Load rejects any
// other version as corrupt.
const SnapshotVersion = 1

var (
	ErrSnapshotNotFound = errors.New("snapshot_not_found")
	ErrSnapshotCorrupt  = errors.New("snapshot_corrupt")
)

// Snapshot is the persisted form of a portfolio: its cash and its
// symbol → quantity holdings. Market data is never persisted.
type Snapshot struct {
	Version     int              `json:"version"`
	PortfolioID string           `json:"portfolio_id"`
	SavedAt     time.Time        `json:"saved_at"`
	Cash        decimal.Decimal  `json:"cash"`
	Holdings    map[string]int64 `json:"holdings"`
}

// Validate checks the snapshot's invariants.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	if s.Cash.IsNegative() {
		return fmt.Errorf("snapshot cash %s is negative", s.Cash)
	}
	for symbol, qty := range s.Holdings {
		if symbol == "" {
			return fmt.Errorf("snapshot holds an empty symbol")
		}
		if qty <= 0 {
			return fmt.Errorf("snapshot quantity for %s must be > 0, got %d", symbol, qty)
		}
	}
	return nil
}

// FileStore persists a single snapshot as a JSON document on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes snap to a temporary file next to the target and renames it
// into place, so a failed save never damages the previous snapshot. Any
// failure is wrapped in domain.ErrPersistence.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", domain.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			tmp.Close()
		}
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err = enc.Encode(snap); err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", domain.ErrPersistence, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync snapshot: %w", domain.ErrPersistence, err)
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close snapshot: %w", domain.ErrPersistence, err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: replace snapshot: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Load reads the snapshot. It returns ErrSnapshotNotFound when no snapshot
// has been saved yet and ErrSnapshotCorrupt when the file cannot be decoded
// or fails validation.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open snapshot: %w", domain.ErrPersistence, err)
	}
	defer f.Close()

	var snap Snapshot
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
	}
	if snap.Holdings == nil {
		snap.Holdings = make(map[string]int64)
	}
	return &snap, nil
}
