// Package file implements aggregate storage on the local filesystem.
//
// The current aggregate lives in <dir>/rates.json and is replaced atomically
// (temp file + rename). Every saved aggregate is also written once, and never
// overwritten, as <dir>/history/rates_YYYYMMDD_HHMMSS.json
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sig-0/cdtrates/storage"
	"github.com/sig-0/cdtrates/storage/types"
)

const (
	CurrentFile = "rates.json"
	HistoryDir  = "history"

	snapshotPrefix = "rates_"
	snapshotExt    = ".json"
	snapshotLayout = "20060102_150405"

	// maxSnapshotSuffix bounds the attempts at a unique snapshot name,
	// when several aggregates share the same second
	maxSnapshotSuffix = 1000
)

var errNotDirectory = errors.New("data path is not a directory")

type Storage struct {
	dir string
}

// NewStorage creates the file storage, making sure the data
// and history directories exist and are writable
func NewStorage(dir string) (*Storage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data directory is required")
	}

	info, err := os.Stat(dir)

	switch {
	case errors.Is(err, os.ErrNotExist):
		// created below
	case err != nil:
		return nil, fmt.Errorf("unable to stat data directory: %w", err)
	case !info.IsDir():
		return nil, errNotDirectory
	}

	if err := os.MkdirAll(filepath.Join(dir, HistoryDir), 0o750); err != nil {
		return nil, fmt.Errorf("unable to create data directories: %w", err)
	}

	// Check for write permissions
	testFile := filepath.Join(dir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("data directory is not writable: %w", err)
	}

	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("unable to clean up test file: %w", err)
	}

	return &Storage{
		dir: dir,
	}, nil
}

func (s *Storage) SaveAggregate(_ context.Context, agg *types.Aggregate) error {
	b, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal aggregate: %w", err)
	}

	if err := s.writeSnapshot(agg, b); err != nil {
		return err
	}

	if err := writeAtomic(filepath.Join(s.dir, CurrentFile), b); err != nil {
		return fmt.Errorf("unable to write current aggregate: %w", err)
	}

	return nil
}

func (s *Storage) LatestAggregate(_ context.Context) (*types.Aggregate, error) {
	agg, err := readAggregate(filepath.Join(s.dir, CurrentFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNoSnapshot
	}

	return agg, err
}

func (s *Storage) Snapshots(_ context.Context, limit int) ([]*types.Aggregate, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, HistoryDir))
	if err != nil {
		return nil, fmt.Errorf("unable to list snapshots: %w", err)
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotExt) {
			continue
		}

		names = append(names, name)
	}

	// Timestamped names sort chronologically, same-second suffixes sort last
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}

	out := make([]*types.Aggregate, 0, len(names))

	for _, name := range names {
		agg, err := readAggregate(filepath.Join(s.dir, HistoryDir, name))
		if err != nil {
			return nil, err
		}

		out = append(out, agg)
	}

	return out, nil
}

// writeSnapshot creates a new, uniquely named snapshot file
func (s *Storage) writeSnapshot(agg *types.Aggregate, b []byte) error {
	base := snapshotPrefix + agg.GeneratedAt.Format(snapshotLayout)

	for i := 0; i < maxSnapshotSuffix; i++ {
		name := base + snapshotExt
		if i > 0 {
			name = fmt.Sprintf("%s_%03d%s", base, i, snapshotExt)
		}

		path := filepath.Join(s.dir, HistoryDir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}

		if err != nil {
			return fmt.Errorf("unable to create snapshot: %w", err)
		}

		if _, err = f.Write(b); err != nil {
			_ = f.Close()

			return fmt.Errorf("unable to write snapshot: %w", err)
		}

		if err = f.Close(); err != nil {
			return fmt.Errorf("unable to close snapshot: %w", err)
		}

		return nil
	}

	return fmt.Errorf("unable to find a free snapshot name for %s", base)
}

// writeAtomic replaces the file contents through a temp file + rename
func writeAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return err
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return err
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	return os.Rename(tmpName, path)
}

func readAggregate(path string) (*types.Aggregate, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var agg types.Aggregate

	if err := json.Unmarshal(b, &agg); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", filepath.Base(path), err)
	}

	return &agg, nil
}
