// Package file stores distribution runs as JSON files and writes the
// published snapshot artifact. Every write replaces its target atomically so
// readers never see a partial file.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
)

const (
	runsDir       = "runs"
	runFileSuffix = ".json"
)

// WriteSnapshotFile writes the canonical snapshot encoding to path.
func WriteSnapshotFile(path string, snap *snapshot.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot write nil snapshot")
	}
	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot file %s: %w", path, err)
	}
	return nil
}

// ReadSnapshotFile loads and validates a snapshot file.
func ReadSnapshotFile(path string) (*snapshot.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file %s: %w", path, err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot file %s: %w", path, err)
	}
	return snap, nil
}

// FilePersistence keeps one JSON file per run under <dir>/runs.
type FilePersistence struct {
	dir    string
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewFilePersistence creates the run directory if needed.
func NewFilePersistence(dir string, logger *zap.Logger) (*FilePersistence, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(absPath, runsDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	logger.Sugar().Infow("File persistence initialized", "path", absPath)
	return &FilePersistence{dir: absPath, logger: logger}, nil
}

func (f *FilePersistence) runPath(runID uuid.UUID) string {
	return filepath.Join(f.dir, runsDir, runID.String()+runFileSuffix)
}

// SaveSnapshot writes the run file atomically.
func (f *FilePersistence) SaveSnapshot(record *persistence.SnapshotRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SnapshotRecord")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return persistence.ErrClosed
	}

	data, err := persistence.MarshalSnapshotRecord(record)
	if err != nil {
		return fmt.Errorf("failed to marshal SnapshotRecord: %w", err)
	}
	if err := atomic.WriteFile(f.runPath(record.RunID), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}
	return nil
}

// LoadSnapshot reads a run file.
func (f *FilePersistence) LoadSnapshot(runID uuid.UUID) (*persistence.SnapshotRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, persistence.ErrClosed
	}
	return f.loadSnapshot(runID)
}

func (f *FilePersistence) loadSnapshot(runID uuid.UUID) (*persistence.SnapshotRecord, error) {
	data, err := os.ReadFile(f.runPath(runID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	record, err := persistence.UnmarshalSnapshotRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal SnapshotRecord: %w", err)
	}
	return record, nil
}

// LoadLatestSnapshot returns the newest run.
func (f *FilePersistence) LoadLatestSnapshot() (*persistence.SnapshotRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, persistence.ErrClosed
	}

	runs, err := f.listRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return f.loadSnapshot(runs[len(runs)-1].RunID)
}

// ListSnapshotRuns decodes every run file and returns their summaries.
func (f *FilePersistence) ListSnapshotRuns() ([]*persistence.SnapshotRun, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, persistence.ErrClosed
	}
	return f.listRuns()
}

func (f *FilePersistence) listRuns() ([]*persistence.SnapshotRun, error) {
	entries, err := os.ReadDir(filepath.Join(f.dir, runsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to list run directory: %w", err)
	}

	runs := make([]*persistence.SnapshotRun, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, runFileSuffix) {
			continue
		}
		runID, err := uuid.Parse(strings.TrimSuffix(name, runFileSuffix))
		if err != nil {
			continue
		}

		record, err := f.loadSnapshot(runID)
		if err != nil {
			f.logger.Sugar().Warnw("Failed to read run file, skipping", "file", name, "error", err)
			continue
		}
		if record != nil {
			runs = append(runs, record.Summary())
		}
	}

	persistence.SortRuns(runs)
	return runs, nil
}

// DeleteSnapshot removes a run file.
func (f *FilePersistence) DeleteSnapshot(runID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return persistence.ErrClosed
	}

	err := os.Remove(f.runPath(runID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete run file: %w", err)
	}
	return nil
}

func (f *FilePersistence) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

// HealthCheck verifies the run directory is still a writable directory.
func (f *FilePersistence) HealthCheck() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return persistence.ErrClosed
	}

	dir := filepath.Join(f.dir, runsDir)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("run directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".healthcheck-*")
	if err != nil {
		return fmt.Errorf("run directory not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

var _ persistence.ISnapshotPersistence = (*FilePersistence)(nil)
