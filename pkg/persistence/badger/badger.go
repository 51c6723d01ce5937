package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence"
)

// Key prefixes for namespacing
const (
	keyPrefixSnapshot    = "snapshot:"
	keyPrefixRunIndex    = "runindex:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerPersistence is a persistence implementation using Badger.
// Provides durable, disk-based storage with ACID guarantees.
//
// Runs are stored under snapshot:<runID>. A second key per run,
// runindex:<createdAt nanos>:<runID>, holds the run summary so listing and
// finding the latest run never decode full snapshots.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewBadgerPersistence creates a new Badger-backed persistence layer.
// The database is opened at the specified path with SyncWrites enabled for durability.
// A background goroutine is started for garbage collection.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger persistence initialized", "path", absPath)

	return bp, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic garbage collection in the background
func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func snapshotKey(runID uuid.UUID) []byte {
	return []byte(keyPrefixSnapshot + runID.String())
}

func indexKey(record *persistence.SnapshotRecord) ([]byte, error) {
	nanos := record.CreatedAt.UnixNano()
	if nanos < 0 {
		return nil, fmt.Errorf("record %s created before the unix epoch", record.RunID)
	}
	// Zero padded so lexical key order is creation order
	return []byte(fmt.Sprintf("%s%020d:%s", keyPrefixRunIndex, nanos, record.RunID)), nil
}

// getValue copies the value at key, returning nil when the key is absent.
func getValue(txn *badgerdb.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err == badgerdb.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// SaveSnapshot persists a run and its index entry in one transaction.
func (b *BadgerPersistence) SaveSnapshot(record *persistence.SnapshotRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SnapshotRecord")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	data, err := persistence.MarshalSnapshotRecord(record)
	if err != nil {
		return fmt.Errorf("failed to marshal SnapshotRecord: %w", err)
	}
	summary, err := json.Marshal(record.Summary())
	if err != nil {
		return fmt.Errorf("failed to marshal SnapshotRun: %w", err)
	}
	idx, err := indexKey(record)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		// An overwrite may move the run in time; drop the stale index entry
		existing, err := getValue(txn, snapshotKey(record.RunID))
		if err != nil {
			return err
		}
		if existing != nil {
			old, err := persistence.UnmarshalSnapshotRecord(existing)
			if err == nil {
				if oldIdx, err := indexKey(old); err == nil {
					if err := txn.Delete(oldIdx); err != nil {
						return err
					}
				}
			}
		}

		if err := txn.Set(snapshotKey(record.RunID), data); err != nil {
			return err
		}
		return txn.Set(idx, summary)
	})
}

// LoadSnapshot retrieves a run by ID.
func (b *BadgerPersistence) LoadSnapshot(runID uuid.UUID) (*persistence.SnapshotRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}
	return b.loadSnapshot(runID)
}

func (b *BadgerPersistence) loadSnapshot(runID uuid.UUID) (*persistence.SnapshotRecord, error) {
	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		var err error
		data, err = getValue(txn, snapshotKey(runID))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load SnapshotRecord: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	record, err := persistence.UnmarshalSnapshotRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal SnapshotRecord: %w", err)
	}
	return record, nil
}

// LoadLatestSnapshot walks the run index backwards and loads the first entry.
func (b *BadgerPersistence) LoadLatestSnapshot() (*persistence.SnapshotRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	var latest *persistence.SnapshotRun
	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefixRunIndex)

		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past every index key, reverse iteration then starts at the newest
		it.Seek(append([]byte(keyPrefixRunIndex), 0xff))
		if !it.Valid() {
			return nil
		}
		return it.Item().Value(func(val []byte) error {
			var run persistence.SnapshotRun
			if err := json.Unmarshal(val, &run); err != nil {
				return err
			}
			latest = &run
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find latest run: %w", err)
	}
	if latest == nil {
		return nil, nil
	}
	return b.loadSnapshot(latest.RunID)
}

// ListSnapshotRuns returns run summaries sorted by CreatedAt.
func (b *BadgerPersistence) ListSnapshotRuns() ([]*persistence.SnapshotRun, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	runs := make([]*persistence.SnapshotRun, 0)

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefixRunIndex)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var run persistence.SnapshotRun
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			})
			if err != nil {
				b.logger.Sugar().Warnw("Failed to unmarshal SnapshotRun, skipping",
					"key", string(item.Key()), "error", err)
				continue
			}

			runs = append(runs, &run)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list SnapshotRuns: %w", err)
	}

	persistence.SortRuns(runs)
	return runs, nil
}

// DeleteSnapshot removes a run and its index entry.
func (b *BadgerPersistence) DeleteSnapshot(runID uuid.UUID) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		data, err := getValue(txn, snapshotKey(runID))
		if err != nil || data == nil {
			return err
		}
		record, err := persistence.UnmarshalSnapshotRecord(data)
		if err != nil {
			return fmt.Errorf("failed to unmarshal SnapshotRecord: %w", err)
		}
		idx, err := indexKey(record)
		if err != nil {
			return err
		}
		if err := txn.Delete(idx); err != nil {
			return err
		}
		return txn.Delete(snapshotKey(runID))
	})
}

// Close shuts down the persistence layer
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}

var _ persistence.ISnapshotPersistence = (*BadgerPersistence)(nil)
