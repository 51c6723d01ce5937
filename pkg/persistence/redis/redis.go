package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixSnapshot    = "dist:snapshot:"
	keySchemaVersion     = "dist:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Sorted set of run IDs scored by creation time, for listing and latest lookups
	keyRunIndex = "dist:runs:index"
	// Hash of run ID -> SnapshotRun JSON so listing never loads full snapshots
	keyRunSummaries = "dist:runs:summaries"

	defaultTimeout = 5 * time.Second
)

// RedisPersistence is a persistence implementation using Redis.
// Provides durable, distributed storage suitable for cloud-native deployments.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys, e.g. "bao:" gives
	// keys like "bao:dist:snapshot:<runID>".
	KeyPrefix string
}

// NewRedisPersistence creates a new Redis-backed persistence layer.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rp, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisPersistence) snapshotKey(runID uuid.UUID) string {
	return r.prefixKey(keyPrefixSnapshot + runID.String())
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// SaveSnapshot persists a run, its index score and summary atomically.
func (r *RedisPersistence) SaveSnapshot(record *persistence.SnapshotRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SnapshotRecord")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
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

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	id := record.RunID.String()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.snapshotKey(record.RunID), data, 0)
		// Microseconds keep the score exact within float64 precision
		pipe.ZAdd(ctx, r.prefixKey(keyRunIndex), redis.Z{
			Score:  float64(record.CreatedAt.UnixMicro()),
			Member: id,
		})
		pipe.HSet(ctx, r.prefixKey(keyRunSummaries), id, summary)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save SnapshotRecord: %w", err)
	}

	return nil
}

// LoadSnapshot retrieves a run by ID.
func (r *RedisPersistence) LoadSnapshot(runID uuid.UUID) (*persistence.SnapshotRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}
	return r.loadSnapshot(runID)
}

func (r *RedisPersistence) loadSnapshot(runID uuid.UUID) (*persistence.SnapshotRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.snapshotKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load SnapshotRecord: %w", err)
	}

	record, err := persistence.UnmarshalSnapshotRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal SnapshotRecord: %w", err)
	}
	return record, nil
}

// LoadLatestSnapshot returns the run with the highest index score.
func (r *RedisPersistence) LoadLatestSnapshot() (*persistence.SnapshotRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	ids, err := r.client.ZRevRange(ctx, r.prefixKey(keyRunIndex), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	runID, err := uuid.Parse(ids[0])
	if err != nil {
		return nil, fmt.Errorf("corrupt run index entry %q: %w", ids[0], err)
	}
	return r.loadSnapshot(runID)
}

// ListSnapshotRuns returns run summaries sorted by CreatedAt.
func (r *RedisPersistence) ListSnapshotRuns() ([]*persistence.SnapshotRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	ids, err := r.client.ZRange(ctx, r.prefixKey(keyRunIndex), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list run IDs: %w", err)
	}

	runs := make([]*persistence.SnapshotRun, 0, len(ids))
	if len(ids) == 0 {
		return runs, nil
	}

	values, err := r.client.HMGet(ctx, r.prefixKey(keyRunSummaries), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run summaries: %w", err)
	}

	for i, val := range values {
		if val == nil {
			// In the index but without a summary - clean up index
			r.client.ZRem(ctx, r.prefixKey(keyRunIndex), ids[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for SnapshotRun", "runId", ids[i])
			continue
		}

		var run persistence.SnapshotRun
		if err := json.Unmarshal([]byte(data), &run); err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal SnapshotRun, skipping",
				"runId", ids[i], "error", err)
			continue
		}
		runs = append(runs, &run)
	}

	persistence.SortRuns(runs)
	return runs, nil
}

// DeleteSnapshot removes a run from the store and both indexes.
func (r *RedisPersistence) DeleteSnapshot(runID uuid.UUID) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	id := runID.String()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.snapshotKey(runID))
		pipe.ZRem(ctx, r.prefixKey(keyRunIndex), id)
		pipe.HDel(ctx, r.prefixKey(keyRunSummaries), id)
		return nil
	})
	return err
}

// Close shuts down the persistence layer
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}

	return nil
}

var _ persistence.ISnapshotPersistence = (*RedisPersistence)(nil)
