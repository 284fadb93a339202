package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisSnapshots stores snapshots as JSON strings with a sorted-set index
// scored by creation time.
type RedisSnapshots struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisSnapshots)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisSnapshots) {
		r.ttl = ttl
	}
}

func WithPrefix(prefix string) RedisOption {
	return func(r *RedisSnapshots) {
		r.prefix = prefix
	}
}

func NewRedisSnapshots(addr string, opts ...RedisOption) *RedisSnapshots {
	return NewRedisSnapshotsFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

func NewRedisSnapshotsFromClient(client *backend.Client, opts ...RedisOption) *RedisSnapshots {
	r := &RedisSnapshots{
		client: client,
		prefix: "jointsim:snapshot:",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisSnapshots) key(id string) string {
	return r.prefix + id
}

func (r *RedisSnapshots) indexKey() string {
	return r.prefix + "index"
}

func (r *RedisSnapshots) Put(ctx context.Context, snap *Snapshot) (string, error) {
	prepare(snap)
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(snap.ID), data, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{
		Score:  float64(snap.Created.UnixNano()),
		Member: snap.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	return snap.ID, nil
}

func (r *RedisSnapshots) Get(ctx context.Context, id string) (*Snapshot, error) {
	val, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", id, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// List returns ids oldest first. Index entries whose value expired are
// dropped on the way.
func (r *RedisSnapshots) List(ctx context.Context) ([]string, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	exists, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	live := make([]string, 0, len(ids))
	var stale []any
	for i, v := range exists {
		if v == nil {
			stale = append(stale, ids[i])
			continue
		}
		live = append(live, ids[i])
	}
	if len(stale) > 0 {
		r.client.ZRem(ctx, r.indexKey(), stale...)
	}
	return live, nil
}

func (r *RedisSnapshots) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.key(id))
	pipe.ZRem(ctx, r.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

func (r *RedisSnapshots) Close() error {
	return r.client.Close()
}
