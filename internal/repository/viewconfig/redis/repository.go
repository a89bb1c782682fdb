package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/videowall/server/internal/repository/viewconfig"
)

type repo struct {
	rc *redis.Client
}

func NewRepo(rc *redis.Client) *repo {
	return &repo{rc: rc}
}

func (r repo) getConfigKey(configId string) string {
	return "view-config:" + configId
}

func (r repo) getConfigListKey() string {
	return "view-configs"
}

func (r repo) getConfigSeqKey() string {
	return "view-configs:seq"
}

// Save writes the config hash and appends its id to the ordered index.
// Re-saving an existing id overwrites the hash and moves it to the end.
func (r repo) Save(ctx context.Context, cfg viewconfig.Config) error {
	seq, err := r.rc.Incr(ctx, r.getConfigSeqKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate config position: %w", err)
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, r.getConfigKey(cfg.Id), cfg)
	pipe.ZAdd(ctx, r.getConfigListKey(), redis.Z{
		Score:  float64(seq),
		Member: cfg.Id,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save view config: %w", err)
	}

	return nil
}

func (r repo) Get(ctx context.Context, configId string) (viewconfig.Config, error) {
	var cfg viewconfig.Config
	if err := r.rc.HGetAll(ctx, r.getConfigKey(configId)).Scan(&cfg); err != nil {
		return viewconfig.Config{}, fmt.Errorf("failed to get view config: %w", err)
	}

	if cfg.Id == "" {
		return viewconfig.Config{}, viewconfig.ErrNotFound
	}

	return cfg, nil
}

// List returns every saved config in save order.
func (r repo) List(ctx context.Context) ([]viewconfig.Config, error) {
	ids, err := r.rc.ZRange(ctx, r.getConfigListKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list view configs: %w", err)
	}

	configs := make([]viewconfig.Config, 0, len(ids))
	for _, id := range ids {
		cfg, err := r.Get(ctx, id)
		if err != nil {
			// index entries can outlive their hash; skip the strays
			continue
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

func (r repo) Delete(ctx context.Context, configId string) error {
	res, err := r.rc.Del(ctx, r.getConfigKey(configId)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete view config: %w", err)
	}
	if res == 0 {
		return viewconfig.ErrNotFound
	}

	if err := r.rc.ZRem(ctx, r.getConfigListKey(), configId).Err(); err != nil {
		return fmt.Errorf("failed to remove view config from index: %w", err)
	}

	return nil
}
