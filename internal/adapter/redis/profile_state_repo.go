package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AnkitRegmi1/TruSwap/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	profileKeyPrefix = "profile:"
	sessionKeyPrefix = "session:"

	scanBatchSize = 100
)

type profileStateRepository struct {
	client *redis.Client
}

func NewProfileStateRepository(client *redis.Client) repository.ProfileStateRepository {
	return &profileStateRepository{
		client: client,
	}
}

func (r *profileStateRepository) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, profileKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to get profile key %s from redis: %w", key, err)
	}
	return val, nil
}

func (r *profileStateRepository) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, profileKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set profile key %s in redis: %w", key, err)
	}
	return nil
}

func (r *profileStateRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, profileKeyPrefix+k)
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to delete profile keys from redis: %w", err)
	}
	return nil
}

func (r *profileStateRepository) Keys(ctx context.Context) ([]string, error) {
	return r.scanKeys(ctx, profileKeyPrefix)
}

func (r *profileStateRepository) GetSession(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, sessionKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to get session key %s from redis: %w", key, err)
	}
	return val, nil
}

func (r *profileStateRepository) SetSession(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, sessionKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set session key %s in redis: %w", key, err)
	}
	return nil
}

func (r *profileStateRepository) DeleteSession(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete session key %s from redis: %w", key, err)
	}
	return nil
}

func (r *profileStateRepository) ClearSession(ctx context.Context) error {
	keys, err := r.scanKeys(ctx, sessionKeyPrefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, sessionKeyPrefix+k)
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to clear session namespace in redis: %w", err)
	}
	return nil
}

// scanKeys walks the keyspace with SCAN and returns logical key names with
// the namespace prefix stripped.
func (r *profileStateRepository) scanKeys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan redis keys with prefix %s: %w", prefix, err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
