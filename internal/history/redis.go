package history

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each site's history in the set `<prefix>:history:<site>`.
// It owns the client and closes it.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "jobscout"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(site string) (string, error) {
	k, err := siteKey(site)
	if err != nil {
		return "", err
	}
	return s.prefix + ":history:" + k, nil
}

func (s *RedisStore) Load(ctx context.Context, site string) (Set, error) {
	key, err := s.key(site)
	if err != nil {
		return nil, err
	}
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMEMBERS %s: %w", key, err)
	}
	set := make(Set, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set, nil
}

func (s *RedisStore) Append(ctx context.Context, site string, ids []string) error {
	key, err := s.key(site)
	if err != nil {
		return err
	}
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.client.SAdd(ctx, key, members...).Err(); err != nil {
		return fmt.Errorf("redis SADD %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
