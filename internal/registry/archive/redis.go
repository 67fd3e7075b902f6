package archive

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"egrul/internal/registry/models"
)

const redisKeyPrefix = "egrul:document:"

// RedisArchive stores each document as a hash with a TTL.
type RedisArchive struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisArchive(client redis.UniversalClient, ttl time.Duration) *RedisArchive {
	return &RedisArchive{client: client, ttl: ttl}
}

func (a *RedisArchive) Name() string { return "redis" }

func (a *RedisArchive) Save(ctx context.Context, doc *models.Document) error {
	if doc == nil || !doc.Loaded || doc.Token == "" {
		return nil
	}
	key := redisKeyPrefix + doc.Token
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"content", doc.Content,
			"fetched_at", strconv.FormatInt(doc.FetchedAt.UnixNano(), 10),
		)
		if a.ttl > 0 {
			pipe.Expire(ctx, key, a.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save document to redis: %w", err)
	}
	return nil
}

func (a *RedisArchive) Find(ctx context.Context, token string) (*models.Document, error) {
	fields, err := a.client.HGetAll(ctx, redisKeyPrefix+token).Result()
	if err != nil {
		return nil, fmt.Errorf("find document in redis: %w", err)
	}
	content, ok := fields["content"]
	if !ok || content == "" {
		return nil, ErrNotFound
	}
	var fetchedAt time.Time
	if ns, err := strconv.ParseInt(fields["fetched_at"], 10, 64); err == nil {
		fetchedAt = time.Unix(0, ns)
	}
	return models.NewDocument(token, []byte(content), fetchedAt), nil
}
