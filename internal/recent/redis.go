package recent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"job-bot-go/internal/models"
)

var _ Buffer = (*RedisBuffer)(nil)

// RedisBuffer stores the recent jobs in a Redis list so several bot
// processes share one window.
type RedisBuffer struct {
	rdb      *redis.Client
	key      string
	capacity int
	logger   zerolog.Logger
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func NewRedisBuffer(rdb *redis.Client, key string, capacity int, logger zerolog.Logger) *RedisBuffer {
	return &RedisBuffer{
		rdb:      rdb,
		key:      key,
		capacity: capacity,
		logger:   logger.With().Str("component", "recent").Logger(),
	}
}

// Add appends jobs and trims the list to the capacity in one transaction.
func (b *RedisBuffer) Add(ctx context.Context, jobs []models.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(jobs))
	for _, job := range jobs {
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to encode job: %w", err)
		}
		values = append(values, data)
	}

	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, b.key, values...)
		pipe.LTrim(ctx, b.key, int64(-b.capacity), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push recent jobs: %w", err)
	}
	return nil
}

func (b *RedisBuffer) Latest(ctx context.Context, n int) ([]models.Job, error) {
	if n <= 0 {
		return []models.Job{}, nil
	}

	raw, err := b.rdb.LRange(ctx, b.key, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent jobs: %w", err)
	}

	jobs := make([]models.Job, 0, len(raw))
	for _, item := range raw {
		var job models.Job
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			b.logger.Debug().Err(err).Msg("skipping corrupt recent job")
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
