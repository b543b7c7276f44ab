package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minios-linux/pagetrans/config"
)

// RedisQueue is a job queue on a Redis list: producers RPUSH, workers BLPOP.
type RedisQueue struct {
	client *redis.Client
	key    string
	block  time.Duration
}

// NewRedisQueue connects to the queue configured by cfg.
func NewRedisQueue(ctx context.Context, cfg config.QueueConfig) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return newRedisQueue(client, cfg.Key, cfg.BlockTimeout), nil
}

func newRedisQueue(client *redis.Client, key string, block time.Duration) *RedisQueue {
	if block <= 0 {
		block = 5 * time.Second
	}
	return &RedisQueue{client: client, key: key, block: block}
}

// Enqueue appends job to the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := job.Encode()
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.client.RPush(ctx, q.key, data).Err()
}

// Dequeue waits up to the block timeout for a job. It returns (nil, nil)
// when none arrived.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	res, err := q.client.BLPop(ctx, q.block, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// res is [key, value]
	job, err := DecodeJob([]byte(res[1]))
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Close closes the client.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
