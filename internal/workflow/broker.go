package workflow

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darkruden/mock-interview-ai/internal/workers"
)

// Execution is one named workflow run. The name doubles as the
// idempotency token: claiming it a second time fails, which is how
// duplicate storage-event deliveries collapse to a single run.
type Execution struct {
	Name    string
	Attempt int
	Input   workers.ProcessInput
}

// Broker carries executions from the trigger to the worker pool with
// at-least-once delivery, and owns the idempotency claim.
type Broker interface {
	// ClaimExecution reserves the execution name. False means the name is
	// already claimed (duplicate delivery).
	ClaimExecution(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Enqueue(ctx context.Context, ex Execution) error
	// Consume blocks, delivering executions to handle until ctx is done.
	Consume(ctx context.Context, consumer string, handle func(context.Context, Execution))
}

// RedisBroker implements Broker on a redis stream with a consumer group,
// claims via SETNX.
type RedisBroker struct {
	rdb *redis.Client

	Stream      string
	Group       string
	ClaimPrefix string
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{
		rdb:         rdb,
		Stream:      "sessions:process",
		Group:       "session-workers",
		ClaimPrefix: "execution:",
	}
}

func (b *RedisBroker) ClaimExecution(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return b.rdb.SetNX(ctx, b.ClaimPrefix+name, "1", ttl).Result()
}

func (b *RedisBroker) Enqueue(ctx context.Context, ex Execution) error {
	return b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: b.Stream,
		Values: map[string]any{
			"name":       ex.Name,
			"attempt":    strconv.Itoa(ex.Attempt),
			"session_id": ex.Input.SessionID,
			"bucket":     ex.Input.Bucket,
			"key":        ex.Input.Key,
		},
	}).Err()
}

func (b *RedisBroker) Consume(ctx context.Context, consumer string, handle func(context.Context, Execution)) {
	_ = b.rdb.XGroupCreateMkStream(ctx, b.Stream, b.Group, "0").Err() // ignore BUSYGROUP

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.Group,
			Consumer: consumer,
			Streams:  []string{b.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				handle(ctx, decodeExecution(msg))
				_ = b.rdb.XAck(ctx, b.Stream, b.Group, msg.ID).Err()
			}
		}
	}
}

func decodeExecution(msg redis.XMessage) Execution {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	attempt, _ := strconv.Atoi(getStr("attempt"))
	if attempt < 1 {
		attempt = 1
	}

	return Execution{
		Name:    getStr("name"),
		Attempt: attempt,
		Input: workers.ProcessInput{
			SessionID: getStr("session_id"),
			Bucket:    getStr("bucket"),
			Key:       getStr("key"),
		},
	}
}
