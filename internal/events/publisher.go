package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/darkruden/mock-interview-ai/internal/models"
)

// StatusEvent is pushed on every session status change so subscribed
// clients see progress without polling the record store.
type StatusEvent struct {
	Type         string        `json:"type"` // always "status"
	SessionID    string        `json:"session_id"`
	Status       models.Status `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Publisher fans session status changes out to interested subscribers.
// Publishing is fire-and-forget: a lost event only delays a polling client.
type Publisher interface {
	PublishStatus(ctx context.Context, ev StatusEvent) error
}

// StatusChannel names the pub/sub channel for one session's events.
func StatusChannel(sessionID string) string {
	return "session:" + sessionID + ":status"
}

type redisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) Publisher {
	return &redisPublisher{rdb: rdb}
}

func (p *redisPublisher) PublishStatus(ctx context.Context, ev StatusEvent) error {
	ev.Type = "status"
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, StatusChannel(ev.SessionID), string(payload)).Err()
}
