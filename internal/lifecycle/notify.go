package lifecycle

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Intent kinds. Each successful mutation produces exactly one intent for
// the counterpart actor; delivery is someone else's job.
const (
	IntentStatusChanged      = "status_changed"
	IntentInterviewScheduled = "interview_scheduled"
	IntentInterviewCancelled = "interview_cancelled"
	IntentFeedbackReceived   = "feedback_received"
	IntentInterviewReminder  = "interview_reminder"
)

// Intent describes an event the external notification system must deliver.
type Intent struct {
	Kind          string            `json:"kind"`
	ApplicationID string            `json:"applicationId"`
	RecipientID   string            `json:"recipientId"`
	Payload       map[string]string `json:"payload,omitempty"`
}

// Emitter hands off notification intents. Emit is fire-and-forget from the
// engine's perspective: a delivery failure never fails the operation that
// produced the intent.
type Emitter interface {
	Emit(ctx context.Context, intent Intent) error
}

// RedisEmitter publishes intents on a per-kind Redis channel for the
// notification service to consume.
type RedisEmitter struct {
	rdb *redis.Client
}

// NewRedisEmitter returns a configured RedisEmitter.
func NewRedisEmitter(rdb *redis.Client) *RedisEmitter {
	return &RedisEmitter{rdb: rdb}
}

// Emit publishes the intent as JSON on the channel named after its kind.
func (e *RedisEmitter) Emit(ctx context.Context, intent Intent) error {
	event, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	return e.rdb.Publish(ctx, intent.Kind, event).Err()
}
