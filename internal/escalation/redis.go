// ABOUTME: Redis pub/sub notifier so other services can react to new escalations
// ABOUTME: Publishes a JSON event per ticket; the excerpt is included only when notifications allow it
package escalation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is the payload published for each ticket
type Event struct {
	TicketID  string    `json:"ticket_id"`
	SessionID string    `json:"session_id"`
	Channel   string    `json:"channel"`
	Priority  string    `json:"priority"`
	Reason    string    `json:"reason"`
	Subject   string    `json:"subject"`
	Excerpt   string    `json:"excerpt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisNotifier publishes escalation events
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier connects lazily; url is a redis:// URL
func NewRedisNotifier(url, channel string) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisNotifier{client: redis.NewClient(opts), channel: channel}, nil
}

// Notify publishes one event
func (r *RedisNotifier) Notify(ctx context.Context, msg Message) error {
	ev := Event{Subject: msg.Subject, Excerpt: msg.Excerpt}
	if t := msg.Ticket; t != nil {
		ev.TicketID = t.ID
		ev.SessionID = t.SessionID
		ev.Channel = string(t.Channel)
		ev.Priority = string(t.Priority)
		ev.Reason = t.Reason
		ev.CreatedAt = t.CreatedAt
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", r.channel, err)
	}
	return nil
}

// Close releases the connection pool
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
