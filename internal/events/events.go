// Package events publishes domain events after successful mutations.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	UserCreated      = "user.created"
	UserFollowed     = "user.followed"
	UserUnfollowed   = "user.unfollowed"
	SubredditCreated = "subreddit.created"
	SubredditDeleted = "subreddit.deleted"
	MemberJoined     = "subreddit.joined"
	MemberLeft       = "subreddit.left"
	PostCreated      = "post.created"
	PostDeleted      = "post.deleted"
	CommentCreated   = "comment.created"
	CommentDeleted   = "comment.deleted"
	VoteCast         = "vote.cast"
	ReportCreated    = "report.created"
	ReportUpdated    = "report.updated"
)

// Event is one fact about the forum. Key groups related events onto one
// partition (usually the id of the affected document).
type Event struct {
	Type    string    `json:"type"`
	Key     string    `json:"key"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

func New(eventType, key string, payload any) Event {
	return Event{Type: eventType, Key: key, Payload: payload, At: time.Now().UTC()}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Publish failures never roll back the mutation
// that produced the event; callers log and continue.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the log. Used when no brokers are configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.Debug("event",
		zap.String("type", event.Type),
		zap.String("key", event.Key),
		zap.Any("payload", event.Payload))
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
