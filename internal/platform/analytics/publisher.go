// Package analytics provides a fire-and-forget NATS publisher for analytics events.
// Handlers that produce business events import this package.
package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject constants for every analytics event type.
const (
	SubjectSeriesViewed    = "analytics.catalog.series_viewed"
	SubjectRatingSubmitted = "analytics.catalog.rating_submitted"
	SubjectCommentPosted   = "analytics.comments.posted"
)

// Event is the canonical envelope sent to all analytics.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes analytics events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub (useful in tests and deployments without NATS).
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	return &Publisher{js: js, log: log}
}

// Publish sends an analytics event asynchronously (fire-and-forget).
// Failures are logged as warnings and never surface to the caller.
// The publisher is safe to call with a nil receiver.
func (p *Publisher) Publish(subject, eventName string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("analytics: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("analytics: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// SeriesViewed records a view increment against a series.
func (p *Publisher) SeriesViewed(seriesID string) {
	p.Publish(SubjectSeriesViewed, "series_viewed", map[string]any{"series_id": seriesID})
}

// RatingSubmitted records an accepted rating.
func (p *Publisher) RatingSubmitted(seriesID string, score int) {
	p.Publish(SubjectRatingSubmitted, "rating_submitted", map[string]any{
		"series_id": seriesID,
		"score":     score,
	})
}

// CommentPosted records a stored comment or reply.
func (p *Publisher) CommentPosted(seriesID string, reply bool) {
	p.Publish(SubjectCommentPosted, "comment_posted", map[string]any{
		"series_id": seriesID,
		"reply":     reply,
	})
}
