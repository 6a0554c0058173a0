// Package feed implements the row-change feed: mutations on comments and
// likes are published to NATS and fanned out to connected clients, which
// treat every event purely as an invalidation signal and re-fetch.
package feed

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject prefixes; the series id is appended as the final token.
const (
	SubjectComments = "feed.comments"
	SubjectLikes    = "feed.likes"
)

// Tables and actions carried in the event envelope.
const (
	TableComments = "comments"
	TableLikes    = "comment_likes"

	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event is the envelope sent on every feed.* subject. Consumers must not
// interpret it as an authoritative diff; delivery is at-least-once and
// unordered relative to other clients.
type Event struct {
	EventID    string    `json:"event_id"`
	Table      string    `json:"table"`
	Action     string    `json:"action"`
	SeriesID   string    `json:"series_id"`
	EpisodeID  *string   `json:"episode_id,omitempty"`
	CommentID  string    `json:"comment_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher publishes feed events to NATS.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	nc  *nats.Conn
	log *zap.Logger
}

// NewPublisher creates a Publisher on an existing connection.
// Pass nc=nil to get a no-op stub (tests, NATS-less development).
func NewPublisher(nc *nats.Conn, log *zap.Logger) *Publisher {
	return &Publisher{nc: nc, log: log}
}

// Publish sends a feed event (fire-and-forget). Failures are logged as
// warnings and never surface to the caller: the feed is advisory, the
// store row is already committed.
func (p *Publisher) Publish(subjectPrefix string, ev Event) {
	if p == nil || p.nc == nil {
		return
	}
	ev.EventID = uuid.NewString()
	ev.OccurredAt = time.Now().UTC()

	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("feed: marshal failed", zap.String("table", ev.Table), zap.Error(err))
		return
	}
	subject := subjectPrefix + "." + ev.SeriesID
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn("feed: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// CommentInserted is a convenience wrapper for a new comment or reply.
func (p *Publisher) CommentInserted(seriesID string, episodeID *string, commentID string) {
	p.Publish(SubjectComments, Event{
		Table:     TableComments,
		Action:    ActionInsert,
		SeriesID:  seriesID,
		EpisodeID: episodeID,
		CommentID: commentID,
	})
}

// LikeToggled reports a like row insert or delete plus the counter update.
func (p *Publisher) LikeToggled(seriesID, commentID string, liked bool) {
	action := ActionDelete
	if liked {
		action = ActionInsert
	}
	p.Publish(SubjectLikes, Event{
		Table:     TableLikes,
		Action:    action,
		SeriesID:  seriesID,
		CommentID: commentID,
	})
}
