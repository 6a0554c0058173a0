// Package store persists series comments and their likes.
//
// The like toggle is deliberately a single atomic store operation: the
// (comment_id, user_identifier) uniqueness constraint and the denormalized
// counter are maintained inside one transaction, so concurrent identical
// toggles cannot drift the counter.
package store

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Limits for user-supplied comment fields, in characters, applied after
// trimming.
const (
	MaxContentLen    = 2000
	MaxAuthorNameLen = 100
)

// Toggle actions returned by ToggleLike.
const (
	ActionLiked   = "liked"
	ActionUnliked = "unliked"
)

// Comment represents a single comment row. Top-level comments have a nil
// ParentID; replies reference a top-level comment of the same series.
type Comment struct {
	ID          string    `json:"id"`
	SeriesID    string    `json:"series_id"`
	EpisodeID   *string   `json:"episode_id,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	Content     string    `json:"content"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail *string   `json:"author_email,omitempty"`
	LikesCount  int       `json:"likes_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommentWithStats is a top-level comment annotated with its reply count.
type CommentWithStats struct {
	Comment
	ReplyCount int `json:"reply_count"`
}

// ToggleResult describes the outcome of a like toggle. SeriesID is carried
// for change-feed publication and stays out of the wire payload.
type ToggleResult struct {
	Action     string `json:"action"`
	LikesCount int    `json:"likes_count"`
	UserLiked  bool   `json:"user_liked"`
	SeriesID   string `json:"-"`
}

// CreateCommentInput carries the raw fields of a comment submission.
// Normalization (trimming, blank email to nil) happens inside Create.
type CreateCommentInput struct {
	SeriesID    string
	EpisodeID   *string
	ParentID    *string
	Content     string
	AuthorName  string
	AuthorEmail string
}

// ListQuery selects a page of top-level comments for a series, optionally
// narrowed to one episode.
type ListQuery struct {
	SeriesID  string
	EpisodeID *string
	Limit     int
	Offset    int
}

// Sentinel errors
var (
	ErrEmptyContent      = errors.New("content must not be blank")
	ErrContentTooLong    = errors.New("content exceeds 2000 characters")
	ErrEmptyAuthorName   = errors.New("author name must not be blank")
	ErrAuthorNameTooLong = errors.New("author name exceeds 100 characters")
	ErrInvalidEmail      = errors.New("author email is not a valid address")
	ErrEmptyUserID       = errors.New("user identifier must not be blank")
	ErrSeriesNotFound    = errors.New("series not found")
	ErrEpisodeNotFound   = errors.New("episode not found in series")
	ErrParentNotFound    = errors.New("parent comment not found in series")
	ErrParentNotTopLevel = errors.New("replies can only target top-level comments")
	ErrCommentNotFound   = errors.New("comment not found")
)

// CommentStore defines the contract for comment persistence.
type CommentStore interface {
	// Create validates and inserts a new top-level comment or reply and
	// returns the stored row. No counters elsewhere are touched.
	Create(ctx context.Context, in CreateCommentInput) (Comment, error)

	// ToggleLike flips the caller's like on a comment and returns the action
	// taken with the resulting counter and liked state.
	ToggleLike(ctx context.Context, commentID, userIdentifier string) (ToggleResult, error)

	// ListWithStats returns top-level comments newest-first with reply counts.
	ListWithStats(ctx context.Context, q ListQuery) ([]CommentWithStats, error)

	// ListReplies returns the direct replies of a comment, oldest-first.
	ListReplies(ctx context.Context, parentID string) ([]Comment, error)
}

// normalize trims the input fields and validates lengths and email format.
// The returned input has Content/AuthorName trimmed and AuthorEmail either
// empty or a syntactically valid address.
func (in CreateCommentInput) normalize() (CreateCommentInput, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	in.AuthorEmail = strings.TrimSpace(in.AuthorEmail)

	if in.Content == "" {
		return in, ErrEmptyContent
	}
	if utf8.RuneCountInString(in.Content) > MaxContentLen {
		return in, ErrContentTooLong
	}
	if in.AuthorName == "" {
		return in, ErrEmptyAuthorName
	}
	if utf8.RuneCountInString(in.AuthorName) > MaxAuthorNameLen {
		return in, ErrAuthorNameTooLong
	}
	if in.AuthorEmail != "" {
		addr, err := mail.ParseAddress(in.AuthorEmail)
		if err != nil || addr.Address != in.AuthorEmail {
			return in, ErrInvalidEmail
		}
	}
	return in, nil
}

func trimIdentifier(s string) string { return strings.TrimSpace(s) }

// emailOrNil maps a blank email to nil for storage.
func emailOrNil(email string) *string {
	if email == "" {
		return nil
	}
	return &email
}

func clampPage(q ListQuery) ListQuery {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
