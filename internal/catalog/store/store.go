package store

import (
	"context"
	"errors"
	"time"
)

// Series status values.
const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
)

// Series is a collection of episodes with aggregate metadata.
// Views and rating counters are denormalized on the row and only ever
// mutated through IncrementView / RateSeries / UpdateStatus.
type Series struct {
	ID                    string    `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	CoverImage            string    `json:"cover_image"`
	YouTubePlaylistID     *string   `json:"youtube_playlist_id,omitempty"`
	DailymotionPlaylistID *string   `json:"dailymotion_playlist_id,omitempty"`
	Views                 int64     `json:"views"`
	RatingSum             int64     `json:"rating_sum"`
	RatingCount           int64     `json:"rating_count"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// AverageRating returns the mean score, 0 when unrated.
func (s Series) AverageRating() float64 {
	if s.RatingCount == 0 {
		return 0
	}
	return float64(s.RatingSum) / float64(s.RatingCount)
}

// Episode is a single playable unit within a series. Read-only in this
// service; rows are written by the editorial import pipeline.
type Episode struct {
	ID                 string  `json:"id"`
	SeriesID           string  `json:"series_id"`
	Title              string  `json:"title"`
	Season             int32   `json:"season"`
	Number             int32   `json:"episode_number"`
	YouTubeVideoID     *string `json:"youtube_video_id,omitempty"`
	DailymotionVideoID *string `json:"dailymotion_video_id,omitempty"`
}

// Sentinel errors
var (
	ErrSeriesNotFound = errors.New("series not found")
	ErrInvalidStatus  = errors.New("status must be ongoing or completed")
	ErrInvalidScore   = errors.New("score must be between 1 and 10")
	ErrBadAdminCode   = errors.New("admin code mismatch")
)

// CatalogStore defines all persistence operations for the catalog.
type CatalogStore interface {
	ListSeries(ctx context.Context, limit, offset int) ([]Series, error)
	GetSeries(ctx context.Context, id string) (Series, error)
	ListEpisodes(ctx context.Context, seriesID string) ([]Episode, error)

	// IncrementView bumps the series view counter by one. Callers treat it
	// as best-effort; failures are logged and never retried.
	IncrementView(ctx context.Context, seriesID string) error

	// RateSeries folds a 1-10 score into the denormalized rating sum/count
	// and returns the updated series row.
	RateSeries(ctx context.Context, seriesID string, score int) (Series, error)

	// UpdateStatus sets the series status after checking the admin code.
	// Fails closed on a bad code or an unknown series.
	UpdateStatus(ctx context.Context, adminCode, seriesID, status string) error
}

// ValidStatus reports whether s is an accepted series status.
func ValidStatus(s string) bool {
	return s == StatusOngoing || s == StatusCompleted
}
