package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/series-platform/internal/comments/store"
	"github.com/example/series-platform/internal/feed"
	"github.com/example/series-platform/internal/platform/analytics"
	"github.com/example/series-platform/internal/platform/api"
	"github.com/example/series-platform/internal/platform/httpserver"
)

type createCommentRequest struct {
	Content     string  `json:"content"`
	AuthorName  string  `json:"author_name"`
	AuthorEmail string  `json:"author_email,omitempty"`
	EpisodeID   *string `json:"episode_id,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
}

type toggleLikeRequest struct {
	UserIdentifier string `json:"user_identifier"`
}

type commentListResponse struct {
	Comments []store.CommentWithStats `json:"comments"`
}

type replyListResponse struct {
	Replies []store.Comment `json:"replies"`
}

// CreateComment handles POST /v1/series/{series_id}/comments
func CreateComment(cs store.CommentStore, pub *feed.Publisher, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		seriesID := strings.TrimSpace(chi.URLParam(r, "series_id"))
		if seriesID == "" {
			api.BadRequest(w, "MISSING_ID", "series_id is required", rid, nil)
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		created, err := cs.Create(r.Context(), store.CreateCommentInput{
			SeriesID:    seriesID,
			EpisodeID:   req.EpisodeID,
			ParentID:    req.ParentID,
			Content:     req.Content,
			AuthorName:  req.AuthorName,
			AuthorEmail: req.AuthorEmail,
		})
		if err != nil {
			writeCommentError(w, rid, err)
			return
		}

		pub.CommentInserted(created.SeriesID, created.EpisodeID, created.ID)
		ap.CommentPosted(created.SeriesID, created.ParentID != nil)
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// ListComments handles GET /v1/series/{series_id}/comments
func ListComments(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		seriesID := strings.TrimSpace(chi.URLParam(r, "series_id"))
		if seriesID == "" {
			api.BadRequest(w, "MISSING_ID", "series_id is required", rid, nil)
			return
		}

		q := store.ListQuery{SeriesID: seriesID, Limit: 50}
		if ep := strings.TrimSpace(r.URL.Query().Get("episode_id")); ep != "" {
			q.EpisodeID = &ep
		}
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
				q.Limit = parsed
			}
		}
		if o := r.URL.Query().Get("offset"); o != "" {
			if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
				q.Offset = parsed
			}
		}

		list, err := cs.ListWithStats(r.Context(), q)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, commentListResponse{Comments: list})
	}
}

// ListReplies handles GET /v1/comments/{comment_id}/replies
func ListReplies(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		replies, err := cs.ListReplies(r.Context(), commentID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, replyListResponse{Replies: replies})
	}
}

// ToggleLike handles POST /v1/comments/{comment_id}/like
func ToggleLike(cs store.CommentStore, pub *feed.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		var req toggleLikeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		res, err := cs.ToggleLike(r.Context(), commentID, req.UserIdentifier)
		if err != nil {
			writeCommentError(w, rid, err)
			return
		}

		pub.LikeToggled(res.SeriesID, commentID, res.UserLiked)
		api.WriteJSON(w, http.StatusOK, res)
	}
}

// writeCommentError maps store sentinels onto the HTTP error envelope.
func writeCommentError(w http.ResponseWriter, rid string, err error) {
	switch {
	case errors.Is(err, store.ErrEmptyContent):
		api.BadRequest(w, "EMPTY_CONTENT", err.Error(), rid, nil)
	case errors.Is(err, store.ErrContentTooLong):
		api.BadRequest(w, "CONTENT_TOO_LONG", err.Error(), rid, nil)
	case errors.Is(err, store.ErrEmptyAuthorName):
		api.BadRequest(w, "EMPTY_AUTHOR", err.Error(), rid, nil)
	case errors.Is(err, store.ErrAuthorNameTooLong):
		api.BadRequest(w, "AUTHOR_TOO_LONG", err.Error(), rid, nil)
	case errors.Is(err, store.ErrInvalidEmail):
		api.BadRequest(w, "INVALID_EMAIL", err.Error(), rid, nil)
	case errors.Is(err, store.ErrEmptyUserID):
		api.BadRequest(w, "MISSING_USER_IDENTIFIER", err.Error(), rid, nil)
	case errors.Is(err, store.ErrParentNotTopLevel):
		api.BadRequest(w, "PARENT_NOT_TOP_LEVEL", err.Error(), rid, nil)
	case errors.Is(err, store.ErrSeriesNotFound):
		api.NotFound(w, "SERIES_NOT_FOUND", err.Error(), rid)
	case errors.Is(err, store.ErrEpisodeNotFound):
		api.NotFound(w, "EPISODE_NOT_FOUND", err.Error(), rid)
	case errors.Is(err, store.ErrParentNotFound):
		api.NotFound(w, "PARENT_NOT_FOUND", err.Error(), rid)
	case errors.Is(err, store.ErrCommentNotFound):
		api.NotFound(w, "COMMENT_NOT_FOUND", err.Error(), rid)
	default:
		api.Internal(w, rid)
	}
}
