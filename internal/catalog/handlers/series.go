package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/series-platform/internal/catalog/store"
	"github.com/example/series-platform/internal/platform/analytics"
	"github.com/example/series-platform/internal/platform/api"
	"github.com/example/series-platform/internal/platform/cache"
	"github.com/example/series-platform/internal/platform/httpserver"
	"github.com/example/series-platform/internal/player"
)

type seriesListResponse struct {
	Series []store.Series `json:"series"`
}

type seriesDetailResponse struct {
	store.Series
	AverageRating float64 `json:"average_rating"`
}

type episodeItem struct {
	store.Episode
	Embeds map[string]string `json:"embeds"`
}

type episodeListResponse struct {
	Episodes []episodeItem `json:"episodes"`
}

// episodeEmbeds maps provider name to embed URL for every provider that has
// an id on the episode.
func episodeEmbeds(ep store.Episode) map[string]string {
	out := map[string]string{}
	if ep.YouTubeVideoID != nil {
		out[player.ProviderYouTube] = player.YouTube{}.EmbedURL(*ep.YouTubeVideoID)
	}
	if ep.DailymotionVideoID != nil {
		out[player.ProviderDailymotion] = player.Dailymotion{}.EmbedURL(*ep.DailymotionVideoID)
	}
	return out
}

type rateRequest struct {
	Score int `json:"score"`
}

type ratingResponse struct {
	SeriesID      string  `json:"series_id"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}

func seriesCacheKey(id string) string { return "catalog:series:" + id }

// ListSeries handles GET /v1/series
func ListSeries(cs store.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		limit, offset := 50, 0
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}
		if o := r.URL.Query().Get("offset"); o != "" {
			if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
				offset = parsed
			}
		}

		list, err := cs.ListSeries(r.Context(), limit, offset)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		if list == nil {
			list = []store.Series{}
		}
		api.WriteJSON(w, http.StatusOK, seriesListResponse{Series: list})
	}
}

// GetSeries handles GET /v1/series/{series_id}, fronted by the read cache.
func GetSeries(cs store.CatalogStore, rc *cache.RedisCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		seriesID := strings.TrimSpace(chi.URLParam(r, "series_id"))
		if seriesID == "" {
			api.BadRequest(w, "MISSING_ID", "series_id is required", rid, nil)
			return
		}

		var cached seriesDetailResponse
		if hit, err := rc.Get(r.Context(), seriesCacheKey(seriesID), &cached); err == nil && hit {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		sr, err := cs.GetSeries(r.Context(), seriesID)
		if err != nil {
			if errors.Is(err, store.ErrSeriesNotFound) {
				api.NotFound(w, "SERIES_NOT_FOUND", "series not found", rid)
				return
			}
			api.Internal(w, rid)
			return
		}

		resp := seriesDetailResponse{Series: sr, AverageRating: sr.AverageRating()}
		_ = rc.Set(r.Context(), seriesCacheKey(seriesID), resp)
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// ListEpisodes handles GET /v1/series/{series_id}/episodes
func ListEpisodes(cs store.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		seriesID := strings.TrimSpace(chi.URLParam(r, "series_id"))
		if seriesID == "" {
			api.BadRequest(w, "MISSING_ID", "series_id is required", rid, nil)
			return
		}

		eps, err := cs.ListEpisodes(r.Context(), seriesID)
		if err != nil {
			if errors.Is(err, store.ErrSeriesNotFound) {
				api.NotFound(w, "SERIES_NOT_FOUND", "series not found", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		items := make([]episodeItem, 0, len(eps))
		for _, ep := range eps {
			items = append(items, episodeItem{Episode: ep, Embeds: episodeEmbeds(ep)})
		}
		api.WriteJSON(w, http.StatusOK, episodeListResponse{Episodes: items})
	}
}

// IncrementView handles POST /v1/series/{series_id}/view.
//
// The client calls this once on page load and then every 5 seconds while the
// embedded player reports a playing state. It is a gameable heuristic, not a
// metering system: no dedup, no session cap. Clients ignore failures.
func IncrementView(cs store.CatalogStore, ap *analytics.Publisher, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		seriesID := strings.TrimSpace(chi.URLParam(r, "series_id"))
		if seriesID == "" {
			api.BadRequest(w, "MISSING_ID", "series_id is required", rid, nil)
			return
		}

		if err := cs.IncrementView(r.Context(), seriesID); err != nil {
			if errors.Is(err, store.ErrSeriesNotFound) {
				api.NotFound(w, "SERIES_NOT_FOUND", "series not found", rid)
				return
			}
			log.Warn("view increment failed", zap.String("series_id", seriesID), zap.Error(err))
			api.Internal(w, rid)
			return
		}
		ap.SeriesViewed(seriesID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// RateSeries handles POST /v1/series/{series_id}/rating
func RateSeries(cs store.CatalogStore, rc *cache.RedisCache, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		seriesID := strings.TrimSpace(chi.URLParam(r, "series_id"))
		if seriesID == "" {
			api.BadRequest(w, "MISSING_ID", "series_id is required", rid, nil)
			return
		}

		var req rateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		sr, err := cs.RateSeries(r.Context(), seriesID, req.Score)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrInvalidScore):
				api.BadRequest(w, "INVALID_SCORE", err.Error(), rid, nil)
			case errors.Is(err, store.ErrSeriesNotFound):
				api.NotFound(w, "SERIES_NOT_FOUND", "series not found", rid)
			default:
				api.Internal(w, rid)
			}
			return
		}

		_ = rc.Delete(r.Context(), seriesCacheKey(seriesID))
		ap.RatingSubmitted(sr.ID, req.Score)
		api.WriteJSON(w, http.StatusOK, ratingResponse{
			SeriesID:      sr.ID,
			AverageRating: sr.AverageRating(),
			RatingCount:   sr.RatingCount,
		})
	}
}
