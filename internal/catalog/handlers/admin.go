package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/series-platform/internal/catalog/store"
	"github.com/example/series-platform/internal/platform/api"
	"github.com/example/series-platform/internal/platform/cache"
	"github.com/example/series-platform/internal/platform/httpserver"
)

type updateStatusRequest struct {
	AdminCode string `json:"admin_code"`
	Status    string `json:"status"`
}

// UpdateSeriesStatus handles PATCH /v1/admin/series/{series_id}/status.
//
// The route sits behind the admin JWT middleware; the admin code in the body
// is additionally checked inside the store, matching the stored-procedure
// contract. Bad code and missing series both fail closed.
func UpdateSeriesStatus(cs store.CatalogStore, rc *cache.RedisCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		seriesID := strings.TrimSpace(chi.URLParam(r, "series_id"))
		if seriesID == "" {
			api.BadRequest(w, "MISSING_ID", "series_id is required", rid, nil)
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		err := cs.UpdateStatus(r.Context(), req.AdminCode, seriesID, strings.TrimSpace(req.Status))
		if err != nil {
			switch {
			case errors.Is(err, store.ErrBadAdminCode):
				api.Forbidden(w, "BAD_ADMIN_CODE", "admin code mismatch", rid)
			case errors.Is(err, store.ErrInvalidStatus):
				api.BadRequest(w, "INVALID_STATUS", err.Error(), rid, nil)
			case errors.Is(err, store.ErrSeriesNotFound):
				api.NotFound(w, "SERIES_NOT_FOUND", "series not found", rid)
			default:
				api.Internal(w, rid)
			}
			return
		}

		_ = rc.Delete(r.Context(), seriesCacheKey(seriesID))
		w.WriteHeader(http.StatusNoContent)
	}
}
