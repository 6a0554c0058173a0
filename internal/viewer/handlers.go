package viewer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/series-platform/internal/platform/api"
	"github.com/example/series-platform/internal/platform/httpserver"
)

// GetPrefs handles GET /v1/viewers/{viewer_id}/prefs.
// Unknown viewers get an empty preference set, not a 404; the frontend
// treats first visit and expired state identically.
func GetPrefs(ps PrefStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		viewerID := strings.TrimSpace(chi.URLParam(r, "viewer_id"))
		if viewerID == "" {
			api.BadRequest(w, "MISSING_ID", "viewer_id is required", rid, nil)
			return
		}

		p, err := ps.Get(r.Context(), viewerID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, p)
	}
}

// PutPrefs handles PUT /v1/viewers/{viewer_id}/prefs.
func PutPrefs(ps PrefStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		viewerID := strings.TrimSpace(chi.URLParam(r, "viewer_id"))
		if viewerID == "" {
			api.BadRequest(w, "MISSING_ID", "viewer_id is required", rid, nil)
			return
		}

		var p Preferences
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if err := p.Validate(); err != nil {
			switch {
			case errors.Is(err, ErrInvalidEmail):
				api.BadRequest(w, "INVALID_EMAIL", err.Error(), rid, nil)
			case errors.Is(err, ErrNameTooLong):
				api.BadRequest(w, "NAME_TOO_LONG", err.Error(), rid, nil)
			case errors.Is(err, ErrTooManyLikes):
				api.BadRequest(w, "LIKED_SET_TOO_LARGE", err.Error(), rid, nil)
			default:
				api.BadRequest(w, "INVALID_PREFS", err.Error(), rid, nil)
			}
			return
		}

		if err := ps.Put(r.Context(), viewerID, p); err != nil {
			api.Internal(w, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
