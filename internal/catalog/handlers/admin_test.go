package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/series-platform/internal/catalog/store"
)

func TestUpdateSeriesStatus(t *testing.T) {
	cs, sr := newSeededStore()
	handler := UpdateSeriesStatus(cs, nil)

	req := setupReq(http.MethodPatch, "/v1/admin/series/"+sr.ID+"/status",
		`{"admin_code":"editorial-secret","status":"completed"}`,
		map[string]string{"series_id": sr.ID})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	got, _ := cs.GetSeries(context.Background(), sr.ID)
	if got.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}
}

func TestUpdateSeriesStatus_BadCode(t *testing.T) {
	cs, sr := newSeededStore()
	handler := UpdateSeriesStatus(cs, nil)

	req := setupReq(http.MethodPatch, "/v1/admin/series/"+sr.ID+"/status",
		`{"admin_code":"wrong-code","status":"completed"}`,
		map[string]string{"series_id": sr.ID})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}

	got, _ := cs.GetSeries(context.Background(), sr.ID)
	if got.Status != store.StatusOngoing {
		t.Fatalf("status must be unchanged on bad code, got %q", got.Status)
	}
}

func TestUpdateSeriesStatus_InvalidStatus(t *testing.T) {
	cs, sr := newSeededStore()
	handler := UpdateSeriesStatus(cs, nil)

	req := setupReq(http.MethodPatch, "/v1/admin/series/"+sr.ID+"/status",
		`{"admin_code":"editorial-secret","status":"paused"}`,
		map[string]string{"series_id": sr.ID})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpdateSeriesStatus_NotFound(t *testing.T) {
	cs, _ := newSeededStore()
	handler := UpdateSeriesStatus(cs, nil)

	req := setupReq(http.MethodPatch, "/v1/admin/series/ghost/status",
		`{"admin_code":"editorial-secret","status":"completed"}`,
		map[string]string{"series_id": "ghost"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
