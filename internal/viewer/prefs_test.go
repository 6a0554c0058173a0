package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferences_Validate(t *testing.T) {
	p := Preferences{Name: "  Alex ", Email: " alex@example.com "}
	require.NoError(t, p.Validate())
	assert.Equal(t, "Alex", p.Name)
	assert.Equal(t, "alex@example.com", p.Email)
	assert.NotNil(t, p.LikedCommentIDs)

	bad := Preferences{Email: "not-an-email"}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidEmail)

	long := Preferences{Name: strings.Repeat("a", 101)}
	assert.ErrorIs(t, long.Validate(), ErrNameTooLong)

	// The limit counts characters, not bytes.
	multibyte := Preferences{Name: strings.Repeat("é", 100)}
	require.NoError(t, multibyte.Validate())
	tooManyRunes := Preferences{Name: strings.Repeat("é", 101)}
	assert.ErrorIs(t, tooManyRunes.Validate(), ErrNameTooLong)

	huge := Preferences{LikedCommentIDs: make([]string, MaxLikedIDs+1)}
	assert.ErrorIs(t, huge.Validate(), ErrTooManyLikes)
}

func TestInMemoryPrefStore_RoundTrip(t *testing.T) {
	s := NewInMemoryPrefStore()
	ctx := context.Background()

	// Unknown viewer yields an empty set, not an error.
	p, err := s.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, p.LikedCommentIDs)

	want := Preferences{Name: "Alex", Email: "alex@example.com", LikedCommentIDs: []string{"c1", "c2"}}
	require.NoError(t, s.Put(ctx, "v1", want))

	got, err := s.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func prefReq(method, url, body, viewerID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("viewer_id", viewerID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestPutThenGetPrefs(t *testing.T) {
	s := NewInMemoryPrefStore()

	put := PutPrefs(s)
	rr := httptest.NewRecorder()
	put.ServeHTTP(rr, prefReq(http.MethodPut, "/v1/viewers/v1/prefs",
		`{"name":"Alex","email":"alex@example.com","liked_comment_ids":["c1"]}`, "v1"))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	get := GetPrefs(s)
	rr = httptest.NewRecorder()
	get.ServeHTTP(rr, prefReq(http.MethodGet, "/v1/viewers/v1/prefs", "", "v1"))
	require.Equal(t, http.StatusOK, rr.Code)

	var p Preferences
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	assert.Equal(t, "Alex", p.Name)
	assert.Equal(t, []string{"c1"}, p.LikedCommentIDs)
}

func TestPutPrefs_InvalidEmail(t *testing.T) {
	s := NewInMemoryPrefStore()

	put := PutPrefs(s)
	rr := httptest.NewRecorder()
	put.ServeHTTP(rr, prefReq(http.MethodPut, "/v1/viewers/v1/prefs",
		`{"email":"nope"}`, "v1"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
