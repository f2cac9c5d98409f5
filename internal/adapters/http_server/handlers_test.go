package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelp_advisor/internal/app"
	"yelp_advisor/internal/domain"
)

type stubLLM struct{ reply string }

func (s stubLLM) Query(context.Context, string, []domain.ChatMessage) (string, error) {
	return s.reply, nil
}

type stubTables struct{}

func sp(s string) *string { return &s }

var stubBusinesses = []domain.BusinessRecord{
	{ID: "b1", Name: "Greens", AddressRaw: sp(`{"City":"San Francisco"}`), AmenitiesRaw: sp(`[{"available":true,"name":"wifi"},{"available":false,"name":"wifi"}]`)},
	{ID: "b2", Name: "Alamo Diner", ReviewsCount: sp("null"), AddressRaw: sp(`{bad`)},
}

func (stubTables) ListBusinesses(context.Context, domain.BusinessQuery) ([]domain.BusinessRecord, error) {
	return stubBusinesses, nil
}

func (stubTables) GetBusiness(_ context.Context, id string) (domain.BusinessRecord, error) {
	for _, b := range stubBusinesses {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.BusinessRecord{}, domain.ErrNotFound
}

func (stubTables) ListReviews(_ context.Context, id string, _ domain.PageQuery) ([]domain.Review, error) {
	return []domain.Review{{ID: "r1", BusinessID: id}}, nil
}

func (stubTables) BusinessesMissingReviewCount(context.Context, int) ([]domain.BusinessRecord, error) {
	return stubBusinesses[1:], nil
}

func newTestServer(reply string) http.Handler {
	s := New(0)
	s.MountHandlers(&Handlers{
		Recs:    app.NewRecommendService(stubLLM{reply: reply}, nil, app.RecommendOptions{Endpoint: "ep"}),
		Explore: app.NewExploreService(stubTables{}),
	})
	return s.Mux()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(""), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRecommend_RankedWithChart(t *testing.T) {
	reply := `[{"name":"A","rating":3,"accuracy":0.5},{"name":"B","rating":4.5,"accuracy":1}] done`
	rec := do(t, newTestServer(reply), http.MethodPost, "/v1/recommendations", `{"request":"vegan"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ep", out.Endpoint)
	assert.Equal(t, "vegan", out.Request)
	assert.NotEmpty(t, out.RunID)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "B", out.Items[0].Name)
	assert.Equal(t, "Top 10 Recommendations", out.Chart.Title)
	require.Len(t, out.Chart.Bars, 2)
	assert.Equal(t, "B", out.Chart.Bars[0].Label)
}

func TestRecommend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		body   string
		status int
		title  string
	}{
		{"bad body", "", `not json`, http.StatusBadRequest, "Invalid body"},
		{"empty request", "", `{"request":"  "}`, http.StatusBadRequest, "Invalid request"},
		{"no array", "I cannot help", `{"request":"x"}`, http.StatusBadGateway, "Malformed Reply"},
		{"missing rating", `[{"name":"A","accuracy":1}]`, `{"request":"x"}`, http.StatusBadGateway, "Schema Violation"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, newTestServer(tc.reply), http.MethodPost, "/v1/recommendations", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			var p problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
			assert.Equal(t, tc.title, p.Title)
			assert.Equal(t, tc.status, p.Status)
		})
	}
}

func TestBusinesses_DecodeErrorsReported(t *testing.T) {
	rec := do(t, newTestServer(""), http.MethodGet, "/v1/businesses?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var out listResponse[domain.BusinessView]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Items, 2)
	require.NotNil(t, out.Items[0].Address)
	assert.Equal(t, "San Francisco", out.Items[0].Address.City)
	assert.Nil(t, out.Items[1].Address)
	require.Len(t, out.DecodeErrors, 1)
	assert.Contains(t, out.DecodeErrors[0], "Alamo Diner")
}

func TestBusinesses_ETagNotModified(t *testing.T) {
	h := newTestServer("")
	first := do(t, h, http.MethodGet, "/v1/businesses", "")
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/v1/businesses", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestAmenities(t *testing.T) {
	rec := do(t, newTestServer(""), http.MethodGet, "/v1/businesses/amenities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out listResponse[domain.AmenityRow]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, []domain.AmenityRow{
		{Business: "Greens", Amenity: "wifi", Available: false},
		{Business: "Greens", Amenity: "wifi", Available: true},
	}, out.Items)
}

func TestMissingReviewCount(t *testing.T) {
	rec := do(t, newTestServer(""), http.MethodGet, "/v1/businesses/missing-review-count", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out listResponse[domain.BusinessView]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "b2", out.Items[0].ID)
}

func TestReviews(t *testing.T) {
	h := newTestServer("")

	rec := do(t, h, http.MethodGet, "/v1/businesses/b1/reviews?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out listResponse[domain.Review]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "b1", out.Items[0].BusinessID)

	rec = do(t, h, http.MethodGet, "/v1/businesses/nope/reviews", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/businesses/b1/reviews?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type failingReviews struct {
	stubTables
	err error
}

func (f failingReviews) ListReviews(context.Context, string, domain.PageQuery) ([]domain.Review, error) {
	return nil, f.err
}

func newReviewsServer(err error) http.Handler {
	s := New(0)
	s.MountHandlers(&Handlers{Explore: app.NewExploreService(failingReviews{err: err})})
	return s.Mux()
}

func TestReviews_StorageFailureIsServerError(t *testing.T) {
	h := newReviewsServer(errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	rec := do(t, h, http.MethodGet, "/v1/businesses/b1/reviews", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")

	var p problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Internal Error", p.Title)
}

func TestReviews_InvalidSortIsClientError(t *testing.T) {
	h := newReviewsServer(fmt.Errorf("review sort %q: %w", "bogus", domain.ErrInvalidSort))
	rec := do(t, h, http.MethodGet, "/v1/businesses/b1/reviews?sort=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var p problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Invalid sort", p.Title)
}
