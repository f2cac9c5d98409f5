package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"yelp_advisor/internal/app"
	"yelp_advisor/internal/domain"
)

type Handlers struct {
	Recs    *app.RecommendService
	Explore *app.ExploreService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type recommendRequest struct {
	Request string `json:"request"`
}

type recommendResponse struct {
	RunID    string                  `json:"run_id"`
	Endpoint string                  `json:"endpoint"`
	Request  string                  `json:"request"`
	Items    []domain.Recommendation `json:"items"`
	Chart    domain.ChartSpec        `json:"chart"`
}

type listResponse[T any] struct {
	Items        []T      `json:"items"`
	DecodeErrors []string `json:"decode_errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	if h.Recs != nil {
		s.mux.Post("/v1/recommendations", h.recommend)
	}
	if h.Explore != nil {
		s.mux.Get("/v1/businesses", h.listBusinesses)
		s.mux.Get("/v1/businesses/amenities", h.listAmenities)
		s.mux.Get("/v1/businesses/missing-review-count", h.missingReviewCount)
		s.mux.Get("/v1/businesses/{id}/reviews", h.listReviews)
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeCached writes v as JSON with a weak ETag, answering 304 when the
// client already has it.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

// parseLimit reads ?limit= in [1, 200], defaulting to def.
func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	ls := r.URL.Query().Get("limit")
	if ls == "" {
		return def, true
	}
	l, err := strconv.Atoi(ls)
	if err != nil || l <= 0 || l > 200 {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
		return 0, false
	}
	return l, true
}

func errStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

func (h *Handlers) recommend(w http.ResponseWriter, r *http.Request) {
	var in recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected JSON object with a request field")
		return
	}

	set, err := h.Recs.Recommend(r.Context(), in.Request)
	if err != nil {
		h.recommendError(w, err)
		return
	}
	chart, err := app.BuildChart(set.Items)
	if err != nil {
		h.recommendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{
		RunID:    set.RunID,
		Endpoint: set.Endpoint,
		Request:  set.Request,
		Items:    app.Ranked(set.Items),
		Chart:    chart,
	})
}

func (h *Handlers) recommendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyRequest):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, domain.ErrMalformedReply):
		writeProblem(w, http.StatusBadGateway, "Malformed Reply", err.Error())
	case errors.Is(err, domain.ErrSchemaViolation):
		writeProblem(w, http.StatusBadGateway, "Schema Violation", err.Error())
	case errors.Is(err, app.ErrNoEndpoint):
		writeProblem(w, http.StatusServiceUnavailable, "No Endpoint", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Upstream Timeout", "serving endpoint did not answer in time")
	default:
		log.Error().Err(err).Msg("recommendation failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "serving endpoint request failed")
	}
}

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 50)
	if !ok {
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	views, errs, err := h.Explore.Businesses(r.Context(), domain.BusinessQuery{Limit: limit, Offset: offset})
	if err != nil {
		log.Error().Err(err).Msg("list businesses failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not list businesses")
		return
	}
	writeCached(w, r, listResponse[domain.BusinessView]{Items: views, DecodeErrors: errStrings(errs)})
}

func (h *Handlers) listAmenities(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 50)
	if !ok {
		return
	}
	rows, errs, err := h.Explore.Amenities(r.Context(), domain.BusinessQuery{Limit: limit})
	if err != nil {
		log.Error().Err(err).Msg("list amenities failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not list amenities")
		return
	}
	writeCached(w, r, listResponse[domain.AmenityRow]{Items: rows, DecodeErrors: errStrings(errs)})
}

func (h *Handlers) missingReviewCount(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 50)
	if !ok {
		return
	}
	views, errs, err := h.Explore.MissingReviewCount(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("missing review count query failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not query businesses")
		return
	}
	writeCached(w, r, listResponse[domain.BusinessView]{Items: views, DecodeErrors: errStrings(errs)})
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, ok := parseLimit(w, r, 50)
	if !ok {
		return
	}
	sort := r.URL.Query().Get("sort")
	if sort == "" {
		sort = "-date"
	}
	out, err := h.Explore.Reviews(r.Context(), id, domain.PageQuery{Limit: limit, Sort: sort})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeProblem(w, http.StatusNotFound, "Not Found", "business not found")
		case errors.Is(err, domain.ErrInvalidSort):
			writeProblem(w, http.StatusBadRequest, "Invalid sort", "sort must be one of -date, date, -rating, rating")
		default:
			log.Error().Err(err).Str("id", id).Msg("list reviews failed")
			writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not list reviews")
		}
		return
	}
	writeCached(w, r, listResponse[domain.Review]{Items: out})
}
