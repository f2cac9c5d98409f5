package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"yelp_advisor/internal/domain"
)

type ExploreService struct {
	tables domain.TableSource
}

func NewExploreService(t domain.TableSource) *ExploreService {
	return &ExploreService{tables: t}
}

// Businesses lists businesses with their address decoded. Rows whose
// address fails to decode are still returned, without an address, and the
// decode errors are reported alongside.
func (s *ExploreService) Businesses(ctx context.Context, q domain.BusinessQuery) ([]domain.BusinessView, []error, error) {
	recs, err := s.tables.ListBusinesses(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	views, errs := ViewBusinesses(recs)
	logDecodeErrors("businesses", errs)
	return views, errs, nil
}

// Amenities flattens the amenities of the listed businesses.
func (s *ExploreService) Amenities(ctx context.Context, q domain.BusinessQuery) ([]domain.AmenityRow, []error, error) {
	recs, err := s.tables.ListBusinesses(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	rows, errs := FlattenAmenities(recs)
	logDecodeErrors("amenities", errs)
	return rows, errs, nil
}

// Reviews lists the reviews of one business, newest first.
func (s *ExploreService) Reviews(ctx context.Context, businessID string, pg domain.PageQuery) ([]domain.Review, error) {
	businessID = strings.TrimSpace(businessID)
	if _, err := s.tables.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}
	rs, err := s.tables.ListReviews(ctx, businessID, pg)
	if err != nil {
		return nil, err
	}
	// copy slice to avoid aliasing the source's backing array
	out := make([]domain.Review, len(rs))
	copy(out, rs)
	return out, nil
}

// MissingReviewCount lists businesses whose review count is the literal
// 'null'.
func (s *ExploreService) MissingReviewCount(ctx context.Context, limit int) ([]domain.BusinessView, []error, error) {
	recs, err := s.tables.BusinessesMissingReviewCount(ctx, limit)
	if err != nil {
		return nil, nil, err
	}
	views, errs := ViewBusinesses(recs)
	logDecodeErrors("missing_review_count", errs)
	return views, errs, nil
}

func logDecodeErrors(view string, errs []error) {
	for _, err := range errs {
		log.Warn().Err(err).Str("view", view).Msg("row decode failed")
	}
}
