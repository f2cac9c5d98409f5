package domain

import "context"

// LLMClient sends a conversation to a serving endpoint and returns the
// generated text of the first choice.
type LLMClient interface {
	Query(ctx context.Context, endpoint string, messages []ChatMessage) (string, error)
}

// EndpointLister is implemented by clients that can enumerate the serving
// endpoints available to them.
type EndpointLister interface {
	ListEndpoints(ctx context.Context) ([]string, error)
}

// TableSource is the read-only query interface over the business datasets.
type TableSource interface {
	ListBusinesses(ctx context.Context, q BusinessQuery) ([]BusinessRecord, error)
	GetBusiness(ctx context.Context, id string) (BusinessRecord, error)
	ListReviews(ctx context.Context, businessID string, pg PageQuery) ([]Review, error)
	BusinessesMissingReviewCount(ctx context.Context, limit int) ([]BusinessRecord, error)
}

// ChartRenderer draws a chart. Implementations own all output I/O.
type ChartRenderer interface {
	Render(ctx context.Context, spec ChartSpec) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type BusinessQuery struct {
	Limit  int
	Offset int
}

type PageQuery struct {
	Limit int
	Sort  string
}
