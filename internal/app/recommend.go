package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"yelp_advisor/internal/adapters/observability"
	"yelp_advisor/internal/domain"
)

var (
	ErrEmptyRequest = errors.New("request is required")
	ErrNoEndpoint   = errors.New("no serving endpoint available")
)

type RecommendOptions struct {
	Endpoint      string // empty: first endpoint listed by the client
	Location      string
	ExpectedCount int
	CacheTTL      time.Duration
}

type RecommendService struct {
	llm      domain.LLMClient
	cache    domain.Cache // optional
	cacheTTL time.Duration
	builder  RequestBuilder
	expected int

	mu       sync.Mutex
	endpoint string
}

func NewRecommendService(c domain.LLMClient, cache domain.Cache, opts RecommendOptions) *RecommendService {
	if opts.ExpectedCount <= 0 {
		opts.ExpectedCount = DefaultExpectedCount
	}
	return &RecommendService{
		llm:      c,
		cache:    cache,
		cacheTTL: opts.CacheTTL,
		builder:  RequestBuilder{Location: opts.Location, Count: opts.ExpectedCount},
		expected: opts.ExpectedCount,
		endpoint: strings.TrimSpace(opts.Endpoint),
	}
}

// Endpoint returns the configured endpoint, or resolves and remembers the
// first one the client lists.
func (s *RecommendService) Endpoint(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endpoint != "" {
		return s.endpoint, nil
	}
	lister, ok := s.llm.(domain.EndpointLister)
	if !ok {
		return "", ErrNoEndpoint
	}
	names, err := lister.ListEndpoints(ctx)
	if err != nil {
		return "", fmt.Errorf("list serving endpoints: %w", err)
	}
	if len(names) == 0 {
		return "", ErrNoEndpoint
	}
	s.endpoint = names[0]
	log.Info().Str("endpoint", s.endpoint).Msg("using first listed serving endpoint")
	return s.endpoint, nil
}

// Recommend runs one request through the serving endpoint.
//
// On SchemaViolation the returned set still holds the records that parsed;
// the caller decides whether to use them. Such sets are never cached.
func (s *RecommendService) Recommend(ctx context.Context, request string) (domain.RecommendationSet, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return domain.RecommendationSet{}, ErrEmptyRequest
	}
	endpoint, err := s.Endpoint(ctx)
	if err != nil {
		return domain.RecommendationSet{}, err
	}

	key := cacheKey(endpoint, s.builder, request)
	if s.cache != nil {
		var cached domain.RecommendationSet
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	start := time.Now()
	reply, err := s.llm.Query(ctx, endpoint, s.builder.Build(request))
	if err != nil {
		return domain.RecommendationSet{}, fmt.Errorf("query %s: %w", endpoint, err)
	}
	log.Debug().Str("endpoint", endpoint).Dur("took", time.Since(start)).Int("bytes", len(reply)).Msg("serving reply received")

	payload, err := ExtractArray(reply)
	if err != nil {
		observability.ObserveReply("malformed")
		return domain.RecommendationSet{}, err
	}
	log.Debug().Str("payload", domain.Snippet(payload)).Msg("extracted reply payload")

	items, perr := ParseRecommendations(payload)
	set := domain.RecommendationSet{
		RunID:     uuid.NewString(),
		Endpoint:  endpoint,
		Request:   request,
		CreatedAt: time.Now().UTC(),
		Items:     items,
	}
	if perr != nil {
		if errors.Is(perr, domain.ErrMalformedReply) {
			observability.ObserveReply("malformed")
			return domain.RecommendationSet{}, perr
		}
		observability.ObserveReply("schema_violation")
		log.Warn().Err(perr).Str("run_id", set.RunID).Int("kept", len(items)).Msg("reply had invalid records")
		return set, perr
	}

	if len(items) != s.expected {
		observability.ObserveReply("count_mismatch")
		log.Warn().Str("run_id", set.RunID).Int("got", len(items)).Int("want", s.expected).Msg("unexpected recommendation count")
	} else {
		observability.ObserveReply("ok")
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, set, int(s.cacheTTL.Seconds()))
	}
	return set, nil
}

func cacheKey(endpoint string, b RequestBuilder, request string) string {
	sum := sha1.Sum([]byte(b.SystemInstruction() + "\x00" + request))
	return fmt.Sprintf("recs:%s:%s", endpoint, hex.EncodeToString(sum[:]))
}
