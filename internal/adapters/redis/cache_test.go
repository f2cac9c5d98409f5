package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "yelp_advisor/internal/adapters/redis"
	"yelp_advisor/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	in := domain.RecommendationSet{
		RunID: "run-1",
		Items: []domain.Recommendation{{Name: "Greens", Rating: 4.5, Accuracy: 1, MeetsRequests: map[string]bool{"vegan": true}}},
	}
	if err := c.Set(ctx, "recs:k", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("yelp:recs:k") {
		t.Fatalf("expected prefixed key in redis, keys=%v", mr.Keys())
	}

	var out domain.RecommendationSet
	ok, err := c.Get(ctx, "recs:k", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.RunID != "run-1" || len(out.Items) != 1 || !out.Items[0].MeetsRequests["vegan"] {
		t.Fatalf("unexpected value: %+v", out)
	}

	if err := c.Del(ctx, "recs:k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, err = c.Get(ctx, "recs:k", &out)
	if err != nil || ok {
		t.Fatalf("expected miss after del, ok=%v err=%v", ok, err)
	}
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", map[string]int{"a": 1}, 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(6 * time.Second)

	var out map[string]int
	ok, err := c.Get(ctx, "k", &out)
	if err != nil || ok {
		t.Fatalf("expected expired entry, ok=%v err=%v", ok, err)
	}
}

func TestCache_UndecodableEntryIsMiss(t *testing.T) {
	c, mr := newCache(t)
	if err := mr.Set("yelp:bad", "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var out domain.RecommendationSet
	ok, err := c.Get(context.Background(), "bad", &out)
	if ok || err == nil {
		t.Fatalf("expected decode error, ok=%v err=%v", ok, err)
	}
}
