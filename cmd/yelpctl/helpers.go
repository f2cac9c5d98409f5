package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	redisad "yelp_advisor/internal/adapters/redis"
	"yelp_advisor/internal/adapters/serving"
	"yelp_advisor/internal/app"
	"yelp_advisor/internal/domain"
	"yelp_advisor/internal/storage/sqldb"
)

// initExplore opens the table store. The caller closes the returned db.
func initExplore(ctx context.Context) (*app.ExploreService, *sql.DB, error) {
	db, err := sqldb.Open(ctx, cfg.TableDriver, cfg.TableDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open table store: %w", err)
	}
	repo := sqldb.New(db)
	if cfg.TableDriver != "mysql" {
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to bootstrap schema: %w", err)
		}
	}
	return app.NewExploreService(repo), db, nil
}

// initRecommender builds the recommendation service. The cache is used only
// when REDIS_ADDR is set and reachable.
func initRecommender(ctx context.Context, endpoint string) (*app.RecommendService, func(), error) {
	llm, err := serving.New(serving.Config{
		Host:        cfg.ServingHost,
		Token:       cfg.ServingToken,
		RPS:         cfg.ServingRPS,
		MaxAttempts: cfg.ServingMaxAttempts,
		Timeout:     cfg.ServingTimeout,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, running without cache")
			_ = rc.Close()
		} else {
			cache = rc
			cleanup = func() { _ = rc.Close() }
		}
	}

	if endpoint == "" {
		endpoint = cfg.ServingEndpoint
	}
	svc := app.NewRecommendService(llm, cache, app.RecommendOptions{
		Endpoint:      endpoint,
		Location:      cfg.Location,
		ExpectedCount: cfg.ExpectedCount,
		CacheTTL:      cfg.CacheTTL,
	})
	return svc, cleanup, nil
}
