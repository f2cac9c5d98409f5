package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	server "yelp_advisor/internal/adapters/http_server"
	"yelp_advisor/internal/adapters/observability"
	redisad "yelp_advisor/internal/adapters/redis"
	"yelp_advisor/internal/adapters/serving"
	"yelp_advisor/internal/app"
	"yelp_advisor/internal/domain"
	"yelp_advisor/internal/shared"
	"yelp_advisor/internal/storage/sqldb"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// tables
	db, err := sqldb.Open(ctx, cfg.TableDriver, cfg.TableDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.TableDriver).Msg("open table store failed")
	}
	defer db.Close()
	log.Info().Str("driver", cfg.TableDriver).Msg("table store connection ok")
	repo := sqldb.New(db)
	if cfg.TableDriver != "mysql" {
		if err := repo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("schema bootstrap failed")
		}
	}

	// serving endpoint
	llm, err := serving.New(serving.Config{
		Host:        cfg.ServingHost,
		Token:       cfg.ServingToken,
		RPS:         cfg.ServingRPS,
		MaxAttempts: cfg.ServingMaxAttempts,
		Timeout:     cfg.ServingTimeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("serving client not configured, recommendations disabled")
	}

	// cache is optional
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, running without cache")
		} else {
			cache = rc
		}
	}

	var recs *app.RecommendService
	if llm != nil {
		recs = app.NewRecommendService(llm, cache, app.RecommendOptions{
			Endpoint:      cfg.ServingEndpoint,
			Location:      cfg.Location,
			ExpectedCount: cfg.ExpectedCount,
			CacheTTL:      cfg.CacheTTL,
		})
	}
	explore := app.NewExploreService(repo)

	// http
	srv := server.New(cfg.ServingTimeout + 30*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Recs: recs, Explore: explore})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
