package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/darovskikh/reelkeep/internal/config"
	"github.com/darovskikh/reelkeep/internal/database"
	"github.com/darovskikh/reelkeep/internal/handler"
	"github.com/darovskikh/reelkeep/internal/middleware"
	"github.com/darovskikh/reelkeep/internal/queue"
	"github.com/darovskikh/reelkeep/internal/repository"
	"github.com/darovskikh/reelkeep/internal/router"
	queue_publisher "github.com/darovskikh/reelkeep/internal/service"
	"github.com/darovskikh/reelkeep/internal/tmdb"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: a nil client turns caching and rate limiting into
	// pass-throughs rather than preventing startup.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	roles := repository.NewRoleRepo(db)
	movies := repository.NewMovieRepo(db)
	collections := repository.NewCollectionRepo(db)

	catalog := tmdb.NewClient(cfg.TMDBAPIKey, cfg.TMDBBaseURL, cfg.TMDBImageBase)

	authH := handler.NewAuthHandler(cfg, users, tokens, roles)
	publicH := handler.NewPublicHandler(movies, collections)
	catalogH := handler.NewCatalogHandler(movies, collections, catalog, queue_publisher.PublishCatalogChanged)
	adminH := handler.NewAdminHandler(roles, movies, queue_publisher.PublishCatalogChanged)

	rate := middleware.NewTokenBucket(rateCfg, rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, rate)
	router.RegisterPublic(e, publicH, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterCatalog(e, catalogH, cfg.JWTSecret, roles, rate)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret, roles)

	// The consumer drops cached browse responses whenever a catalog-changed
	// event arrives. It reconnects on its own, so a broker outage only
	// delays invalidation until the TTL expires.
	if rdb != nil && cacheCfg.Enabled {
		go func() {
			if err := queue.StartInvalidationConsumer(rdb, cacheCfg.Prefix); err != nil {
				log.Printf("invalidation consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
