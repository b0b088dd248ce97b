package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/library-seat-booking/internal/config"
	"github.com/iliyamo/library-seat-booking/internal/database"
	"github.com/iliyamo/library-seat-booking/internal/handler"
	"github.com/iliyamo/library-seat-booking/internal/hub"
	"github.com/iliyamo/library-seat-booking/internal/middleware"
	"github.com/iliyamo/library-seat-booking/internal/queue"
	"github.com/iliyamo/library-seat-booking/internal/repository"
	"github.com/iliyamo/library-seat-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	libraries := repository.NewLibraryRepo(db)
	seats := repository.NewSeatRepo(db)
	plans := repository.NewFeePlanRepo(db)
	bookings := repository.NewBookingRepo(db)
	communities := repository.NewCommunityRepo(db)

	h := hub.New()

	authH := handler.NewAuthHandler(cfg, users, tokens)
	ownerH := handler.NewOwnerHandler(libraries, seats, plans, h)
	browseH := handler.NewBrowseHandler(libraries, seats, plans)
	bookingH := handler.NewBookingHandler(libraries, seats, plans, bookings, h)
	communityH := handler.NewCommunityHandler(libraries, communities, h)
	realtimeH := handler.NewRealtimeHandler(cfg.JWTSecret, h)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, browseH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterOwner(e, ownerH, bookingH, cfg.JWTSecret)
	router.RegisterStudent(e, bookingH, cfg.JWTSecret)
	router.RegisterCommunity(e, communityH, cfg.JWTSecret)
	router.RegisterRealtime(e, realtimeH)

	// The consumer runs its own reconnect loop for the process
	// lifetime.
	go queue.StartBookingConsumer(cfg.AMQPURL)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
