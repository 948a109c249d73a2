package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/driveloop/bookingd/internal/booking"
	"github.com/driveloop/bookingd/internal/cache"
	"github.com/driveloop/bookingd/internal/config"
	"github.com/driveloop/bookingd/internal/database"
	"github.com/driveloop/bookingd/internal/handler"
	"github.com/driveloop/bookingd/internal/middleware"
	"github.com/driveloop/bookingd/internal/queue"
	"github.com/driveloop/bookingd/internal/repository"
	"github.com/driveloop/bookingd/internal/router"
)

func main() {
	// Local development reads .env; production supplies real env vars
	// and the missing-file error is irrelevant.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: a nil client disables rate limiting and the
	// occupancy cache but never the booking core.
	rdb := config.NewRedisClient()

	resources := repository.NewResourceRepo(db)
	reservations := repository.NewReservationRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	svc := booking.NewService(db, resources, reservations, users, cfg.SessionDefault, cfg.SessionMax)
	occCache := cache.NewOccupancyCache(config.LoadCacheConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	bookingH := handler.NewBookingHandler(svc, resources, reservations, users, occCache)
	occupancyH := handler.NewOccupancyHandler(svc, occCache)
	adminH := handler.NewAdminResourceHandler(resources, reservations, occCache)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterPublic(e, occupancyH)
	router.RegisterAuth(e, authH)
	router.RegisterMember(e, authH, bookingH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Background consumer turns session events into the usage ledger.
	go func() {
		if err := queue.StartUsageConsumer(); err != nil {
			log.Printf("usage consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
