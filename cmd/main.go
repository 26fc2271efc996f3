package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/smartfunds-ke/smartfunds-backend/config"
	"github.com/smartfunds-ke/smartfunds-backend/db"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/authz"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/handler"
	repo "github.com/smartfunds-ke/smartfunds-backend/internal/accounts/repository/postgres"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/service"
)

func main() {
	cfg := config.Load()

	dbPool, err := db.NewPostgresPool(context.Background(), cfg.DBURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer dbPool.Close()

	userRepo := repo.NewPostgresRepository(dbPool, time.Duration(cfg.QueryTimeoutSec)*time.Second)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessExpiryMin, cfg.RefreshExpiryMin)
	authService := service.NewAuthService(userRepo, tokenService)
	userService := service.NewUserService(userRepo)

	// Allow-sets are registered before the server accepts traffic.
	evaluator := authz.Default()

	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService, evaluator)
	profileHandler := handler.NewProfileHandler(userService)

	app := fiber.New()
	handler.RegisterRoutes(app, evaluator, tokenService, authHandler, userHandler, profileHandler)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
