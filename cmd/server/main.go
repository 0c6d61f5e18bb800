package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/mvucic/todo-backend/internal/config"
	"github.com/mvucic/todo-backend/internal/database"
	"github.com/mvucic/todo-backend/internal/email"
	postgresrepo "github.com/mvucic/todo-backend/internal/repository/postgres"
	"github.com/mvucic/todo-backend/internal/service"
	"github.com/mvucic/todo-backend/internal/transport/http/handlers"
	"github.com/mvucic/todo-backend/internal/transport/http/middleware"
)

func main() {
	cfg := config.Load()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	if err := database.Migrate(context.Background(), cfg); err != nil {
		log.Fatal(err)
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	tokenRepo := postgresrepo.NewTokenRepo(pool)
	productRepo := postgresrepo.NewProductRepo(pool)
	statsRepo := postgresrepo.NewStatsRepo(pool)

	// Email
	sender := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom, cfg.FrontendURL)

	// Services
	authService := service.NewAuthService(userRepo, tokenRepo, sender, cfg.JWTSecret,
		cfg.VerificationTokenTTL, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	productService := service.NewProductService(productRepo, userRepo)
	adminService := service.NewAdminService(userRepo, tokenRepo, statsRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Middleware
	auth := middleware.Auth(cfg.JWTSecret)
	staff := middleware.Staff(userRepo)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("GET /api/v1/auth/verify-email/{token}", authHandler.VerifyEmail)
	mux.HandleFunc("POST /api/v1/auth/resend-verification", authHandler.ResendVerification)

	// Protected
	mux.Handle("GET /api/v1/auth/profile", auth(http.HandlerFunc(authHandler.Profile)))

	// Protected - Products
	mux.Handle("GET /api/v1/products", auth(http.HandlerFunc(productHandler.List)))
	mux.Handle("POST /api/v1/products", auth(http.HandlerFunc(productHandler.Create)))
	mux.Handle("GET /api/v1/products/{id}", auth(http.HandlerFunc(productHandler.Get)))
	mux.Handle("PUT /api/v1/products/{id}", auth(http.HandlerFunc(productHandler.Update)))
	mux.Handle("DELETE /api/v1/products/{id}", auth(http.HandlerFunc(productHandler.Delete)))

	// Staff only - Admin
	mux.Handle("GET /api/v1/admin/stats", auth(staff(http.HandlerFunc(adminHandler.Stats))))
	mux.Handle("GET /api/v1/admin/users", auth(staff(http.HandlerFunc(adminHandler.ListUsers))))
	mux.Handle("POST /api/v1/admin/users/{id}/verify", auth(staff(http.HandlerFunc(adminHandler.VerifyUser))))
	mux.Handle("POST /api/v1/admin/users/{id}/unverify", auth(staff(http.HandlerFunc(adminHandler.UnverifyUser))))
	mux.Handle("DELETE /api/v1/admin/tokens/expired", auth(staff(http.HandlerFunc(adminHandler.DeleteExpiredTokens))))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
