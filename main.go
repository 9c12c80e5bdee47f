package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/sixex/backend/src/config"
	"github.com/username/sixex/backend/src/database"
	"github.com/username/sixex/backend/src/handlers"
	"github.com/username/sixex/backend/src/logger"
	"github.com/username/sixex/backend/src/market"
	"github.com/username/sixex/backend/src/processors"
	"github.com/username/sixex/backend/src/security"
	"github.com/username/sixex/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := database.DB.Ping(); err != nil {
		logger.L.Error("Health check: database ping failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     err.Error(),
			"timestamp": time.Now().UTC(),
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Sixex backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Loading stock catalog...", "path", config.Cfg.StockDataPath)
	catalog, err := market.Load(config.Cfg.StockDataPath)
	if err != nil {
		logger.L.Error("Failed to load stock catalog, falling back to built-in table", "error", err)
		catalog = market.Default()
	}
	logger.L.Info("Stock catalog ready", "instruments", catalog.Len())

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing portfolio read cache...")
	readCache := cache.New(time.Minute, 5*time.Minute)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry, config.Cfg.RefreshTokenExpiry)
	investmentProcessor := processors.NewInvestmentProcessor(config.Cfg.MinInvestmentAmount)
	investmentService := services.NewInvestmentService(database.DB, catalog, investmentProcessor, readCache)

	userHandler := handlers.NewUserHandler(authService, investmentService)
	stockHandler := handlers.NewStockHandler(catalog)
	investmentHandler := handlers.NewInvestmentHandler(investmentService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.CSRFTokenHandler(config.Cfg.CSRFAuthKey))
	apiRouter.HandleFunc("GET /api/stocks", stockHandler.HandleListStocks)
	apiRouter.HandleFunc("GET /api/stocks/{symbol}", stockHandler.HandleGetStock)
	apiRouter.HandleFunc("GET /api/health", healthCheckHandler)

	// Auth actions - POST routes need CSRF
	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.Handle("POST /logout", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.LogoutUserHandler)))

	csrfProtection := handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", csrfProtection(authActionRouter)))

	applyAuth := func(handler http.HandlerFunc) http.Handler {
		return userHandler.AuthMiddleware(http.HandlerFunc(handler))
	}
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(userHandler.AuthMiddleware(http.HandlerFunc(handler)))
	}

	apiRouter.Handle("GET /api/user/profile", applyAuth(userHandler.ProfileHandler))
	apiRouter.Handle("POST /api/investments/buy", applyCsrfAndAuth(investmentHandler.HandleBuy))
	apiRouter.Handle("GET /api/investments", applyAuth(investmentHandler.HandleGetInvestments))
	apiRouter.Handle("GET /api/portfolio/summary", applyAuth(investmentHandler.HandleGetSummary))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"message": "Sixex API - Fractional Stock Investment Platform",
				"version": "1.0.0",
			})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
