package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	JWTSecret           string
	Port                string
	DatabasePath        string
	LogLevel            string
	CSRFAuthKey         []byte
	StockDataPath       string
	AccessTokenExpiry   time.Duration
	RefreshTokenExpiry  time.Duration
	MinInvestmentAmount float64
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	csrfAuthKeyStr := getEnv("CSRF_AUTH_KEY", "a-very-secure-32-byte-long-key-must-be-32-bytes!")
	if csrfAuthKeyStr == "a-very-secure-32-byte-long-key-must-be-32-bytes!" {
		log.Println("WARNING: Using default insecure CSRF_AUTH_KEY. Set CSRF_AUTH_KEY environment variable for production.")
	}
	if len(csrfAuthKeyStr) < 32 {
		log.Fatalf("FATAL: CSRF_AUTH_KEY must be at least 32 bytes long. Current length: %d", len(csrfAuthKeyStr))
	}

	accessTokenExpiry := getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 24*time.Hour)
	refreshTokenExpiry := getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)

	minInvestmentStr := getEnv("MIN_INVESTMENT_AMOUNT", "1.0")
	minInvestment, err := strconv.ParseFloat(minInvestmentStr, 64)
	if err != nil || minInvestment <= 0 {
		log.Printf("WARNING: Invalid MIN_INVESTMENT_AMOUNT '%s'. Using default 1.0. Error: %v", minInvestmentStr, err)
		minInvestment = 1.0
	}

	Cfg = &AppConfig{
		JWTSecret:           jwtSecret,
		Port:                getEnv("PORT", "8001"),
		DatabasePath:        getEnv("DATABASE_PATH", "./sixex.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CSRFAuthKey:         []byte(csrfAuthKeyStr),
		StockDataPath:       getEnv("STOCK_DATA_PATH", ""),
		AccessTokenExpiry:   accessTokenExpiry,
		RefreshTokenExpiry:  refreshTokenExpiry,
		MinInvestmentAmount: minInvestment,
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, MinInvestment=%.2f",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.MinInvestmentAmount)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
