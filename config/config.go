package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// Payment provider (Stripe-compatible) credentials
	PaymentApiURL        string
	PaymentSecretKey     string
	PaymentWebhookSecret string
	PaymentTimeoutSec    int

	SendgridApiKey string
	EmailSender    string
	EmailFromName  string

	RosterReconcileSpec string // cron spec for the roster repair job
}

// Load initializes configuration from environment variables or defaults.
// The returned Config is handed to constructors explicitly; business logic
// never reads the environment itself.
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	cfg := &Config{
		Port:   getEnv("PORT", "3000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "lms"),
		DBPort:     getEnv("DB_PORT", "5432"),

		PaymentApiURL:        getEnv("PAYMENT_API_URL", "https://api.stripe.com/v1"),
		PaymentSecretKey:     getEnv("PAYMENT_SECRET_KEY", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		PaymentTimeoutSec:    getEnvInt("PAYMENT_TIMEOUT_SEC", 15),

		SendgridApiKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@lms.local"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "LMS"),

		RosterReconcileSpec: getEnv("ROSTER_RECONCILE_SPEC", "@every 5m"),
	}

	// Validate critical configuration
	if cfg.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if cfg.PaymentSecretKey == "" {
		log.Println("Warning: PAYMENT_SECRET_KEY is empty. Paid enrollments will fail.")
	}

	return cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
