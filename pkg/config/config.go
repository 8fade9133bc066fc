package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	PostStoreMongo     = "mongo"
	PostStoreFirestore = "firestore"
	PostStoreMemory    = "memory"

	AuthModeJWT      = "jwt"
	AuthModeFirebase = "firebase"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	PostStore               string
	AuthMode                string
	JWTSecret               string
	FeedTimeout             time.Duration
	PostRateLimit           float64
	PostRateBurst           int
}

// Load reads the configuration from the environment, after loading a .env
// file when one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "echoo"),
		PostStore:               getEnv("POST_STORE", PostStoreMongo),
		AuthMode:                getEnv("AUTH_MODE", AuthModeJWT),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		FeedTimeout:             getDuration("FEED_TIMEOUT", 5*time.Second),
		PostRateLimit:           getFloat("POST_RATE_LIMIT", 0.5),
		PostRateBurst:           getInt("POST_RATE_BURST", 3),
	}
}

// Validate checks that the selected stores and auth mode are usable.
func (c *Config) Validate() error {
	if c.PostgresConnStr == "" {
		return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}

	switch c.PostStore {
	case PostStoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable not set")
		}
	case PostStoreFirestore:
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required for the firestore post store")
		}
	case PostStoreMemory:
	default:
		return fmt.Errorf("unknown POST_STORE %q", c.PostStore)
	}

	switch c.AuthMode {
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET environment variable not set")
		}
	case AuthModeFirebase:
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required for firebase auth")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET environment variable not set")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.FeedTimeout <= 0 {
		return fmt.Errorf("FEED_TIMEOUT must be positive")
	}
	return nil
}

// NeedsFirebase reports whether a firebase app has to be initialised.
func (c *Config) NeedsFirebase() bool {
	return c.PostStore == PostStoreFirestore || c.AuthMode == AuthModeFirebase || c.FirebaseCredentialsPath != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return defaultValue
}
