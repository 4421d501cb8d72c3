package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Email  EmailConfig
	Drive  DriveConfig
	Cache  CacheConfig
	CORS   CORSConfig
	App    AppConfig
	Log    LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         string
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
}

// MongoConfig holds the authoritative-store configuration
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	// OpTimeout bounds every individual store call.
	OpTimeout time.Duration
	// RetryBackoff is the delay before the single retry on upstream failures.
	RetryBackoff time.Duration
}

// RedisConfig holds the shared cache configuration
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// EmailConfig holds notifier configuration
type EmailConfig struct {
	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	SMTPFrom  string
	ClientURL string
	// Timeout bounds the dial and the whole SMTP exchange.
	Timeout time.Duration
}

// DriveConfig holds document-storage configuration
type DriveConfig struct {
	BaseURL     string
	UploadURL   string
	AccessToken string
	FolderID    string
	Timeout     time.Duration
}

// CacheConfig holds the TTL policy for the cache-aside layer
type CacheConfig struct {
	// CatalogTTL bounds staleness of project list/detail reads.
	CatalogTTL time.Duration
	// OwnerTTL bounds staleness of "my projects" and "my requests" views.
	OwnerTTL time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// AppConfig holds application metadata
type AppConfig struct {
	Env     string
	Name    string
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables. A .env file is read
// first when present; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "5000"),
			TimeoutRead:  getDurationEnv("SERVER_TIMEOUT_READ", 15*time.Second),
			TimeoutWrite: getDurationEnv("SERVER_TIMEOUT_WRITE", 15*time.Second),
			TimeoutIdle:  getDurationEnv("SERVER_TIMEOUT_IDLE", 60*time.Second),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "kel1paw"),
			ConnectTimeout: getDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			OpTimeout:      getDurationEnv("MONGODB_OP_TIMEOUT", 5*time.Second),
			RetryBackoff:   getDurationEnv("MONGODB_RETRY_BACKOFF", 200*time.Millisecond),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 2*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 2*time.Second),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getDurationEnv("JWT_EXPIRATION", 720*time.Hour),
		},
		Email: EmailConfig{
			SMTPHost:  getEnv("SMTP_HOST", ""),
			SMTPPort:  getEnv("SMTP_PORT", "587"),
			SMTPUser:  getEnv("SMTP_USERNAME", ""),
			SMTPPass:  getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:  getEnv("SMTP_FROM", "noreply@kel1paw.id"),
			ClientURL: getEnv("CLIENT_URL", "http://localhost:3000"),
			Timeout:   getDurationEnv("SMTP_TIMEOUT", 10*time.Second),
		},
		Drive: DriveConfig{
			BaseURL:     getEnv("DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
			UploadURL:   getEnv("DRIVE_UPLOAD_URL", "https://www.googleapis.com/upload/drive/v3"),
			AccessToken: getEnv("DRIVE_ACCESS_TOKEN", ""),
			FolderID:    getEnv("DRIVE_FOLDER_ID", ""),
			Timeout:     getDurationEnv("DRIVE_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			CatalogTTL: getDurationEnv("CACHE_CATALOG_TTL", time.Hour),
			OwnerTTL:   getDurationEnv("CACHE_OWNER_TTL", 30*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		},
		App: AppConfig{
			Env:     getEnv("APP_ENV", "development"),
			Name:    getEnv("APP_NAME", "kel1paw"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required configuration values
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable with a fallback default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable with a fallback default
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable with a fallback default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getSliceEnv retrieves a comma-separated environment variable as a slice
func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
