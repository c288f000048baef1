package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

type AppConfig struct {
	AppPort               string
	AppEnv                string
	AppURL                string
	AppCorsAllowedOrigins []string
	TrustedProxyCIDRs     []string

	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMigrate  bool

	MongoURI string
	MongoDB  string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTExp    int

	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string
	S3PublicDomain string

	StorageReportFolder     string
	StorageResolutionFolder string
	MaxUploadBytes          int64

	NearMaxRadiusMeters float64

	ResolveRateLimit  int
	ResolveRateWindow time.Duration

	OrphanCleanupCron string
	CleanupTimeout    time.Duration
}

func LoadAppConfig() *AppConfig {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from system environment variables")
	}

	cfg := &AppConfig{
		AppPort:               mustGetEnv("APP_PORT"),
		AppEnv:                getEnv("APP_ENV", "development"),
		AppURL:                getEnv("APP_URL", "http://localhost:8080"),
		AppCorsAllowedOrigins: splitList(getEnv("APP_CORS_ALLOWED_ORIGINS", "*")),
		TrustedProxyCIDRs:     splitList(getEnv("TRUSTED_PROXY_CIDRS", "")),

		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "greensnap"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBMigrate:  getEnvAsBool("DB_MIGRATE", false),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "greensnap"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret: mustGetEnv("JWT_SECRET"),
		JWTExp:    getEnvAsInt("JWT_EXP", 86400),

		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3PublicDomain: getEnv("S3_PUBLIC_DOMAIN", ""),

		StorageReportFolder:     getEnv("STORAGE_REPORT_FOLDER", "reports"),
		StorageResolutionFolder: getEnv("STORAGE_RESOLUTION_FOLDER", "resolutions"),
		MaxUploadBytes:          int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),

		NearMaxRadiusMeters: getEnvAsFloat("NEAR_MAX_RADIUS_METERS", 50000),

		ResolveRateLimit:  getEnvAsInt("RESOLVE_RATE_LIMIT", 30),
		ResolveRateWindow: getEnvAsDuration("RESOLVE_RATE_WINDOW", time.Minute),

		OrphanCleanupCron: getEnv("ORPHAN_CLEANUP_CRON", "*/15 * * * *"),
		CleanupTimeout:    getEnvAsDuration("CLEANUP_TIMEOUT", 15*time.Second),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	default:
		slog.Error("Unknown store driver", "key", "STORE_DRIVER", "value", cfg.StoreDriver)
		os.Exit(1)
	}

	return cfg
}

func (c *AppConfig) DBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBName, c.DBPassword, c.DBSSLMode)
}

func (c *AppConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mustGetEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		slog.Error("Environment variable is required but not set", "key", key)
		os.Exit(1)
	}
	return value
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		slog.Warn("Environment variable must be an integer, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		slog.Warn("Environment variable must be a float, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsBool(key string, fallback bool) bool {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		slog.Warn("Environment variable must be a boolean, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		slog.Warn("Environment variable must be a duration, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}
