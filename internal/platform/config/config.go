package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	CodeforcesAPIBase  string
	CodeforcesTimeout  time.Duration
	SubmissionPageSize int

	JWTKey            []byte
	JWTExp            time.Duration
	AdminUsername     string
	AdminPasswordHash string

	SnapshotsEnabled bool
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSslMode        string
	DBConnStr        string

	CacheEnabled    bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProfileCacheTTL time.Duration

	RefreshQueueName      string
	RefreshLockPrefix     string
	RefreshLockTTLSeconds int
}

var AppConfig *Config

// Load reads an optional .env file and then the process environment.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	AppConfig = FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env files.
func FromEnv() *Config {
	cfg := &Config{
		APIPort:   getEnv("API_PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		CodeforcesAPIBase:  strings.TrimRight(getEnv("CODEFORCES_API_BASE", "https://codeforces.com/api"), "/"),
		CodeforcesTimeout:  getEnvAsDuration("CODEFORCES_TIMEOUT", 15*time.Second),
		SubmissionPageSize: getEnvAsInt("SUBMISSION_PAGE_SIZE", 500),

		JWTKey:            []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:            time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		SnapshotsEnabled: getEnvAsBool("SNAPSHOTS_ENABLED", false),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "user"),
		DBPassword:       getEnv("DB_PASSWORD", "password"),
		DBName:           getEnv("DB_NAME", "cf_stats"),
		DBSslMode:        getEnv("DB_SSLMODE", "disable"),

		CacheEnabled:    getEnvAsBool("CACHE_ENABLED", false),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		ProfileCacheTTL: getEnvAsDuration("PROFILE_CACHE_TTL", 5*time.Minute),

		RefreshQueueName:      getEnv("REFRESH_QUEUE_NAME", "profile_refresh_queue"),
		RefreshLockPrefix:     getEnv("REFRESH_LOCK_PREFIX", "profile_refresh_lock:"),
		RefreshLockTTLSeconds: getEnvAsInt("REFRESH_LOCK_TTL_SECONDS", 300),
	}

	if cfg.SubmissionPageSize <= 0 {
		cfg.SubmissionPageSize = 500
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode
	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("30s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
