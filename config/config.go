package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Ledger   LedgerConfig
	LogLevel string
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type PaymentConfig struct {
	WebhookSecret string
}

// LedgerConfig 訂位帳本的業務參數
type LedgerConfig struct {
	CancellationWindow time.Duration
	CodeAttempts       int
}

// LoadConfig 讀取環境變數；若目錄下有 .env 會先載入，但不覆蓋已存在的變數
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server:   GetServerConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-me"),
		},
		Payment: PaymentConfig{
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		},
		Ledger:   GetLedgerConfig(),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5433"), // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
		MaxConns: 25,
		MinConns: 1,
	}

	testRedisConfig := RedisConfig{
		Enabled:  true,
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnv("TEST_REDIS_PORT", "6380"), // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
		CacheTTL: time.Minute,
	}

	return &Config{
		Server:   ServerConfig{Port: "0", GinMode: "test"},
		Database: *testConfig,
		Redis:    testRedisConfig,
		Auth:     AuthConfig{JWTSecret: "test-secret"},
		Payment:  PaymentConfig{WebhookSecret: "test-webhook-secret"},
		Ledger: LedgerConfig{
			CancellationWindow: 24 * time.Hour,
			CodeAttempts:       5,
		},
		LogLevel: "debug",
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "eventbook"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25)),
		MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Enabled:  getEnv("REDIS_ENABLED", "true") == "true",
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
		CacheTTL: time.Duration(getEnvInt("REDIS_CACHE_TTL_SEC", 30)) * time.Second,
	}
}

func GetLedgerConfig() LedgerConfig {
	return LedgerConfig{
		CancellationWindow: time.Duration(getEnvInt("CANCELLATION_WINDOW_HOURS", 24)) * time.Hour,
		CodeAttempts:       getEnvInt("BOOKING_CODE_ATTEMPTS", 5),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
