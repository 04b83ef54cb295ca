package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config func to get env value
func Config(key string) string {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using system environment")
		}
	})
	return os.Getenv(key)
}

type Settings struct {
	DBDriver   string
	DBHost     string
	DBPort     uint64
	DBUser     string
	DBPassword string
	DBName     string
	DBParams   string

	HTTPAddr      string
	AppURL        string
	JWTSecret     string
	RedisAddr     string
	DefaultLocale string
	CORSOrigins   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// requests per second per client on the charge endpoint
	ChargeRateLimit float64
	ChargeBurst     int

	DispatchTimeout time.Duration
	DispatchRetries int
}

func Load() Settings {
	return Settings{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     mustUint("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "storefront"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "storefront"),
		DBParams:   getEnv("DB_PARAMS", ""),

		HTTPAddr:      getEnv("HTTP_ADDR", ":8002"),
		AppURL:        getEnv("APP_URL", "http://localhost:8002"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:5173"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     int(mustUint("SMTP_PORT", 587)),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "Storefront <no-reply@storefront.local>"),

		ChargeRateLimit: mustFloat("CHARGE_RATE_LIMIT", 2),
		ChargeBurst:     int(mustUint("CHARGE_RATE_BURST", 5)),

		DispatchTimeout: mustDuration("DISPATCH_TIMEOUT", 30*time.Second),
		DispatchRetries: int(mustUint("DISPATCH_RETRIES", 3)),
	}
}

func getEnv(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

func mustUint(key string, fallback uint64) uint64 {
	v := Config(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		panic(fmt.Sprintf("failed to parse %s", key))
	}
	return n
}

func mustFloat(key string, fallback float64) float64 {
	v := Config(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		panic(fmt.Sprintf("failed to parse %s", key))
	}
	return f
}

func mustDuration(key string, fallback time.Duration) time.Duration {
	v := Config(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Sprintf("failed to parse %s", key))
	}
	return d
}
