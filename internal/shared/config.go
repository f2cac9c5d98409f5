package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	TableDriver string
	TableDSN    string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	ServingHost        string
	ServingToken       string
	ServingEndpoint    string
	ServingRPS         float64
	ServingMaxAttempts int
	ServingTimeout     time.Duration

	Location      string
	ExpectedCount int
}

// Load reads configuration from the environment. A .env file in the
// working directory, if present, seeds variables that are not already set.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg(".env could not be read")
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		TableDriver: env("TABLE_DRIVER", "mysql"),
		TableDSN:    env("TABLE_DSN", "root:root@tcp(localhost:3306)/yelp?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		ServingHost:        env("SERVING_HOST", ""),
		ServingToken:       env("SERVING_TOKEN", ""),
		ServingEndpoint:    env("SERVING_ENDPOINT", ""),
		ServingRPS:         atof("SERVING_RPS", 2),
		ServingMaxAttempts: atoi("SERVING_MAX_ATTEMPTS", 1),
		ServingTimeout:     time.Duration(atoi("SERVING_TIMEOUT_SECONDS", 120)) * time.Second,

		Location:      env("RECOMMEND_LOCATION", "Moscone Center in San Francisco, CA"),
		ExpectedCount: atoi("RECOMMEND_EXPECTED_COUNT", 10),
	}
	if c.ServingToken == "" {
		log.Warn().Msg("SERVING_TOKEN is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
	}
	return def
}
