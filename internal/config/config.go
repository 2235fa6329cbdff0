package config

import (
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"stats-service/internal/entity"
)

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	HTTPAddr        string
	Workers         int
	ResultsDir      string
	DatasetPath     string
	ResultBackend   string
	RedisAddr       string
	RedisURL        string
	RedisKeyPrefix  string
	PostgresDSN     string
	LogFile         string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Load reads the service configuration from the environment.
func Load() (Config, error) {
	workers, err := WorkerCount()
	if err != nil {
		return Config{}, err
	}

	timeout, err := envDurationOr("SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		Workers:         workers,
		ResultsDir:      envOr("RESULTS_DIR", "results"),
		DatasetPath:     envOr("DATASET_PATH", "./nutrition_activity_obesity_usa_subset.csv"),
		ResultBackend:   envOr("RESULT_BACKEND", BackendFile),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RedisKeyPrefix:  envOr("REDIS_KEY_PREFIX", "stats:result"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		LogFile:         envOr("LOG_FILE", "webserver.log"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		ShutdownTimeout: timeout,
	}

	switch cfg.ResultBackend {
	case BackendFile:
	case BackendRedis:
		if cfg.RedisAddr == "" && cfg.RedisURL == "" {
			return Config{}, &entity.ConfigError{Key: "REDIS_ADDR", Reason: "required for redis result backend"}
		}
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, &entity.ConfigError{Key: "POSTGRES_DSN", Reason: "required for postgres result backend"}
		}
	default:
		return Config{}, &entity.ConfigError{Key: "RESULT_BACKEND", Value: cfg.ResultBackend, Reason: "unknown backend"}
	}

	return cfg, nil
}

// WorkerCount returns TP_NUM_OF_THREADS when present, the number of CPUs
// otherwise. A present but empty value is a configuration error.
func WorkerCount() (int, error) {
	v, ok := os.LookupEnv("TP_NUM_OF_THREADS")
	if !ok {
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &entity.ConfigError{Key: "TP_NUM_OF_THREADS", Value: v, Reason: "not an integer"}
	}
	if n < 1 {
		return 0, &entity.ConfigError{Key: "TP_NUM_OF_THREADS", Value: v, Reason: "must be at least 1"}
	}
	return n, nil
}

func envOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envDurationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, &entity.ConfigError{Key: key, Value: v, Reason: "not a valid duration"}
	}
	return d, nil
}

var dsnPassword = regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)

// RedactDSN masks the password part of a connection string:
// user:pass@ -> user:****@. DSNs without a password are returned unchanged.
func RedactDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, `://$1:****@`)
}
