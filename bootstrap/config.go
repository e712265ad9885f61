// Package bootstrap loads process-level configuration — cache location and
// credentials, default worker counts, log level — the same two-layer way
// the teacher's internal/config package does: a .env file via godotenv,
// then environment variables, with env vars always taking precedence. This
// is distinct from env.Config, which describes a single simulation run
// rather than the process hosting it.
package bootstrap

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// CacheBackend selects which cache.Store implementation to build.
type CacheBackend string

const (
	CacheBackendLocal CacheBackend = "local"
	CacheBackendS3    CacheBackend = "s3"
)

// CacheFormat selects the on-disk/on-wire serialization cache entries use.
type CacheFormat string

const (
	FormatMsgpack CacheFormat = "msgpack"
	FormatJSON    CacheFormat = "json"
)

// Config is the process-wide configuration every cmd/ entrypoint loads
// before building anything else.
type Config struct {
	LogLevel string
	DevMode  bool

	CacheBackend  CacheBackend
	CacheFormat   CacheFormat
	CacheLocalDir string
	CacheS3Bucket string
	CacheS3Region string

	DefaultFetchWorkers   int
	DefaultProcessWorkers int
	DefaultGridWorkers    int
}

// Load reads .env (if present; a missing file is not an error) then
// overlays environment variables, the teacher's established precedence
// order (spec §6 "Configuration surface").
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		LogLevel:              getEnv("CHAPATY_LOG_LEVEL", "info"),
		DevMode:               getEnvAsBool("CHAPATY_DEV_MODE", false),
		CacheBackend:          CacheBackend(getEnv("CHAPATY_CACHE_BACKEND", string(CacheBackendLocal))),
		CacheFormat:           CacheFormat(getEnv("CHAPATY_CACHE_FORMAT", string(FormatMsgpack))),
		CacheLocalDir:         getEnv("CHAPATY_CACHE_DIR", "./.chapaty-cache"),
		CacheS3Bucket:         getEnv("CHAPATY_CACHE_S3_BUCKET", ""),
		CacheS3Region:         getEnv("CHAPATY_CACHE_S3_REGION", "us-east-1"),
		DefaultFetchWorkers:   getEnvAsInt("CHAPATY_FETCH_WORKERS", 0),
		DefaultProcessWorkers: getEnvAsInt("CHAPATY_PROCESS_WORKERS", 0),
		DefaultGridWorkers:    getEnvAsInt("CHAPATY_GRID_WORKERS", 0),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
