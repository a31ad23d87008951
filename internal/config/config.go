package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string
	LogMode  string // "dev" | "prod"

	// Upstream LMS API.
	APIBaseURL string
	APIToken   string // opaque bearer token; auth flows live outside the player
	CourseID   string

	DBDriver string
	DBDSN    string

	CORSOrigins []string

	// Bound on queued best-effort progress writes.
	ProgressQueueSize int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8090"
	}
	return Config{
		HTTPAddr:          addr,
		LogMode:           envOr("LOG_MODE", "dev"),
		APIBaseURL:        envOr("API_BASE_URL", "http://localhost:8080"),
		APIToken:          os.Getenv("API_TOKEN"),
		CourseID:          os.Getenv("COURSE_ID"),
		DBDriver:          envOr("DB_DRIVER", "sqlite"),
		DBDSN:             envOr("DB_DSN", ""),
		CORSOrigins:       csvOr("CORS_ORIGINS", "http://localhost:3000"),
		ProgressQueueSize: envInt("PROGRESS_QUEUE_SIZE", 64),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
