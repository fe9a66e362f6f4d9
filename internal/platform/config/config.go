package config

import (
	"os"
	"time"
)

// Server captures process-level configuration. Zero timeouts fall back to
// the httpserver defaults.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables so main stays
// lean. An empty DatabaseURL selects the in-memory stores.
func FromEnv() Server {
	addr := os.Getenv("ORFIN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default, override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: jwtSigningKey,
		ReadTimeout:   durationEnv("ORFIN_READ_TIMEOUT"),
		WriteTimeout:  durationEnv("ORFIN_WRITE_TIMEOUT"),
	}
}

// durationEnv parses the variable as a Go duration, treating absence or a
// malformed value as unset.
func durationEnv(name string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(name))
	if err != nil {
		return 0
	}
	return d
}
