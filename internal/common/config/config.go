package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bbp-platform/user-service/internal/common/constants"
	commonerrors "github.com/bbp-platform/user-service/internal/common/errors"
)

type Config struct {
	HTTPPort    string
	DatabaseURL string

	JWTSecret          string
	JWTAlgorithm       string
	TokenLifetime      time.Duration
	PoolMinConns       int
	PoolMaxConns       int
	PoolAcquireTimeout time.Duration

	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
}

// Load reads configuration from the environment. The database can be given
// either as DATABASE_URL or as discrete DATABASE_HOST/PORT/NAME/USER/PASSWORD
// parts composed into a DSN.
func Load() (Config, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	if len(jwtSecret) < constants.JWTSecretMinLength {
		return Config{}, fmt.Errorf("%w: got %d bytes", commonerrors.ErrInvalidJWTSecret, len(jwtSecret))
	}

	algorithm := getEnv("JWT_ALGORITHM", "HS256")
	if algorithm != "HS256" {
		return Config{}, fmt.Errorf("%w: %s", commonerrors.ErrUnsupportedJWTAlgorithm, algorithm)
	}

	databaseURL, err := databaseURLFromEnv()
	if err != nil {
		return Config{}, err
	}

	minConns := getIntEnv("POOL_MIN_CONNS", constants.DBPoolMinConns)
	maxConns := getIntEnv("POOL_MAX_CONNS", constants.DBPoolMaxConns)
	if minConns < 1 || maxConns < minConns {
		return Config{}, fmt.Errorf("%w: min=%d max=%d", commonerrors.ErrInvalidPoolBounds, minConns, maxConns)
	}

	lifetimeHours := getIntEnv("JWT_EXPIRATION_HOURS", constants.DefaultTokenLifetimeHours)

	return Config{
		HTTPPort:           getEnv("PORT", constants.DefaultHTTPPort),
		DatabaseURL:        databaseURL,
		JWTSecret:          jwtSecret,
		JWTAlgorithm:       algorithm,
		TokenLifetime:      time.Duration(lifetimeHours) * time.Hour,
		PoolMinConns:       minConns,
		PoolMaxConns:       maxConns,
		PoolAcquireTimeout: getDurationEnv("POOL_ACQUIRE_TIMEOUT", constants.DBPoolAcquireTimeout),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS"),
		RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
	}, nil
}

func databaseURLFromEnv() (string, error) {
	if v := getEnv("DATABASE_URL", ""); v != "" {
		return v, nil
	}

	host, err := mustEnv("DATABASE_HOST")
	if err != nil {
		return "", err
	}
	user, err := mustEnv("DATABASE_USER")
	if err != nil {
		return "", err
	}

	port := getEnv("DATABASE_PORT", "6543")
	name := getEnv("DATABASE_NAME", "postgres")
	password := os.Getenv("DATABASE_PASSWORD")

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   host + ":" + port,
		Path:   "/" + name,
	}
	return u.String(), nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", commonerrors.ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getListEnv(key string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
