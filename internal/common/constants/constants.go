package constants

import "time"

const (
	UsernameMinLength  = 3
	UsernameMaxLength  = 50
	PasswordMinLength  = 8
	PasswordMaxLength  = 72
	JWTSecretMinLength = 32

	BcryptCost = 12

	DefaultMaxRequestSize = 1 << 20

	DBPoolMinConns       = 1
	DBPoolMaxConns       = 10
	DBPoolAcquireTimeout = 30 * time.Second
	DBPoolConnectTimeout = 10 * time.Second
	DBPoolWarmUpAttempts = 10
	DBPoolWarmUpDelay    = time.Second
	DBQueryTimeout       = 30 * time.Second

	TCPKeepAliveIdle     = 30 * time.Second
	TCPKeepAliveInterval = 10 * time.Second
	TCPKeepAliveCount    = 5

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultHTTPPort           = "8000"
	DefaultTokenLifetimeHours = 24
	DefaultRequestTimeout     = 5 * time.Second

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)
