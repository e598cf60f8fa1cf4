package pool

import (
	"context"
	"fmt"
	"net"

	pgx "github.com/jackc/pgx/v4"

	"github.com/bbp-platform/user-service/internal/common/constants"
	"github.com/bbp-platform/user-service/internal/common/logger"
)

// Open builds a pool dialing real Postgres connections and pre-warms it.
// TCP keepalive probing is tuned so a silently dead network path is noticed
// within a bounded window instead of on the next query.
func Open(ctx context.Context, databaseURL string, cfg Config, log *logger.Logger) (*Pool, error) {
	connCfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	dialer := &net.Dialer{
		Timeout: constants.DBPoolConnectTimeout,
		KeepAliveConfig: net.KeepAliveConfig{
			Enable:   true,
			Idle:     constants.TCPKeepAliveIdle,
			Interval: constants.TCPKeepAliveInterval,
			Count:    constants.TCPKeepAliveCount,
		},
	}

	connCfg.ConnectTimeout = constants.DBPoolConnectTimeout
	connCfg.DialFunc = dialer.DialContext
	connCfg.RuntimeParams = map[string]string{
		"application_name": "user-service",
	}

	dial := func(ctx context.Context) (Conn, error) {
		return pgx.ConnectConfig(ctx, connCfg)
	}

	p := New(cfg, dial, log)
	if err := p.WarmUp(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
