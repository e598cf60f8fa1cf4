package pool

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"

	"github.com/bbp-platform/user-service/internal/common/constants"
	"github.com/bbp-platform/user-service/internal/common/logger"
	"github.com/bbp-platform/user-service/internal/observability/metrics"
)

var (
	// ErrStorageUnavailable means a freshly opened replacement connection
	// failed its liveness probe as well. The database is unreachable.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrAcquireTimeout means all leases stayed busy for the whole
	// configured wait.
	ErrAcquireTimeout = errors.New("timed out waiting for a pooled connection")

	ErrPoolClosed = errors.New("connection pool is closed")
)

// Conn is the slice of *pgx.Conn the rest of the service depends on.
type Conn interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
	IsClosed() bool
}

type DialFunc func(ctx context.Context) (Conn, error)

type Config struct {
	MinConns       int
	MaxConns       int
	AcquireTimeout time.Duration
}

// Pool owns a bounded set of live connections. Every connection handed out
// by Acquire has passed a liveness probe; dead connections are discarded and
// replaced without the caller noticing. Safe for concurrent use.
type Pool struct {
	dial           DialFunc
	log            *logger.Logger
	slots          chan struct{}
	acquireTimeout time.Duration
	minConns       int

	mu     sync.Mutex
	idle   []Conn
	leased int
	closed bool
}

// Lease is a temporarily exclusive handle to one pooled connection. It must
// be returned with Pool.Release on every exit path.
type Lease struct {
	pool *Pool
	conn Conn

	mu       sync.Mutex
	released bool
}

func (l *Lease) Conn() Conn {
	return l.conn
}

func New(cfg Config, dial DialFunc, log *logger.Logger) *Pool {
	if cfg.MinConns < 1 {
		cfg.MinConns = constants.DBPoolMinConns
	}
	if cfg.MaxConns < cfg.MinConns {
		cfg.MaxConns = constants.DBPoolMaxConns
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = constants.DBPoolAcquireTimeout
	}

	return &Pool{
		dial:           dial,
		log:            log,
		slots:          make(chan struct{}, cfg.MaxConns),
		acquireTimeout: cfg.AcquireTimeout,
		minConns:       cfg.MinConns,
	}
}

// WarmUp opens the minimum number of connections before the pool starts
// serving leases, retrying while the database comes up.
func (p *Pool) WarmUp(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= constants.DBPoolWarmUpAttempts; attempt++ {
		lastErr = p.openIdle(ctx)
		if lastErr == nil {
			p.log.Infof("database connection pool initialized: min=%d, max=%d", p.minConns, cap(p.slots))
			return nil
		}

		p.log.Warnf("failed to connect to database (attempt %d/%d): %v",
			attempt, constants.DBPoolWarmUpAttempts, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(constants.DBPoolWarmUpDelay):
		}
	}

	return fmt.Errorf("failed to connect to database after %d attempts: %w",
		constants.DBPoolWarmUpAttempts, lastErr)
}

func (p *Pool) openIdle(ctx context.Context) error {
	p.mu.Lock()
	missing := p.minConns - len(p.idle)
	p.mu.Unlock()

	for i := 0; i < missing; i++ {
		conn, err := p.dial(ctx)
		if err != nil {
			return err
		}

		p.mu.Lock()
		p.idle = append(p.idle, conn)
		p.mu.Unlock()
	}

	p.publishStats()
	return nil
}

// Acquire blocks until a lease slot frees up, then hands out a probed
// connection. A connection that fails its probe is closed and replaced; if
// the replacement fails too, Acquire returns ErrStorageUnavailable.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case p.slots <- struct{}{}:
	case <-timer.C:
		metrics.DBPoolAcquireTimeoutsTotal.Inc()
		return nil, ErrAcquireTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	conn, err := p.checkout(ctx)
	if err != nil {
		<-p.slots
		p.publishStats()
		return nil, err
	}

	p.mu.Lock()
	p.leased++
	p.mu.Unlock()

	p.publishStats()
	return &Lease{pool: p, conn: conn}, nil
}

func (p *Pool) checkout(ctx context.Context) (Conn, error) {
	conn, dialErr := p.popIdleOrDial(ctx)
	if conn != nil {
		if err := conn.Ping(ctx); err == nil {
			return conn, nil
		}

		metrics.DBPoolProbeFailuresTotal.Inc()
		metrics.DBPoolStaleReplacedTotal.Inc()
		p.log.Warn("stale connection detected, discarding and opening a replacement")
		p.discard(ctx, conn)
	} else {
		p.log.Warnf("failed to open connection: %v", dialErr)
	}

	replacement, err := p.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := replacement.Ping(ctx); err != nil {
		metrics.DBPoolProbeFailuresTotal.Inc()
		p.discard(ctx, replacement)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return replacement, nil
}

func (p *Pool) popIdleOrDial(ctx context.Context) (Conn, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	return p.dial(ctx)
}

// Release returns a lease to the pool. Healthy connections go back for
// reuse; broken ones are closed and dropped from the pool's accounting so a
// later Acquire opens a fresh connection. Releasing twice is a no-op.
func (p *Pool) Release(l *Lease, wasHealthy bool) {
	if l == nil {
		return
	}

	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	l.mu.Unlock()

	p.mu.Lock()
	p.leased--
	keep := wasHealthy && !l.conn.IsClosed() && !p.closed
	if keep {
		p.idle = append(p.idle, l.conn)
	}
	p.mu.Unlock()

	if !keep {
		p.log.Debug("discarding unhealthy connection on release")
		p.discard(context.Background(), l.conn)
	}

	<-p.slots
	p.publishStats()
}

// WithConn runs fn on one leased connection and guarantees release on every
// exit path, including panics. The connection only goes back to the pool
// when it is still usable afterwards.
func (p *Pool) WithConn(ctx context.Context, fn func(Conn) error) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}

	healthy := false
	defer func() { p.Release(lease, healthy) }()

	err = fn(lease.Conn())
	healthy = !lease.Conn().IsClosed() && !isConnectionError(err)
	return err
}

func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), constants.DBPoolConnectTimeout)
	defer cancel()

	for _, conn := range idle {
		if err := conn.Close(ctx); err != nil {
			p.log.Warnf("failed to close pooled connection: %v", err)
		}
	}

	p.publishStats()
	p.log.Info("database connection pool closed")
}

func (p *Pool) discard(ctx context.Context, conn Conn) {
	if conn.IsClosed() {
		return
	}
	if err := conn.Close(ctx); err != nil {
		p.log.Debugf("failed to close discarded connection: %v", err)
	}
}

func (p *Pool) publishStats() {
	p.mu.Lock()
	idle := len(p.idle)
	leased := p.leased
	p.mu.Unlock()

	metrics.DBPoolIdleConnections.Set(float64(idle))
	metrics.DBPoolLeasesInUse.Set(float64(leased))
	metrics.DBPoolOpenConnections.Set(float64(idle + leased))
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions.
		switch pgErr.Code {
		case "08000", "08001", "08003", "08004", "08006", "08007", "08P01":
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
